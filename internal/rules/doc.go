// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package rules provides the deterministic rule-based score that the hybrid engine blends
with the model probability.

Two providers implement threat.RuleScoreProvider:

  - Heuristic evaluates fixed, capped components over a device's aggregate statistics.
    It is the default and needs nothing but the store.
  - Remote asks an external rules service over HTTP. Calls go through a client-side
    token bucket, a circuit breaker and an OpenTelemetry-instrumented transport.

With rules.remote.cache_ttl set, the remote provider is wrapped in Cached, an LRU of
recent successful scores keyed by BSSID.

Both return a score in [0, 100] plus a flags map that is persisted verbatim with the
score record. Any error is reported to the engine, which skips the device.

Heuristic components:

	follows_home      seen at home and away from home             30
	multi_location    >= 5 locations 20, >= 3 locations           10
	persistent        >= 7 days 20, >= 3 days                     10
	mobile            distance range >= 5 km 20, >= 1 km          10
	close_proximity   strongest signal >= -60 dBm                 10
	high_volume       >= 50 observations                          10

The sum is clamped to 100.
*/
package rules
