// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package config loads the service configuration with koanf.

Sources are layered, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, else the first of config.yaml, config.yml,
    /etc/shadowscore/config.yaml, /etc/shadowscore/config.yml
 3. Environment variables listed in envMappings

Only mapped environment variables are read, so unrelated variables never leak into the
configuration. Durations accept Go syntax ("90s", "6h").

Example config.yaml:

	server:
	  port: 8080
	  cors_origins: ["https://ops.example.org"]
	database:
	  path: /data/shadowscore.duckdb
	scoring:
	  default_limit: 10000
	  home:
	    enabled: true
	    latitude: 52.37
	    longitude: 4.89
	  schedule:
	    enabled: true
	    interval: 1h
	training:
	  interval: 24h
	rules:
	  provider: remote
	  remote:
	    base_url: http://rules.internal:9000
	    cache_ttl: 10m
	lock:
	  backend: redis
	  redis:
	    addr: redis:6379

Validate rejects the first invalid setting it finds, naming the key.
*/
package config
