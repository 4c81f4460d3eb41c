// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package services adapts application components to suture.Service.

  - HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into Serve(ctx).
  - TrainingService retrains the model on startup and/or on a fixed interval. A run
    rejected because another training holds the lock is logged and skipped.
  - ScoringService runs a scoring batch on a fixed interval, in shadow mode unless
    configured to overwrite final scores. It waits quietly until a model exists.

Every service returns ctx.Err() on shutdown and implements fmt.Stringer so suture
can name it in log events.
*/
package services
