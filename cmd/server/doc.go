// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package main is the entry point for the Shadowscore server.

Shadowscore scores wireless devices (identified by BSSID) for the likelihood
that they are following the operator. Each score blends a rule-based score with
the probability from a logistic-regression model trained on operator tags.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("shadowscore")
	├── JobSupervisor ("jobs-layer")
	│   ├── Training service (optional, TRAINING_INTERVAL / training.on_startup)
	│   └── Scoring service (optional, scoring.schedule.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Tracing: OpenTelemetry OTLP exporter (disabled unless OTEL_ENABLED=true)
 4. Database: DuckDB file holding observations, tags, models and scores
 5. Training lock: in-process or Redis lease (LOCK_BACKEND=redis)
 6. Rule provider: built-in heuristic or remote HTTP service
 7. Trainer and scoring engine
 8. Supervisor tree and HTTP server

# Configuration

Priority: Environment variables > Config file > Defaults

	HTTP_PORT=8080               # HTTP server port
	DUCKDB_PATH=/data/shadowscore.duckdb
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	HOME_ENABLED=true            # enable home/away features
	HOME_LATITUDE=52.37
	HOME_LONGITUDE=4.89
	RULES_PROVIDER=heuristic     # heuristic or remote
	LOCK_BACKEND=memory          # memory or redis
	REDIS_ADDR=127.0.0.1:6379

See internal/config for the full list.

# Endpoints

	POST /train                  # fit a model from tagged devices
	POST /score-all              # score devices (?limit=&overwrite_final=)
	GET  /status                 # model, tag counts and training state
	GET  /health                 # liveness and database connectivity
	GET  /metrics                # Prometheus metrics

Device, tag and score endpoints live under /api/v1.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server (bounded by server.shutdown_timeout) and the job services, after which
the database is closed.
*/
package main
