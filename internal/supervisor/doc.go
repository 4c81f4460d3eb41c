// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package supervisor runs the long-lived parts of the service under a suture v4 tree.

	RootSupervisor ("shadowscore")
	├── JobsSupervisor ("jobs-layer")
	│   ├── TrainingService  (if training.interval > 0 or training.on_startup)
	│   └── ScoringService   (if scoring.schedule.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing scheduler is restarted without touching the HTTP server, and the other way
round. Supervisor events are logged through sutureslog, which writes to the zerolog
global logger via logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{})
	tree.AddJobService(services.NewTrainingService(trainer, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(srv, 30*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
