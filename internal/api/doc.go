// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package api exposes the scoring service over HTTP using the chi router.

Control surface:

	POST /train                          fit and store a new model
	POST /score-all?limit=N&overwrite_final=bool
	GET  /status                         model metadata, tag counts, lock state

Supporting endpoints under /api/v1:

	POST   /observations                 ingest sightings (at most 10000 per request)
	PUT    /devices/{bssid}/tag          label a device
	DELETE /devices/{bssid}/tag
	GET    /devices/{bssid}/stats        aggregate statistics
	POST   /devices/{bssid}/score        score a single device
	GET    /scores                       ?min_level=HIGH&limit=100
	GET    /scores/{bssid}

Plus GET /health and GET /metrics.

Every JSON response uses one envelope:

	{
	  "success": true,
	  "data": {...},
	  "error": {"code": "...", "message": "...", "details": {...}},
	  "metadata": {"timestamp": "...", "request_id": "...", "query_time_ms": 3}
	}

Error codes map to statuses as follows: INSUFFICIENT_DATA and MODEL_NOT_FOUND and
VALIDATION_ERROR are 400, NOT_FOUND is 404, TRAINING_IN_PROGRESS is 409 and anything
unexpected is 500 INTERNAL_ERROR.
*/
package api
