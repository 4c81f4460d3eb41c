// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered on the default registry through promauto and exposed at
/metrics in Prometheus text format:

	curl http://localhost:8085/metrics

# Available Metrics

Training:
  - threat_training_runs_total{result}
  - threat_training_duration_seconds
  - threat_training_samples{tag}
  - threat_training_lock_conflicts_total

Scoring:
  - threat_scoring_batches_total{mode,result}
  - threat_scoring_batch_duration_seconds{mode}
  - threat_devices_scored_total{result}
  - threat_final_levels_total{level}

Rule providers and resilience:
  - rule_provider_requests_total{provider,result}
  - rule_provider_request_duration_seconds{provider}
  - circuit_breaker_state{name}
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

HTTP and storage:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - duckdb_query_duration_seconds{operation,table}
  - duckdb_query_errors_total{operation,table}
  - observations_ingested_total

# Usage

	metrics.RecordScoringBatch("shadow", metrics.ResultSuccess, time.Since(start))
	metrics.DevicesScored.WithLabelValues(metrics.ResultSuccess).Inc()
*/
package metrics
