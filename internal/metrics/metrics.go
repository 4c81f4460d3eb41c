// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values shared by the training and scoring metrics.
const (
	ResultSuccess          = "success"
	ResultError            = "error"
	ResultConflict         = "conflict"
	ResultInsufficientData = "insufficient_data"
	ResultDegenerate       = "degenerate"
	ResultCancelled        = "cancelled"
	ResultRejected         = "rejected"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threat_training_runs_total",
			Help: "Total number of model training attempts by result",
		},
		[]string{"result"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "threat_training_duration_seconds",
			Help:    "Duration of completed training attempts in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	TrainingSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "threat_training_samples",
			Help: "Labeled samples used by the last successful training run",
		},
		[]string{"tag"},
	)

	LockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threat_training_lock_conflicts_total",
			Help: "Training attempts rejected because the training lock was held",
		},
	)

	// Scoring Metrics
	ScoringBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threat_scoring_batches_total",
			Help: "Total number of scoring batches by mode and result",
		},
		[]string{"mode", "result"},
	)

	ScoringBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threat_scoring_batch_duration_seconds",
			Help:    "Duration of scoring batches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"mode"},
	)

	DevicesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threat_devices_scored_total",
			Help: "Devices processed by scoring, by result",
		},
		[]string{"result"},
	)

	ThreatLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threat_final_levels_total",
			Help: "Final threat levels assigned by scoring batches",
		},
		[]string{"level"},
	)

	// Rule Provider Metrics
	RuleProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_provider_requests_total",
			Help: "Rule score lookups by provider and result",
		},
		[]string{"provider", "result"},
	)

	RuleProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rule_provider_request_duration_seconds",
			Help:    "Rule score lookup latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"provider"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ingest Metrics
	RuleCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_cache_lookups_total",
			Help: "Rule score cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	ObservationsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "observations_ingested_total",
			Help: "Total number of device observations stored",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordTraining records a training attempt. Duration is only observed for attempts
// that got past the lock.
func RecordTraining(result string, duration time.Duration) {
	TrainingRuns.WithLabelValues(result).Inc()
	if result != ResultConflict && duration > 0 {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// RecordScoringBatch records a finished or aborted scoring batch
func RecordScoringBatch(mode, result string, duration time.Duration) {
	ScoringBatches.WithLabelValues(mode, result).Inc()
	ScoringBatchDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordRuleLookup records one rule provider call
func RecordRuleLookup(provider string, duration time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	RuleProviderRequests.WithLabelValues(provider, result).Inc()
	RuleProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordRuleCache records a rule score cache lookup
func RecordRuleCache(hit bool) {
	if hit {
		RuleCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	RuleCacheLookups.WithLabelValues("miss").Inc()
}
