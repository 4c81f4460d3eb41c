// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"context"
	"fmt"
	"time"
)

// MaxBatchLimit is the hard ceiling on devices scored in one batch.
const MaxBatchLimit = 200000

// Tag is a human label attached to a device.
type Tag string

const (
	// TagThreat marks a confirmed tracking device.
	TagThreat Tag = "THREAT"

	// TagFalsePositive marks a device confirmed to be benign.
	TagFalsePositive Tag = "FALSE_POSITIVE"

	// TagInvestigate marks a device under review. It is not a training label.
	TagInvestigate Tag = "INVESTIGATE"
)

// IsTrainingLabel reports whether the tag contributes a labeled sample.
func (t Tag) IsTrainingLabel() bool {
	return t == TagThreat || t == TagFalsePositive
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	return t.IsTrainingLabel() || t == TagInvestigate
}

// TaggedStats pairs a device's aggregates with its human label.
type TaggedStats struct {
	Stats DeviceStats
	Tag   Tag
}

// RuleScore is the output of a RuleScoreProvider.
type RuleScore struct {
	Score float64        `json:"score"`
	Flags map[string]any `json:"flags"`
}

// ScoreRecord is the persisted outcome of scoring one device.
type ScoreRecord struct {
	BSSID               string         `json:"bssid"`
	MLThreatScore       float64        `json:"ml_threat_score"`
	MLThreatProbability float64        `json:"ml_threat_probability"`
	MLPrimaryClass      PrimaryClass   `json:"ml_primary_class"`
	RuleBasedScore      float64        `json:"rule_based_score"`
	RuleBasedFlags      map[string]any `json:"rule_based_flags"`
	EvidenceWeight      float64        `json:"evidence_weight"`
	MLBoost             float64        `json:"ml_boost"`
	HybridThreatScore   float64        `json:"hybrid_threat_score"`
	FinalThreatScore    float64        `json:"final_threat_score"`
	FinalThreatLevel    ThreatLevel    `json:"final_threat_level"`
	ModelVersion        string         `json:"model_version"`
	ScoredAt            time.Time      `json:"scored_at"`
}

// ScoreOptions control a scoring batch.
type ScoreOptions struct {
	// Limit caps the number of candidate devices, in [1, MaxBatchLimit].
	Limit int `json:"limit" validate:"min=1,max=200000"`

	// OverwriteFinal makes the hybrid score authoritative. When false the
	// final score is the rule score (shadow mode).
	OverwriteFinal bool `json:"overwrite_final"`
}

// Validate checks the limit range.
func (o ScoreOptions) Validate() error {
	if o.Limit < 1 || o.Limit > MaxBatchLimit {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, o.Limit, MaxBatchLimit)
	}
	return nil
}

// BatchResult summarizes one scoring batch.
type BatchResult struct {
	Scored         int                 `json:"scored"`
	Failed         int                 `json:"failed"`
	FailedDevices  []string            `json:"failed_devices,omitempty"`
	ModelVersion   string              `json:"model_version"`
	OverwriteFinal bool                `json:"overwrite_final"`
	Levels         map[ThreatLevel]int `json:"levels"`
	DurationMS     int64               `json:"duration_ms"`
}

// maxReportedFailures bounds BatchResult.FailedDevices.
const maxReportedFailures = 100

// TrainingResult summarizes a successful training run.
type TrainingResult struct {
	Samples      int    `json:"samples"`
	ThreatCount  int    `json:"threat_count"`
	SafeCount    int    `json:"safe_count"`
	ModelVersion string `json:"model_version"`
	DurationMS   int64  `json:"duration_ms"`
}

// TrainingRun records the outcome of the most recent training attempt.
type TrainingRun struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Samples      int       `json:"samples"`
	ModelVersion string    `json:"model_version,omitempty"`
}

// TrainingStatus combines the lock state with the last run.
type TrainingStatus struct {
	LockStatus
	LastRun *TrainingRun `json:"last_run,omitempty"`
}

// ModelStore persists the single active model record.
type ModelStore interface {
	// SaveModel replaces the stored record for m.ModelType.
	SaveModel(ctx context.Context, m *TrainedModel) error

	// LoadModel returns the active model, ErrModelNotFound when none exists,
	// or ErrModelKeyMismatch when only a legacy record exists.
	LoadModel(ctx context.Context) (*TrainedModel, error)
}

// SampleSource returns all devices tagged THREAT or FALSE_POSITIVE with their aggregates.
type SampleSource interface {
	LabeledStats(ctx context.Context) ([]TaggedStats, error)
}

// StatsSource supplies candidate devices and their aggregate statistics.
type StatsSource interface {
	// CandidateDevices returns up to limit identifiers in ascending order.
	CandidateDevices(ctx context.Context, limit int) ([]string, error)

	// DeviceStats returns nil, nil when the device has no observations.
	DeviceStats(ctx context.Context, bssid string) (*DeviceStats, error)
}

// ScoreWriter upserts one record per device identifier.
type ScoreWriter interface {
	UpsertScore(ctx context.Context, rec *ScoreRecord) error
}

// RuleScoreProvider returns a deterministic 0..100 score and diagnostic flags for a device.
type RuleScoreProvider interface {
	ScoreDevice(ctx context.Context, bssid string) (*RuleScore, error)
}
