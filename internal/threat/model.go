// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ModelType is the storage key of the active model record.
const ModelType = "threat_logreg_v1"

// LegacyModelTypes are keys written by earlier releases. A record under one of these keys
// is never read as a model; its presence turns "no model" into ErrModelKeyMismatch.
var LegacyModelTypes = []string{"threat_detection", "threat_classifier"}

// TrainedModel is a fitted logistic-regression classifier together with the
// normalization bounds it is scored with. Records are replaced wholesale, never mutated.
type TrainedModel struct {
	ModelType       string             `json:"model_type"`
	Version         string             `json:"version"`
	Coefficients    []float64          `json:"coefficients"`
	Intercept       float64            `json:"intercept"`
	FeatureNames    []string           `json:"feature_names"`
	Normalization   NormalizationTable `json:"normalization"`
	TrainingSamples int                `json:"training_samples"`
	ThreatCount     int                `json:"threat_count"`
	SafeCount       int                `json:"safe_count"`
	Iterations      int                `json:"iterations"`
	LearningRate    float64            `json:"learning_rate"`
	TrainedAt       time.Time          `json:"trained_at"`
}

// Validate enforces the record schema: six coefficients aligned with six distinct
// feature names, finite parameters and a usable normalization table.
func (m *TrainedModel) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("%w: version is empty", ErrInvalidModel)
	}
	if len(m.Coefficients) != FeatureCount {
		return fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidModel, FeatureCount, len(m.Coefficients))
	}
	if len(m.FeatureNames) != len(m.Coefficients) {
		return fmt.Errorf("%w: %d feature names for %d coefficients", ErrInvalidModel, len(m.FeatureNames), len(m.Coefficients))
	}
	seen := make(map[string]struct{}, len(m.FeatureNames))
	for _, name := range m.FeatureNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty feature name", ErrInvalidModel)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature name %q", ErrInvalidModel, name)
		}
		seen[name] = struct{}{}
	}
	for i, c := range m.Coefficients {
		if !finite(c) {
			return fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	if !finite(m.Intercept) {
		return fmt.Errorf("%w: intercept is not finite", ErrInvalidModel)
	}
	if err := m.Normalization.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return nil
}

// WeightsByName maps each stored feature name to its coefficient.
func (m *TrainedModel) WeightsByName() map[string]float64 {
	w := make(map[string]float64, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		if i < len(m.Coefficients) {
			w[name] = m.Coefficients[i]
		}
	}
	return w
}

// UnresolvedFeatures lists stored feature names the extractor does not produce.
func (m *TrainedModel) UnresolvedFeatures() []string {
	var out []string
	for _, name := range m.FeatureNames {
		if _, ok := (FeatureVector{}).Get(name); !ok {
			out = append(out, name)
		}
	}
	return out
}

// Metadata returns the model description without its parameters.
func (m *TrainedModel) Metadata() ModelMetadata {
	return ModelMetadata{
		ModelType:            m.ModelType,
		Version:              m.Version,
		FeatureNames:         append([]string(nil), m.FeatureNames...),
		NormalizationVersion: m.Normalization.Version,
		TrainingSamples:      m.TrainingSamples,
		ThreatCount:          m.ThreatCount,
		SafeCount:            m.SafeCount,
		TrainedAt:            m.TrainedAt,
	}
}

// ModelMetadata is the public description of a stored model.
type ModelMetadata struct {
	ModelType            string    `json:"model_type"`
	Version              string    `json:"version"`
	FeatureNames         []string  `json:"feature_names"`
	NormalizationVersion string    `json:"normalization_version"`
	TrainingSamples      int       `json:"training_samples"`
	ThreatCount          int       `json:"threat_count"`
	SafeCount            int       `json:"safe_count"`
	TrainedAt            time.Time `json:"trained_at"`
}

// NewModelVersion formats a version string such as "v20260101120000-1a2b3c4d".
func NewModelVersion(at time.Time) string {
	return fmt.Sprintf("v%s-%s", at.UTC().Format("20060102150405"), uuid.New().String()[:8])
}

// linearModel is a model prepared for scoring: coefficients keyed by feature name.
type linearModel struct {
	version       string
	intercept     float64
	names         []string
	weights       map[string]float64
	normalization NormalizationTable
}

func newLinearModel(m *TrainedModel) *linearModel {
	return &linearModel{
		version:       m.Version,
		intercept:     m.Intercept,
		names:         append([]string(nil), m.FeatureNames...),
		weights:       m.WeightsByName(),
		normalization: m.Normalization,
	}
}

// logit computes intercept + Σ w[name] * x[name]. Names the vector does not carry contribute 0.
func (lm *linearModel) logit(normalized FeatureVector) float64 {
	z := lm.intercept
	for _, name := range lm.names {
		if x, ok := normalized.Get(name); ok {
			z += lm.weights[name] * x
		}
	}
	return z
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
