// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shadowscore/internal/metrics"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// SaveModel writes the model record, replacing any previous record under the same key.
func (s *DuckDBStore) SaveModel(ctx context.Context, m *threat.TrainedModel) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "ml_model_config", time.Since(start), err) }()

	if m == nil {
		return fmt.Errorf("%w: nil model", threat.ErrInvalidModel)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	modelType := m.ModelType
	if modelType == "" {
		modelType = threat.ModelType
	}

	coefficients, err := json.Marshal(m.Coefficients)
	if err != nil {
		return fmt.Errorf("failed to marshal coefficients: %w", err)
	}
	names, err := json.Marshal(m.FeatureNames)
	if err != nil {
		return fmt.Errorf("failed to marshal feature names: %w", err)
	}
	normalization, err := json.Marshal(m.Normalization)
	if err != nil {
		return fmt.Errorf("failed to marshal normalization: %w", err)
	}

	query := `
		INSERT INTO ml_model_config (
			model_type, version, coefficients, intercept, feature_names, normalization,
			training_samples, threat_count, safe_count, iterations, learning_rate,
			trained_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (model_type) DO UPDATE SET
			version = EXCLUDED.version,
			coefficients = EXCLUDED.coefficients,
			intercept = EXCLUDED.intercept,
			feature_names = EXCLUDED.feature_names,
			normalization = EXCLUDED.normalization,
			training_samples = EXCLUDED.training_samples,
			threat_count = EXCLUDED.threat_count,
			safe_count = EXCLUDED.safe_count,
			iterations = EXCLUDED.iterations,
			learning_rate = EXCLUDED.learning_rate,
			trained_at = EXCLUDED.trained_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		modelType, m.Version, string(coefficients), m.Intercept, string(names), string(normalization),
		m.TrainingSamples, m.ThreatCount, m.SafeCount, m.Iterations, m.LearningRate,
		m.TrainedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// LoadModel reads the active model record. It returns threat.ErrModelNotFound when none
// exists and threat.ErrModelKeyMismatch when only a record under a legacy key exists.
func (s *DuckDBStore) LoadModel(ctx context.Context) (m *threat.TrainedModel, err error) {
	start := time.Now()
	defer func() {
		var queryErr error
		if err != nil && !errors.Is(err, threat.ErrModelNotFound) && !errors.Is(err, threat.ErrModelKeyMismatch) {
			queryErr = err
		}
		metrics.RecordDBQuery("select", "ml_model_config", time.Since(start), queryErr)
	}()

	query := `
		SELECT model_type, version, coefficients, intercept, feature_names, normalization,
			training_samples, threat_count, safe_count, iterations, learning_rate, trained_at
		FROM ml_model_config
		WHERE model_type = ?
	`
	var row modelRow
	var coefficients, names, normalization string
	err = s.db.QueryRowContext(ctx, query, threat.ModelType).Scan(
		&row.ModelType, &row.Version, &coefficients, &row.Intercept, &names, &normalization,
		&row.TrainingSamples, &row.ThreatCount, &row.SafeCount, &row.Iterations, &row.LearningRate,
		&row.TrainedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missingModel(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	row.Coefficients = coefficients
	row.FeatureNames = names
	row.Normalization = normalization
	return decodeModel(&row)
}

// missingModel distinguishes "never trained" from "trained under a key this build does not read".
func (s *DuckDBStore) missingModel(ctx context.Context) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(threat.LegacyModelTypes)), ", ")
	args := make([]any, 0, len(threat.LegacyModelTypes))
	for _, k := range threat.LegacyModelTypes {
		args = append(args, k)
	}

	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT model_type FROM ml_model_config WHERE model_type IN (`+placeholders+`) ORDER BY model_type LIMIT 1`,
		args...,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return threat.ErrModelNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check legacy model keys: %w", err)
	}
	return fmt.Errorf("%w: found record under %q, expected %q", threat.ErrModelKeyMismatch, found, threat.ModelType)
}

type modelRow struct {
	ModelType       string
	Version         string
	Coefficients    string
	Intercept       float64
	FeatureNames    string
	Normalization   string
	TrainingSamples int
	ThreatCount     int
	SafeCount       int
	Iterations      int
	LearningRate    float64
	TrainedAt       time.Time
}

// decodeModel parses and validates a stored record. Malformed records are rejected
// rather than partially used.
func decodeModel(row *modelRow) (*threat.TrainedModel, error) {
	m := &threat.TrainedModel{
		ModelType:       row.ModelType,
		Version:         row.Version,
		Intercept:       row.Intercept,
		TrainingSamples: row.TrainingSamples,
		ThreatCount:     row.ThreatCount,
		SafeCount:       row.SafeCount,
		Iterations:      row.Iterations,
		LearningRate:    row.LearningRate,
		TrainedAt:       row.TrainedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Coefficients), &m.Coefficients); err != nil {
		return nil, fmt.Errorf("%w: coefficients: %v", threat.ErrInvalidModel, err)
	}
	if err := json.Unmarshal([]byte(row.FeatureNames), &m.FeatureNames); err != nil {
		return nil, fmt.Errorf("%w: feature names: %v", threat.ErrInvalidModel, err)
	}
	if err := json.Unmarshal([]byte(row.Normalization), &m.Normalization); err != nil {
		return nil, fmt.Errorf("%w: normalization: %v", threat.ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
