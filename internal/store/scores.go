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

// ScoreFilter selects stored scores.
type ScoreFilter struct {
	// MinLevel keeps only scores at or above this level. Empty keeps all.
	MinLevel threat.ThreatLevel
	Limit    int
}

// UpsertScore writes the score for rec.BSSID. Repeating the write for the same device
// replaces the previous row.
func (s *DuckDBStore) UpsertScore(ctx context.Context, rec *threat.ScoreRecord) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "threat_scores", time.Since(start), err) }()

	flags := []byte("{}")
	if rec.RuleBasedFlags != nil {
		flags, err = json.Marshal(rec.RuleBasedFlags)
		if err != nil {
			return fmt.Errorf("failed to marshal rule flags: %w", err)
		}
	}

	query := `
		INSERT INTO threat_scores (
			bssid, ml_threat_score, ml_threat_probability, ml_primary_class,
			rule_based_score, rule_based_flags, evidence_weight, ml_boost,
			hybrid_threat_score, final_threat_score, final_threat_level,
			model_version, scored_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (bssid) DO UPDATE SET
			ml_threat_score = EXCLUDED.ml_threat_score,
			ml_threat_probability = EXCLUDED.ml_threat_probability,
			ml_primary_class = EXCLUDED.ml_primary_class,
			rule_based_score = EXCLUDED.rule_based_score,
			rule_based_flags = EXCLUDED.rule_based_flags,
			evidence_weight = EXCLUDED.evidence_weight,
			ml_boost = EXCLUDED.ml_boost,
			hybrid_threat_score = EXCLUDED.hybrid_threat_score,
			final_threat_score = EXCLUDED.final_threat_score,
			final_threat_level = EXCLUDED.final_threat_level,
			model_version = EXCLUDED.model_version,
			scored_at = EXCLUDED.scored_at
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.BSSID, rec.MLThreatScore, rec.MLThreatProbability, string(rec.MLPrimaryClass),
		rec.RuleBasedScore, string(flags), rec.EvidenceWeight, rec.MLBoost,
		rec.HybridThreatScore, rec.FinalThreatScore, string(rec.FinalThreatLevel),
		rec.ModelVersion, rec.ScoredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score for %s: %w", rec.BSSID, err)
	}
	return nil
}

const scoreColumns = `bssid, ml_threat_score, ml_threat_probability, ml_primary_class,
	rule_based_score, rule_based_flags, evidence_weight, ml_boost,
	hybrid_threat_score, final_threat_score, final_threat_level,
	model_version, scored_at`

// GetScore returns the stored score for bssid, or nil if the device has never been scored.
func (s *DuckDBStore) GetScore(ctx context.Context, bssid string) (*threat.ScoreRecord, error) {
	start := time.Now()
	row := s.db.QueryRowContext(ctx, `SELECT `+scoreColumns+` FROM threat_scores WHERE bssid = ?`, bssid)
	rec, err := scanScore(row)
	metrics.RecordDBQuery("select", "threat_scores", time.Since(start), ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score for %s: %w", bssid, err)
	}
	return rec, nil
}

// ListScores returns stored scores, highest final score first.
func (s *DuckDBStore) ListScores(ctx context.Context, filter ScoreFilter) ([]threat.ScoreRecord, error) {
	start := time.Now()

	var (
		conditions []string
		args       []any
	)
	if filter.MinLevel != "" {
		var allowed []string
		for _, lvl := range threat.Levels {
			if lvl.Rank() >= filter.MinLevel.Rank() {
				allowed = append(allowed, "?")
				args = append(args, string(lvl))
			}
		}
		conditions = append(conditions, "final_threat_level IN ("+strings.Join(allowed, ", ")+")")
	}

	query := `SELECT ` + scoreColumns + ` FROM threat_scores`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY final_threat_score DESC, bssid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("select", "threat_scores", time.Since(start), err)
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var out []threat.ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		out = append(out, *rec)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "threat_scores", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}
	return out, nil
}

// CountScores returns the number of scored devices.
func (s *DuckDBStore) CountScores(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threat_scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (*threat.ScoreRecord, error) {
	var (
		rec          threat.ScoreRecord
		class, level string
		flags        sql.NullString
	)
	err := row.Scan(
		&rec.BSSID, &rec.MLThreatScore, &rec.MLThreatProbability, &class,
		&rec.RuleBasedScore, &flags, &rec.EvidenceWeight, &rec.MLBoost,
		&rec.HybridThreatScore, &rec.FinalThreatScore, &level,
		&rec.ModelVersion, &rec.ScoredAt,
	)
	if err != nil {
		return nil, err
	}
	rec.MLPrimaryClass = threat.PrimaryClass(class)
	rec.FinalThreatLevel = threat.ThreatLevel(level)
	rec.ScoredAt = rec.ScoredAt.UTC()
	if flags.Valid && flags.String != "" {
		if err := json.Unmarshal([]byte(flags.String), &rec.RuleBasedFlags); err != nil {
			return nil, fmt.Errorf("failed to decode rule flags: %w", err)
		}
	}
	return &rec, nil
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
