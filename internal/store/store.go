// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

// Package store persists observations, device tags, trained models and threat scores in DuckDB.
//
// DuckDBStore implements the threat package's ModelStore, SampleSource, StatsSource and
// ScoreWriter interfaces. Every write is an independent statement; score writes are
// idempotent upserts keyed by device identifier.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/shadowscore/internal/logging"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OpenConfig controls how the DuckDB database is opened.
type OpenConfig struct {
	Path      string
	Threads   int
	MaxMemory string
}

// Open opens (creating if needed) the DuckDB database file.
func Open(cfg OpenConfig) (*sql.DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	path := cfg.Path
	if path != "" && path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s", path, threads, maxMemory)
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// DuckDBStore is the DuckDB-backed persistence layer.
type DuckDBStore struct {
	db   *sql.DB
	home *GeoPoint
}

// Option configures a DuckDBStore.
type Option func(*DuckDBStore)

// WithHome sets the reference point used for home-distance aggregates.
func WithHome(p GeoPoint) Option {
	return func(s *DuckDBStore) {
		s.home = &p
	}
}

// NewDuckDBStore creates a new DuckDB-backed store.
func NewDuckDBStore(db *sql.DB, opts ...Option) *DuckDBStore {
	s := &DuckDBStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Home returns the configured home point, or nil.
func (s *DuckDBStore) Home() *GeoPoint {
	return s.home
}

// InitSchema creates the tables and indexes if they don't exist.
func (s *DuckDBStore) InitSchema(ctx context.Context) error {
	queries := []string{
		// Raw sightings of wireless devices
		`CREATE TABLE IF NOT EXISTS observations (
			bssid TEXT NOT NULL,
			radio_type TEXT NOT NULL DEFAULT 'wifi',
			ssid TEXT,
			signal_dbm DOUBLE,
			latitude DOUBLE,
			longitude DOUBLE,
			observed_at TIMESTAMP NOT NULL,
			ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Human labels
		`CREATE TABLE IF NOT EXISTS device_tags (
			bssid TEXT PRIMARY KEY,
			tag TEXT NOT NULL,
			notes TEXT,
			tagged_at TIMESTAMP NOT NULL
		)`,

		// One row per model type, replaced wholesale on every training run
		`CREATE TABLE IF NOT EXISTS ml_model_config (
			model_type TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			coefficients TEXT NOT NULL,
			intercept DOUBLE NOT NULL,
			feature_names TEXT NOT NULL,
			normalization TEXT NOT NULL,
			training_samples INTEGER NOT NULL,
			threat_count INTEGER NOT NULL,
			safe_count INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			learning_rate DOUBLE NOT NULL,
			trained_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		// Latest score per device
		`CREATE TABLE IF NOT EXISTS threat_scores (
			bssid TEXT PRIMARY KEY,
			ml_threat_score DOUBLE NOT NULL,
			ml_threat_probability DOUBLE NOT NULL,
			ml_primary_class TEXT NOT NULL,
			rule_based_score DOUBLE NOT NULL,
			rule_based_flags TEXT,
			evidence_weight DOUBLE NOT NULL,
			ml_boost DOUBLE NOT NULL,
			hybrid_threat_score DOUBLE NOT NULL,
			final_threat_score DOUBLE NOT NULL,
			final_threat_level TEXT NOT NULL,
			model_version TEXT NOT NULL,
			scored_at TIMESTAMP NOT NULL
		)`,

		// Upserted tables carry no secondary indexes: DuckDB rejects ON CONFLICT updates
		// to indexed columns.
		`CREATE INDEX IF NOT EXISTS idx_observations_bssid ON observations(bssid)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_observed_at ON observations(observed_at)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}
	return nil
}

// Ping checks if the database connection is alive.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close checkpoints and closes the underlying connection.
func (s *DuckDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	return s.db.Close()
}
