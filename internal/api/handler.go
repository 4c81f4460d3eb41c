// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// Trainer runs and reports model training.
type Trainer interface {
	Train(ctx context.Context) (*threat.TrainingResult, error)
	Status(ctx context.Context) (threat.TrainingStatus, error)
}

// Scorer runs the hybrid scoring engine.
type Scorer interface {
	ScoreAll(ctx context.Context, opts threat.ScoreOptions) (*threat.BatchResult, error)
	ScoreDevice(ctx context.Context, bssid string, overwriteFinal bool) (*threat.ScoreRecord, error)
}

// Store is the persistence surface the handlers read and write.
type Store interface {
	threat.StatsSource
	Ping(ctx context.Context) error
	LoadModel(ctx context.Context) (*threat.TrainedModel, error)
	InsertObservations(ctx context.Context, obs []store.Observation) (int, error)
	SetTag(ctx context.Context, tag *store.DeviceTag) error
	GetTag(ctx context.Context, bssid string) (*store.DeviceTag, error)
	DeleteTag(ctx context.Context, bssid string) (bool, error)
	TagCounts(ctx context.Context) (store.TagCounts, error)
	GetScore(ctx context.Context, bssid string) (*threat.ScoreRecord, error)
	ListScores(ctx context.Context, filter store.ScoreFilter) ([]threat.ScoreRecord, error)
	CountScores(ctx context.Context) (int64, error)
}

// Options tune handler behaviour.
type Options struct {
	// DefaultScoreLimit applies to /score-all when limit is omitted.
	DefaultScoreLimit int
	// Version is reported by /health.
	Version string
}

// Handler serves the HTTP API.
type Handler struct {
	trainer   Trainer
	scorer    Scorer
	store     Store
	opts      Options
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(trainer Trainer, scorer Scorer, st Store, opts Options) (*Handler, error) {
	if trainer == nil || scorer == nil || st == nil {
		return nil, errors.New("api: trainer, scorer and store are required")
	}
	if opts.DefaultScoreLimit < 1 || opts.DefaultScoreLimit > threat.MaxBatchLimit {
		opts.DefaultScoreLimit = threat.MaxBatchLimit
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Handler{
		trainer:   trainer,
		scorer:    scorer,
		store:     st,
		opts:      opts,
		startTime: time.Now(),
	}, nil
}
