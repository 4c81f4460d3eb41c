// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shadowscore/internal/threat"
)

// BatchScorer runs one scoring batch.
type BatchScorer interface {
	ScoreAll(ctx context.Context, opts threat.ScoreOptions) (*threat.BatchResult, error)
}

// ScoringServiceConfig controls scheduled scoring.
type ScoringServiceConfig struct {
	Interval       time.Duration
	Limit          int
	OverwriteFinal bool
	RunOnStartup   bool
}

// ScoringService scores candidate devices on a schedule.
type ScoringService struct {
	scorer BatchScorer
	config ScoringServiceConfig
	logger zerolog.Logger
}

// NewScoringService creates a scoring scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScoringService(scorer BatchScorer, cfg ScoringServiceConfig, logger zerolog.Logger) *ScoringService {
	return &ScoringService{
		scorer: scorer,
		config: cfg,
		logger: logger.With().Str("service", "scoring").Logger(),
	}
}

// Serve runs until ctx is cancelled. Invalid options are returned at once since a
// restart cannot fix them.
func (s *ScoringService) Serve(ctx context.Context) error {
	opts := threat.ScoreOptions{Limit: s.config.Limit, OverwriteFinal: s.config.OverwriteFinal}
	if err := opts.Validate(); err != nil {
		return err
	}
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Int("limit", opts.Limit).
		Bool("overwrite_final", opts.OverwriteFinal).
		Msg("scoring service starting")

	if s.config.RunOnStartup {
		s.run(ctx, opts)
	}
	return every(ctx, s.config.Interval, func() { s.run(ctx, opts) })
}

func (s *ScoringService) run(ctx context.Context, opts threat.ScoreOptions) {
	start := time.Now()
	result, err := s.scorer.ScoreAll(ctx, opts)
	switch {
	case err == nil:
		s.logger.Info().
			Int("scored", result.Scored).
			Int("failed", result.Failed).
			Str("model_version", result.ModelVersion).
			Dur("duration", time.Since(start)).
			Msg("scheduled scoring complete")
	case errors.Is(err, threat.ErrModelNotFound):
		s.logger.Debug().Msg("no trained model yet, skipping scheduled scoring")
	case ctx.Err() != nil:
		// shutting down
	default:
		s.logger.Error().Err(err).Msg("scheduled scoring failed")
	}
}

func (s *ScoringService) String() string {
	return "scoring-service"
}
