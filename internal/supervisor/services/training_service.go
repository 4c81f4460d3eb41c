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

// ModelTrainer runs one training attempt.
type ModelTrainer interface {
	Train(ctx context.Context) (*threat.TrainingResult, error)
}

// TrainingServiceConfig controls scheduled retraining.
type TrainingServiceConfig struct {
	// OnStartup trains once as soon as the service starts.
	OnStartup bool

	// Interval between scheduled runs. Zero disables the schedule.
	Interval time.Duration
}

// TrainingService retrains the threat model on a schedule.
type TrainingService struct {
	trainer ModelTrainer
	config  TrainingServiceConfig
	logger  zerolog.Logger
}

// NewTrainingService creates a training scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(trainer ModelTrainer, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "training").Logger(),
	}
}

// Serve runs until ctx is cancelled. Training failures are logged, never returned,
// so a bad training set does not cause restart loops.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("training service starting")

	if s.config.OnStartup {
		s.run(ctx)
	}
	return every(ctx, s.config.Interval, func() { s.run(ctx) })
}

func (s *TrainingService) run(ctx context.Context) {
	result, err := s.trainer.Train(ctx)
	switch {
	case err == nil:
		s.logger.Info().
			Str("version", result.ModelVersion).
			Int("samples", result.Samples).
			Msg("scheduled training complete")
	case errors.Is(err, threat.ErrTrainingInProgress):
		s.logger.Info().Msg("training already in progress, skipping scheduled run")
	case errors.Is(err, threat.ErrInsufficientData):
		s.logger.Warn().Err(err).Msg("not enough labeled devices to train")
	case ctx.Err() != nil:
		// shutting down
	default:
		s.logger.Error().Err(err).Msg("scheduled training failed")
	}
}

func (s *TrainingService) String() string {
	return "training-service"
}

// every calls fn on each tick of interval until ctx is done. With a non-positive
// interval it only waits for ctx.
func every(ctx context.Context, interval time.Duration, fn func()) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn()
		}
	}
}
