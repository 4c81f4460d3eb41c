// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"fmt"
	"time"
)

// Config contains the tunables of the scoring core.
type Config struct {
	// Training contains the trainer hyperparameters.
	Training TrainingConfig `json:"training"`

	// Features contains the home-proximity radii used by the extractor.
	Features FeatureConfig `json:"features"`

	// Normalization is written into every newly trained model.
	Normalization NormalizationTable `json:"normalization"`
}

// TrainingConfig holds the logistic-regression hyperparameters.
type TrainingConfig struct {
	// MinSamples is the minimum number of labeled devices. Default: 10
	MinSamples int `json:"min_samples"`

	// Iterations of batch gradient descent. Default: 1000
	Iterations int `json:"iterations"`

	// LearningRate of gradient descent. Default: 0.01
	LearningRate float64 `json:"learning_rate"`

	// Timeout bounds one training run including sample loading and persistence.
	Timeout time.Duration `json:"timeout"`
}

// FeatureConfig holds the extractor radii in kilometres.
type FeatureConfig struct {
	HomeRadiusKm float64 `json:"home_radius_km"`
	AwayRadiusKm float64 `json:"away_radius_km"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Training: TrainingConfig{
			MinSamples:   10,
			Iterations:   1000,
			LearningRate: 0.01,
			Timeout:      5 * time.Minute,
		},
		Features: FeatureConfig{
			HomeRadiusKm: DefaultHomeRadiusKm,
			AwayRadiusKm: DefaultAwayRadiusKm,
		},
		Normalization: DefaultNormalizationTable(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Training.MinSamples < 1 {
		return fmt.Errorf("training.min_samples must be positive, got %d", c.Training.MinSamples)
	}
	if c.Training.Iterations < 1 {
		return fmt.Errorf("training.iterations must be positive, got %d", c.Training.Iterations)
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("training.learning_rate must be positive, got %f", c.Training.LearningRate)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}
	if c.Features.HomeRadiusKm <= 0 {
		return fmt.Errorf("features.home_radius_km must be positive, got %f", c.Features.HomeRadiusKm)
	}
	if c.Features.AwayRadiusKm < c.Features.HomeRadiusKm {
		return fmt.Errorf("features.away_radius_km must be >= home_radius_km, got %f < %f",
			c.Features.AwayRadiusKm, c.Features.HomeRadiusKm)
	}
	if err := c.Normalization.Validate(); err != nil {
		return fmt.Errorf("normalization: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		Training:      c.Training,
		Features:      c.Features,
		Normalization: c.Normalization.Clone(),
	}
}

// Extractor builds a FeatureExtractor from the configured radii.
func (c *Config) Extractor() FeatureExtractor {
	return NewFeatureExtractor(c.Features.HomeRadiusKm, c.Features.AwayRadiusKm)
}
