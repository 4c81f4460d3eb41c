// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package config

import (
	"time"

	"github.com/tomtom215/shadowscore/internal/lease"
	"github.com/tomtom215/shadowscore/internal/logging"
	"github.com/tomtom215/shadowscore/internal/rules"
	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
	"github.com/tomtom215/shadowscore/internal/tracing"
)

// Lock backends.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Training TrainingConfig `koanf:"training"`
	Rules    rules.Config   `koanf:"rules"`
	Lock     LockConfig     `koanf:"lock"`
	Tracing  tracing.Config `koanf:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// Per-IP request budget for the API. The control endpoints share it.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads of 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ScoringConfig holds batch scoring and feature settings.
type ScoringConfig struct {
	// DefaultLimit applies when /score-all is called without limit.
	DefaultLimit int `koanf:"default_limit"`

	Home         HomeConfig `koanf:"home"`
	HomeRadiusKm float64    `koanf:"home_radius_km"`
	AwayRadiusKm float64    `koanf:"away_radius_km"`

	Schedule ScheduleConfig `koanf:"schedule"`
}

// HomeConfig is the reference point for home-proximity features.
type HomeConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
}

// ScheduleConfig drives periodic batch scoring.
type ScheduleConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Limit    int           `koanf:"limit"`
	// OverwriteFinal lets scheduled runs change final scores. Off means shadow mode.
	OverwriteFinal bool `koanf:"overwrite_final"`
	RunOnStartup   bool `koanf:"run_on_startup"`
}

// TrainingConfig holds trainer hyperparameters and scheduling.
type TrainingConfig struct {
	MinSamples   int           `koanf:"min_samples"`
	Iterations   int           `koanf:"iterations"`
	LearningRate float64       `koanf:"learning_rate"`
	Timeout      time.Duration `koanf:"timeout"`

	// Interval of 0 disables scheduled retraining.
	Interval  time.Duration `koanf:"interval"`
	OnStartup bool          `koanf:"on_startup"`

	Normalization NormalizationConfig `koanf:"normalization"`
}

// NormalizationConfig overrides the built-in bounds for newly trained models.
type NormalizationConfig struct {
	Version string                  `koanf:"version"`
	Bounds  map[string]threat.Bound `koanf:"bounds"`
}

// LockConfig selects the training lock backend.
type LockConfig struct {
	Backend string        `koanf:"backend"`
	Key     string        `koanf:"key"`
	TTL     time.Duration `koanf:"ttl"`
	Redis   RedisConfig   `koanf:"redis"`
}

// RedisConfig holds Redis connection settings for the lease lock.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      10 * time.Minute, // /score-all runs synchronously
			ShutdownTimeout:   30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/shadowscore.duckdb",
			MaxMemory: "2GB",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
		Scoring: ScoringConfig{
			DefaultLimit: 10000,
			HomeRadiusKm: threat.DefaultHomeRadiusKm,
			AwayRadiusKm: threat.DefaultAwayRadiusKm,
			Schedule: ScheduleConfig{
				Interval: time.Hour,
				Limit:    10000,
			},
		},
		Training: TrainingConfig{
			MinSamples:   10,
			Iterations:   1000,
			LearningRate: 0.01,
			Timeout:      5 * time.Minute,
		},
		Rules: rules.Config{
			Provider: rules.ProviderHeuristic,
			Remote: rules.RemoteConfig{
				Timeout:           5 * time.Second,
				RequestsPerSecond: 50,
				Burst:             10,
				Breaker:           rules.DefaultBreakerConfig(),
				CacheSize:         10000,
			},
		},
		Lock: LockConfig{
			Backend: LockBackendMemory,
			Key:     lease.DefaultKey,
			TTL:     lease.DefaultTTL,
			Redis:   RedisConfig{Addr: "127.0.0.1:6379"},
		},
		Tracing: tracing.Config{
			SampleRatio: 1.0,
			ServiceName: "shadowscore",
		},
	}
}

// LoggingOptions converts the logging section for logging.Init.
func (c *Config) LoggingOptions() logging.Config {
	opts := logging.DefaultConfig()
	opts.Level = c.Logging.Level
	opts.Format = c.Logging.Format
	opts.Caller = c.Logging.Caller
	return opts
}

// ThreatConfig converts the scoring and training sections for the threat package.
func (c *Config) ThreatConfig() *threat.Config {
	tc := threat.DefaultConfig()
	tc.Training = threat.TrainingConfig{
		MinSamples:   c.Training.MinSamples,
		Iterations:   c.Training.Iterations,
		LearningRate: c.Training.LearningRate,
		Timeout:      c.Training.Timeout,
	}
	tc.Features = threat.FeatureConfig{
		HomeRadiusKm: c.Scoring.HomeRadiusKm,
		AwayRadiusKm: c.Scoring.AwayRadiusKm,
	}
	if len(c.Training.Normalization.Bounds) > 0 {
		tc.Normalization = threat.NormalizationTable{
			Version: c.Training.Normalization.Version,
			Bounds:  make(map[string]threat.Bound, len(c.Training.Normalization.Bounds)),
		}
		for name, b := range c.Training.Normalization.Bounds {
			tc.Normalization.Bounds[name] = b
		}
	}
	return tc
}

// StoreOptions returns the store options implied by the scoring section.
func (c *Config) StoreOptions() []store.Option {
	if !c.Scoring.Home.Enabled {
		return nil
	}
	return []store.Option{store.WithHome(store.GeoPoint{
		Latitude:  c.Scoring.Home.Latitude,
		Longitude: c.Scoring.Home.Longitude,
	})}
}

// LeaseConfig converts the lock section for the Redis lease.
func (c *Config) LeaseConfig() lease.Config {
	return lease.Config{Key: c.Lock.Key, TTL: c.Lock.TTL}
}
