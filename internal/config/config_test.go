// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shadowscore/internal/rules"
	"github.com/tomtom215/shadowscore/internal/threat"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Training.MinSamples != 10 || cfg.Training.Iterations != 1000 || cfg.Training.LearningRate != 0.01 {
		t.Errorf("training defaults = %+v", cfg.Training)
	}
	if cfg.Scoring.DefaultLimit != 10000 {
		t.Errorf("Scoring.DefaultLimit = %d, want 10000", cfg.Scoring.DefaultLimit)
	}
	if cfg.Lock.Backend != LockBackendMemory {
		t.Errorf("Lock.Backend = %q, want memory", cfg.Lock.Backend)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"rate limit", func(c *Config) { c.Server.RateLimitRequests = 0 }, "rate_limit"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging"},
		{"default limit", func(c *Config) { c.Scoring.DefaultLimit = 0 }, "scoring.default_limit"},
		{"home latitude", func(c *Config) {
			c.Scoring.Home = HomeConfig{Enabled: true, Latitude: 91}
		}, "scoring.home"},
		{"schedule interval", func(c *Config) {
			c.Scoring.Schedule.Enabled = true
			c.Scoring.Schedule.Interval = 0
		}, "scoring.schedule.interval"},
		{"learning rate", func(c *Config) { c.Training.LearningRate = 0 }, "learning_rate"},
		{"radii order", func(c *Config) { c.Scoring.AwayRadiusKm = 0.1 }, "away_radius_km"},
		{"rules provider", func(c *Config) { c.Rules.Provider = "oracle" }, "rules.provider"},
		{"remote url", func(c *Config) {
			c.Rules.Provider = rules.ProviderRemote
			c.Rules.Remote.BaseURL = "rules.internal"
		}, "rules.remote.base_url"},
		{"remote cache ttl", func(c *Config) {
			c.Rules.Provider = rules.ProviderRemote
			c.Rules.Remote.BaseURL = "http://rules.internal"
			c.Rules.Remote.CacheTTL = -time.Second
		}, "cache_ttl"},
		{"lock backend", func(c *Config) { c.Lock.Backend = "zookeeper" }, "lock.backend"},
		{"redis addr", func(c *Config) {
			c.Lock.Backend = LockBackendRedis
			c.Lock.Redis.Addr = ""
		}, "lock.redis.addr"},
		{"tracing endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestThreatConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Training.Iterations = 50
	cfg.Scoring.HomeRadiusKm = 1
	cfg.Scoring.AwayRadiusKm = 5

	tc := cfg.ThreatConfig()
	if tc.Training.Iterations != 50 {
		t.Errorf("Iterations = %d, want 50", tc.Training.Iterations)
	}
	if tc.Features.HomeRadiusKm != 1 || tc.Features.AwayRadiusKm != 5 {
		t.Errorf("Features = %+v", tc.Features)
	}
	if tc.Normalization.Version != threat.DefaultNormalizationVersion {
		t.Errorf("Normalization.Version = %q, want default", tc.Normalization.Version)
	}
}

func TestThreatConfig_NormalizationOverride(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	bounds := threat.DefaultNormalizationTable().Bounds
	bounds[threat.FeatureObservationCount] = threat.Bound{Min: 1, Max: 5000}
	cfg.Training.Normalization = NormalizationConfig{Version: "site-2026", Bounds: bounds}

	tc := cfg.ThreatConfig()
	if tc.Normalization.Version != "site-2026" {
		t.Errorf("Version = %q, want site-2026", tc.Normalization.Version)
	}
	if got := tc.Normalization.Bounds[threat.FeatureObservationCount].Max; got != 5000 {
		t.Errorf("observation_count max = %v, want 5000", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	// An incomplete table is rejected.
	delete(cfg.Training.Normalization.Bounds, threat.FeatureMaxSignal)
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing bound")
	}
}

func TestStoreOptions(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if opts := cfg.StoreOptions(); len(opts) != 0 {
		t.Errorf("StoreOptions() without home = %d options, want 0", len(opts))
	}
	cfg.Scoring.Home = HomeConfig{Enabled: true, Latitude: 52.37, Longitude: 4.89}
	if opts := cfg.StoreOptions(); len(opts) != 1 {
		t.Errorf("StoreOptions() with home = %d options, want 1", len(opts))
	}
}

func TestLeaseConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Lock.TTL = 10 * time.Minute
	lc := cfg.LeaseConfig()
	if lc.TTL != 10*time.Minute || lc.Key != cfg.Lock.Key {
		t.Errorf("LeaseConfig() = %+v", lc)
	}
}
