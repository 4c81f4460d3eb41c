// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/tomtom215/shadowscore/internal/rules"
)

// Validate checks every section and returns the first error found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateLogging,
		c.validateScoring,
		c.validateTraining,
		c.validateRules,
		c.validateLock,
		c.Tracing.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	s := c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return errors.New("server.read_timeout and server.write_timeout must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", s.ShutdownTimeout)
	}
	if !s.RateLimitDisabled && (s.RateLimitRequests < 1 || s.RateLimitWindow <= 0) {
		return errors.New("server.rate_limit_requests and server.rate_limit_window must be positive unless rate limiting is disabled")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateLogging() error {
	opts := c.LoggingOptions()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) validateScoring() error {
	s := c.Scoring
	if s.DefaultLimit < 1 {
		return fmt.Errorf("scoring.default_limit must be positive, got %d", s.DefaultLimit)
	}
	if s.Home.Enabled {
		if !validCoordinate(s.Home.Latitude, 90) || !validCoordinate(s.Home.Longitude, 180) {
			return fmt.Errorf("scoring.home is not a valid coordinate: %v,%v", s.Home.Latitude, s.Home.Longitude)
		}
	}
	if s.Schedule.Enabled {
		if s.Schedule.Interval <= 0 {
			return fmt.Errorf("scoring.schedule.interval must be positive, got %v", s.Schedule.Interval)
		}
		if s.Schedule.Limit < 1 {
			return fmt.Errorf("scoring.schedule.limit must be positive, got %d", s.Schedule.Limit)
		}
	}
	return nil
}

// validateTraining delegates the hyperparameter and radius checks to the threat package.
func (c *Config) validateTraining() error {
	if c.Training.Interval < 0 {
		return fmt.Errorf("training.interval must not be negative, got %v", c.Training.Interval)
	}
	return c.ThreatConfig().Validate()
}

func (c *Config) validateRules() error {
	switch c.Rules.Provider {
	case rules.ProviderHeuristic:
		return nil
	case rules.ProviderRemote:
		u, err := url.Parse(c.Rules.Remote.BaseURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("rules.remote.base_url must be an absolute URL, got %q", c.Rules.Remote.BaseURL)
		}
		if c.Rules.Remote.Timeout <= 0 {
			return fmt.Errorf("rules.remote.timeout must be positive, got %v", c.Rules.Remote.Timeout)
		}
		if c.Rules.Remote.CacheTTL < 0 || c.Rules.Remote.CacheSize < 0 {
			return fmt.Errorf("rules.remote cache_ttl and cache_size must not be negative")
		}
		return nil
	default:
		return fmt.Errorf("rules.provider must be %q or %q, got %q",
			rules.ProviderHeuristic, rules.ProviderRemote, c.Rules.Provider)
	}
}

func (c *Config) validateLock() error {
	switch c.Lock.Backend {
	case LockBackendMemory:
		return nil
	case LockBackendRedis:
		if c.Lock.Redis.Addr == "" {
			return errors.New("lock.redis.addr is required for the redis backend")
		}
		if c.Lock.TTL <= 0 {
			return fmt.Errorf("lock.ttl must be positive, got %v", c.Lock.TTL)
		}
		return nil
	default:
		return fmt.Errorf("lock.backend must be %q or %q, got %q", LockBackendMemory, LockBackendRedis, c.Lock.Backend)
	}
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
