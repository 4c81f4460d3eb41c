// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shadowscore/config.yaml",
	"/etc/shadowscore/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from defaults, the config file and the environment,
// then validates it. Precedence: env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Scoring
	"scoring_default_limit":    "scoring.default_limit",
	"home_enabled":             "scoring.home.enabled",
	"home_latitude":            "scoring.home.latitude",
	"home_longitude":           "scoring.home.longitude",
	"home_radius_km":           "scoring.home_radius_km",
	"away_radius_km":           "scoring.away_radius_km",
	"scoring_schedule_enabled": "scoring.schedule.enabled",
	"scoring_interval":         "scoring.schedule.interval",
	"scoring_limit":            "scoring.schedule.limit",
	"scoring_overwrite_final":  "scoring.schedule.overwrite_final",
	"scoring_run_on_startup":   "scoring.schedule.run_on_startup",

	// Training
	"training_min_samples":   "training.min_samples",
	"training_iterations":    "training.iterations",
	"training_learning_rate": "training.learning_rate",
	"training_timeout":       "training.timeout",
	"training_interval":      "training.interval",
	"training_on_startup":    "training.on_startup",

	// Rule provider
	"rules_provider":            "rules.provider",
	"rules_url":                 "rules.remote.base_url",
	"rules_api_key":             "rules.remote.api_key",
	"rules_timeout":             "rules.remote.timeout",
	"rules_requests_per_second": "rules.remote.requests_per_second",
	"rules_burst":               "rules.remote.burst",
	"rules_cache_ttl":           "rules.remote.cache_ttl",
	"rules_cache_size":          "rules.remote.cache_size",

	// Training lock
	"lock_backend":   "lock.backend",
	"lock_key":       "lock.key",
	"lock_ttl":       "lock.ttl",
	"redis_addr":     "lock.redis.addr",
	"redis_password": "lock.redis.password",
	"redis_db":       "lock.redis.db",

	// Tracing
	"otel_enabled":      "tracing.enabled",
	"otel_endpoint":     "tracing.endpoint",
	"otel_insecure":     "tracing.insecure",
	"otel_sample_ratio": "tracing.sample_ratio",
	"otel_service_name": "tracing.service_name",
}

// envTransformFunc drops unmapped variables so the wider environment
// cannot leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
