// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package rules

import (
	"fmt"

	"github.com/tomtom215/shadowscore/internal/threat"
)

// Config selects and configures the rule score provider.
type Config struct {
	Provider string       `koanf:"provider"`
	Remote   RemoteConfig `koanf:"remote"`
}

// New builds the configured provider. The heuristic provider reads from stats.
func New(cfg Config, stats threat.StatsSource, extractor threat.FeatureExtractor) (threat.RuleScoreProvider, error) {
	switch cfg.Provider {
	case "", ProviderHeuristic:
		return NewHeuristic(stats, extractor), nil
	case ProviderRemote:
		remote, err := NewRemote(cfg.Remote)
		if err != nil {
			return nil, err
		}
		if cfg.Remote.CacheTTL > 0 {
			return NewCached(remote, cfg.Remote.CacheSize, cfg.Remote.CacheTTL), nil
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown rule provider %q", cfg.Provider)
	}
}
