// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/shadowscore/internal/metrics"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// Provider names used in configuration and metrics.
const (
	ProviderHeuristic = "heuristic"
	ProviderRemote    = "remote"
)

// Heuristic component names, also used as flag keys.
const (
	RuleFollowsHome    = "follows_home"
	RuleMultiLocation  = "multi_location"
	RulePersistent     = "persistent"
	RuleMobile         = "mobile"
	RuleCloseProximity = "close_proximity"
	RuleHighVolume     = "high_volume"
)

const maxRuleScore = 100

// Heuristic scores devices from their aggregate statistics.
type Heuristic struct {
	stats     threat.StatsSource
	extractor threat.FeatureExtractor
}

// NewHeuristic creates a heuristic provider reading statistics from stats.
func NewHeuristic(stats threat.StatsSource, extractor threat.FeatureExtractor) *Heuristic {
	return &Heuristic{stats: stats, extractor: extractor}
}

// ScoreDevice implements threat.RuleScoreProvider.
func (h *Heuristic) ScoreDevice(ctx context.Context, bssid string) (_ *threat.RuleScore, err error) {
	start := time.Now()
	defer func() { metrics.RecordRuleLookup(ProviderHeuristic, time.Since(start), err) }()

	stats, err := h.stats.DeviceStats(ctx, bssid)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for %s: %w", bssid, err)
	}
	if stats == nil {
		stats = &threat.DeviceStats{BSSID: bssid}
	}
	return h.Evaluate(stats), nil
}

// Evaluate applies the heuristic components to stats.
func (h *Heuristic) Evaluate(stats *threat.DeviceStats) *threat.RuleScore {
	raw := h.extractor.FromStats(*stats)
	components := make(map[string]float64)
	reasons := make([]string, 0, 6)

	add := func(name string, points float64) {
		if points <= 0 {
			return
		}
		components[name] = points
		reasons = append(reasons, name)
	}

	if raw.SeenAtHome && raw.SeenAwayFromHome {
		add(RuleFollowsHome, 30)
	}
	add(RuleMultiLocation, tiered(float64(stats.UniqueLocations), 5, 3))
	add(RulePersistent, tiered(float64(stats.UniqueDays), 7, 3))
	if stats.MaxDistanceKm != nil {
		add(RuleMobile, tiered(*stats.MaxDistanceKm, 5, 1))
	}
	if stats.MaxSignal != nil && *stats.MaxSignal >= -60 {
		add(RuleCloseProximity, 10)
	}
	if stats.ObservationCount >= 50 {
		add(RuleHighVolume, 10)
	}

	var total float64
	for _, p := range components {
		total += p
	}
	if total > maxRuleScore {
		total = maxRuleScore
	}

	return &threat.RuleScore{
		Score: total,
		Flags: map[string]any{
			"components":        components,
			"observation_count": stats.ObservationCount,
			"reasons":           reasons,
		},
	}
}

// tiered returns 20 at or above high, 10 at or above low, else 0.
func tiered(v, high, low float64) float64 {
	switch {
	case v >= high:
		return 20
	case v >= low:
		return 10
	default:
		return 0
	}
}
