// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package rules

import (
	"context"
	"time"

	"github.com/tomtom215/shadowscore/internal/cache"
	"github.com/tomtom215/shadowscore/internal/metrics"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// Cached memoizes successful rule scores per BSSID for a fixed TTL.
// Errors are never cached. Returned scores are shared and must not be mutated.
type Cached struct {
	next  threat.RuleScoreProvider
	cache *cache.LRU[*threat.RuleScore]
}

// NewCached wraps next with an LRU cache of size entries.
func NewCached(next threat.RuleScoreProvider, size int, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.NewLRU[*threat.RuleScore](size, ttl),
	}
}

// ScoreDevice implements threat.RuleScoreProvider.
func (c *Cached) ScoreDevice(ctx context.Context, bssid string) (*threat.RuleScore, error) {
	if score, ok := c.cache.Get(bssid); ok {
		metrics.RecordRuleCache(true)
		return score, nil
	}
	metrics.RecordRuleCache(false)

	score, err := c.next.ScoreDevice(ctx, bssid)
	if err != nil {
		return nil, err
	}
	c.cache.Add(bssid, score)
	return score, nil
}

// Invalidate drops the cached score for bssid.
func (c *Cached) Invalidate(bssid string) {
	c.cache.Remove(bssid)
}
