// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/shadowscore/internal/threat"
)

func ptr(v float64) *float64 { return &v }

type statsMap map[string]*threat.DeviceStats

func (m statsMap) CandidateDevices(context.Context, int) ([]string, error) { return nil, nil }

func (m statsMap) DeviceStats(_ context.Context, bssid string) (*threat.DeviceStats, error) {
	if bssid == "broken" {
		return nil, errors.New("db down")
	}
	return m[bssid], nil
}

func TestHeuristic_Evaluate(t *testing.T) {
	t.Parallel()
	h := NewHeuristic(statsMap{}, threat.NewFeatureExtractor(0.5, 2))

	tests := []struct {
		name    string
		stats   threat.DeviceStats
		want    float64
		reasons []string
	}{
		{
			name:    "empty device",
			stats:   threat.DeviceStats{},
			want:    0,
			reasons: []string{},
		},
		{
			name: "lower tiers",
			stats: threat.DeviceStats{
				ObservationCount: 10,
				UniqueDays:       3,
				UniqueLocations:  3,
				MaxDistanceKm:    ptr(1),
				MaxSignal:        ptr(-61),
			},
			want:    30,
			reasons: []string{RuleMultiLocation, RulePersistent, RuleMobile},
		},
		{
			name: "every component clamps to 100",
			stats: threat.DeviceStats{
				ObservationCount:      50,
				UniqueDays:            7,
				UniqueLocations:       5,
				MaxDistanceKm:         ptr(5),
				MaxSignal:             ptr(-60),
				DistanceFromHomeKm:    ptr(0.1),
				MaxDistanceFromHomeKm: ptr(8),
			},
			want: 100,
			reasons: []string{
				RuleFollowsHome, RuleMultiLocation, RulePersistent,
				RuleMobile, RuleCloseProximity, RuleHighVolume,
			},
		},
		{
			name: "seen at home only",
			stats: threat.DeviceStats{
				ObservationCount:      4,
				DistanceFromHomeKm:    ptr(0),
				MaxDistanceFromHomeKm: ptr(0.2),
			},
			want:    0,
			reasons: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := h.Evaluate(&tt.stats)
			if got.Score != tt.want {
				t.Errorf("Score = %v, want %v", got.Score, tt.want)
			}
			reasons, ok := got.Flags["reasons"].([]string)
			if !ok {
				t.Fatalf("reasons flag has type %T", got.Flags["reasons"])
			}
			if len(reasons) != len(tt.reasons) {
				t.Fatalf("reasons = %v, want %v", reasons, tt.reasons)
			}
			for i := range reasons {
				if reasons[i] != tt.reasons[i] {
					t.Errorf("reasons[%d] = %q, want %q", i, reasons[i], tt.reasons[i])
				}
			}
			if got.Flags["observation_count"] != tt.stats.ObservationCount {
				t.Errorf("observation_count = %v", got.Flags["observation_count"])
			}
		})
	}
}

func TestHeuristic_ScoreDevice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := NewHeuristic(statsMap{
		"dev": {BSSID: "dev", ObservationCount: 60, UniqueDays: 8},
	}, threat.NewFeatureExtractor(0, 0))

	got, err := h.ScoreDevice(ctx, "dev")
	if err != nil {
		t.Fatalf("ScoreDevice failed: %v", err)
	}
	if got.Score != 30 {
		t.Errorf("Score = %v, want 30", got.Score)
	}

	missing, err := h.ScoreDevice(ctx, "unknown")
	if err != nil {
		t.Fatalf("ScoreDevice failed: %v", err)
	}
	if missing.Score != 0 {
		t.Errorf("Score for unknown device = %v, want 0", missing.Score)
	}

	if _, err := h.ScoreDevice(ctx, "broken"); err == nil {
		t.Error("ScoreDevice did not return the stats error")
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	t.Parallel()
	x := threat.NewFeatureExtractor(0, 0)

	p, err := New(Config{}, statsMap{}, x)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := p.(*Heuristic); !ok {
		t.Errorf("default provider is %T, want *Heuristic", p)
	}

	p, err = New(Config{Provider: ProviderRemote, Remote: RemoteConfig{BaseURL: "http://rules.local"}}, nil, x)
	if err != nil {
		t.Fatalf("New remote failed: %v", err)
	}
	if _, ok := p.(*Remote); !ok {
		t.Errorf("remote provider is %T, want *Remote", p)
	}

	p, err = New(Config{Provider: ProviderRemote, Remote: RemoteConfig{BaseURL: "http://rules.local", CacheTTL: time.Minute}}, nil, x)
	if err != nil {
		t.Fatalf("New cached remote failed: %v", err)
	}
	if _, ok := p.(*Cached); !ok {
		t.Errorf("cached remote provider is %T, want *Cached", p)
	}

	if _, err := New(Config{Provider: ProviderRemote}, nil, x); err == nil {
		t.Error("New accepted a remote provider without a base URL")
	}
	if _, err := New(Config{Provider: "oracle"}, nil, x); err == nil {
		t.Error("New accepted an unknown provider")
	}
}
