// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import "testing"

func TestLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  ThreatLevel
	}{
		{0, LevelNone},
		{19.99, LevelNone},
		{20, LevelLow},
		{39.99, LevelLow},
		{40, LevelMedium},
		{59.99, LevelMedium},
		{60, LevelHigh},
		{79.99, LevelHigh},
		{80, LevelCritical},
		{100, LevelCritical},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want ThreatLevel
		ok   bool
	}{
		{"high", LevelHigh, true},
		{" CRITICAL ", LevelCritical, true},
		{"medium", LevelMedium, true},
		{"MED", LevelMedium, true},
		{"severe", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseLevel(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelRankOrdering(t *testing.T) {
	t.Parallel()

	for i := 1; i < len(Levels); i++ {
		if Levels[i].Rank() <= Levels[i-1].Rank() {
			t.Errorf("%s should rank above %s", Levels[i], Levels[i-1])
		}
	}
	if ThreatLevel("BOGUS").Rank() != -1 {
		t.Error("unknown level should rank -1")
	}
}

func TestClassFor(t *testing.T) {
	t.Parallel()

	if ClassFor(0.5) != ClassThreat {
		t.Error("0.5 should classify as THREAT")
	}
	if ClassFor(0.4999) != ClassLegitimate {
		t.Error("0.4999 should classify as LEGITIMATE")
	}
}
