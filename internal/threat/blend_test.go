// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestProbability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		z    float64
		want float64
	}{
		{"zero", 0, 0.5},
		{"large positive clipped", 1e9, 1},
		{"large negative clipped", -1e9, 0},
		{"nan replaced", math.NaN(), NeutralProbability},
		{"ln 19", math.Log(19), 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Probability(tt.z)
			if math.Abs(got-tt.want) > eps {
				t.Errorf("Probability(%v) = %v, want %v", tt.z, got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("Probability(%v) is not finite", tt.z)
			}
		})
	}
}

func TestEvidenceWeightGate(t *testing.T) {
	t.Parallel()

	for obs := 0.0; obs <= 50; obs++ {
		for days := 0.0; days <= 10; days++ {
			w := EvidenceWeight(obs, days, 10)
			gated := obs < 3 || days < 2
			if gated && w != 0 {
				t.Fatalf("EvidenceWeight(%v, %v, 10) = %v, want 0", obs, days, w)
			}
			if w < 0 || w > 1 {
				t.Fatalf("EvidenceWeight(%v, %v, 10) = %v out of [0,1]", obs, days, w)
			}
		}
	}
}

func TestEvidenceWeightExample(t *testing.T) {
	t.Parallel()

	// min(1, ln(11)/ln(31)=0.698, 5/7=0.714, 3/5=0.6)
	got := EvidenceWeight(10, 5, 3)
	if math.Abs(got-0.6) > eps {
		t.Errorf("EvidenceWeight(10, 5, 3) = %v, want 0.6", got)
	}

	if got := EvidenceWeight(1000, 30, 20); got != 1 {
		t.Errorf("saturated evidence = %v, want 1", got)
	}
}

func TestConfidenceWeight(t *testing.T) {
	t.Parallel()

	if got := ConfidenceWeight(0.6, 95); got != 0.7 {
		t.Errorf("confident floor = %v, want 0.7", got)
	}
	if got := ConfidenceWeight(0.9, 95); got != 0.9 {
		t.Errorf("higher evidence kept = %v, want 0.9", got)
	}
	if got := ConfidenceWeight(0.2, 90); got != 0.2 {
		t.Errorf("ml score of exactly 90 is not confident, got %v", got)
	}
	if got := ConfidenceWeight(0, 99); got != 0.7 {
		t.Errorf("gated evidence still floored for a confident model, got %v", got)
	}
}

func TestBlendWorkedExample(t *testing.T) {
	t.Parallel()

	res := Blend(BlendInput{
		RuleScore:        20,
		Probability:      0.95,
		ObservationCount: 10,
		UniqueDays:       5,
		UniqueLocations:  3,
		OverwriteFinal:   true,
	})

	checks := []struct {
		name      string
		got, want float64
	}{
		{"ml score", res.MLScore, 95},
		{"evidence", res.EvidenceWeight, 0.6},
		{"confidence", res.ConfidenceWeight, 0.7},
		{"boost", res.MLBoost, 52.5},
		{"hybrid", res.HybridScore, 72.5},
		{"final", res.FinalScore, 72.5},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > eps {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if res.Level != LevelHigh {
		t.Errorf("level = %s, want HIGH", res.Level)
	}
	if res.Class != ClassThreat {
		t.Errorf("class = %s, want THREAT", res.Class)
	}
}

func TestBlendShadowModeKeepsRuleScore(t *testing.T) {
	t.Parallel()

	for _, p := range []float64{0, 0.1, 0.5, 0.91, 0.999, 1} {
		for _, rule := range []float64{0, 19.5, 45, 79.99, 100} {
			res := Blend(BlendInput{
				RuleScore:        rule,
				Probability:      p,
				ObservationCount: 200,
				UniqueDays:       20,
				UniqueLocations:  10,
			})
			if res.FinalScore != rule {
				t.Fatalf("shadow final = %v, want rule score %v", res.FinalScore, rule)
			}
			if res.Level != LevelFor(rule) {
				t.Fatalf("shadow level = %s, want %s", res.Level, LevelFor(rule))
			}
		}
	}
}

func TestBlendNeverLowersRuleScore(t *testing.T) {
	t.Parallel()

	for _, p := range []float64{0, 0.2, 0.5, 0.8, 0.95, 1} {
		for _, rule := range []float64{0, 10, 50, 90, 100} {
			for _, obs := range []float64{0, 3, 30, 3000} {
				res := Blend(BlendInput{
					RuleScore:        rule,
					Probability:      p,
					ObservationCount: obs,
					UniqueDays:       obs / 3,
					UniqueLocations:  obs / 5,
					OverwriteFinal:   true,
				})
				if res.HybridScore < rule {
					t.Fatalf("hybrid %v < rule %v (p=%v obs=%v)", res.HybridScore, rule, p, obs)
				}
				if res.MLBoost < 0 {
					t.Fatalf("negative boost %v", res.MLBoost)
				}
				if res.HybridScore > 100+eps {
					t.Fatalf("hybrid %v exceeds 100", res.HybridScore)
				}
			}
		}
	}
}
