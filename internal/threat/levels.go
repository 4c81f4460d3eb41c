// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import "strings"

// ThreatLevel is the bucket derived from a final score.
type ThreatLevel string

const (
	LevelNone     ThreatLevel = "NONE"
	LevelLow      ThreatLevel = "LOW"
	LevelMedium   ThreatLevel = "MED"
	LevelHigh     ThreatLevel = "HIGH"
	LevelCritical ThreatLevel = "CRITICAL"
)

// Level thresholds, inclusive on the low side.
const (
	CriticalThreshold = 80.0
	HighThreshold     = 60.0
	MediumThreshold   = 40.0
	LowThreshold      = 20.0
)

// Levels lists all levels from lowest to highest.
var Levels = []ThreatLevel{LevelNone, LevelLow, LevelMedium, LevelHigh, LevelCritical}

// LevelFor buckets a final score.
func LevelFor(score float64) ThreatLevel {
	switch {
	case score >= CriticalThreshold:
		return LevelCritical
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	case score >= LowThreshold:
		return LevelLow
	default:
		return LevelNone
	}
}

// Rank orders levels; unknown levels rank below NONE.
func (l ThreatLevel) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

// ParseLevel accepts level names case-insensitively, including "MEDIUM".
func ParseLevel(s string) (ThreatLevel, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "MEDIUM" {
		return LevelMedium, true
	}
	l := ThreatLevel(up)
	return l, l.Rank() >= 0
}

// PrimaryClass is the model's binary decision.
type PrimaryClass string

const (
	ClassThreat     PrimaryClass = "THREAT"
	ClassLegitimate PrimaryClass = "LEGITIMATE"
)

// ClassFor returns THREAT for probabilities of at least 0.5.
func ClassFor(probability float64) PrimaryClass {
	if probability >= 0.5 {
		return ClassThreat
	}
	return ClassLegitimate
}
