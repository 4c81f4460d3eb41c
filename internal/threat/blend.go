// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import "math"

const (
	// LogitClip bounds z before the logistic function.
	LogitClip = 500.0

	// NeutralProbability replaces a non-finite model output.
	NeutralProbability = 0.5

	// ConfidentMLScore is the ML score above which the evidence weight is floored.
	ConfidentMLScore = 90.0

	// ConfidenceFloor is the minimum weight applied to a confident model.
	ConfidenceFloor = 0.7

	minEvidenceObservations = 3
	minEvidenceDays         = 2
)

// Probability applies the logistic function to z clipped to [-LogitClip, LogitClip].
// A non-finite result is replaced by NeutralProbability.
func Probability(z float64) float64 {
	z = math.Max(-LogitClip, math.Min(LogitClip, z))
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return NeutralProbability
	}
	return p
}

// EvidenceWeight expresses how far observation volume, duration and breadth justify
// trusting the model. It is 0 below 3 observations or 2 distinct days.
func EvidenceWeight(observations, days, locations float64) float64 {
	if observations < minEvidenceObservations || days < minEvidenceDays {
		return 0
	}
	w := 1.0
	w = math.Min(w, math.Log(1+observations)/math.Log(31))
	w = math.Min(w, days/7)
	w = math.Min(w, locations/5)
	return math.Max(0, w)
}

// ConfidenceWeight floors the evidence weight at ConfidenceFloor when the model is confident.
func ConfidenceWeight(evidence, mlScore float64) float64 {
	if mlScore > ConfidentMLScore {
		return math.Max(evidence, ConfidenceFloor)
	}
	return evidence
}

// BlendInput carries everything the gate needs for one device.
type BlendInput struct {
	RuleScore        float64
	Probability      float64
	ObservationCount float64
	UniqueDays       float64
	UniqueLocations  float64
	OverwriteFinal   bool
}

// BlendResult is the full breakdown of a blended score.
type BlendResult struct {
	MLScore          float64
	EvidenceWeight   float64
	ConfidenceWeight float64
	MLBoost          float64
	HybridScore      float64
	FinalScore       float64
	Level            ThreatLevel
	Class            PrimaryClass
}

// Blend combines the rule score with the model probability. The boost is never
// negative, so the hybrid score is never below the rule score.
func Blend(in BlendInput) BlendResult {
	mlScore := in.Probability * 100
	evidence := EvidenceWeight(in.ObservationCount, in.UniqueDays, in.UniqueLocations)
	confidence := ConfidenceWeight(evidence, mlScore)
	boost := confidence * math.Max(0, mlScore-in.RuleScore)
	hybrid := in.RuleScore + boost

	final := in.RuleScore
	if in.OverwriteFinal {
		final = hybrid
	}

	return BlendResult{
		MLScore:          mlScore,
		EvidenceWeight:   evidence,
		ConfidenceWeight: confidence,
		MLBoost:          boost,
		HybridScore:      hybrid,
		FinalScore:       final,
		Level:            LevelFor(final),
		Class:            ClassFor(in.Probability),
	}
}
