// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"fmt"
	"math"
)

// Feature names in extractor order.
const (
	FeatureDistanceRangeKm   = "distance_range_km"
	FeatureUniqueDays        = "unique_days"
	FeatureObservationCount  = "observation_count"
	FeatureMaxSignal         = "max_signal"
	FeatureUniqueLocations   = "unique_locations"
	FeatureSeenBothLocations = "seen_both_locations"
)

const (
	// FeatureCount is the dimensionality of every feature vector and model.
	FeatureCount = 6

	// DefaultMaxSignal is the "no signal observed" floor in dBm.
	DefaultMaxSignal = -100.0

	DefaultHomeRadiusKm = 0.5
	DefaultAwayRadiusKm = 2.0
)

// Positions within a FeatureVector.
const (
	idxDistanceRangeKm = iota
	idxUniqueDays
	idxObservationCount
	idxMaxSignal
	idxUniqueLocations
	idxSeenBothLocations
)

// FeatureNames is the fixed extractor output ordering.
var FeatureNames = [FeatureCount]string{
	FeatureDistanceRangeKm,
	FeatureUniqueDays,
	FeatureObservationCount,
	FeatureMaxSignal,
	FeatureUniqueLocations,
	FeatureSeenBothLocations,
}

// FeatureVector holds one value per entry of FeatureNames.
type FeatureVector [FeatureCount]float64

// Get returns the value of the named feature.
// The boolean is false when the name is not one of FeatureNames.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range FeatureNames {
		if n == name {
			return v[i], true
		}
	}
	return 0, false
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, FeatureCount)
	for i, n := range FeatureNames {
		m[n] = v[i]
	}
	return m
}

// RawFeatures are the extractor inputs before defaults are applied.
// Nil pointers mean the value was not observed.
type RawFeatures struct {
	DistanceRangeKm  *float64 `json:"distance_range_km,omitempty"`
	UniqueDays       *float64 `json:"unique_days,omitempty"`
	ObservationCount *float64 `json:"observation_count,omitempty"`
	MaxSignal        *float64 `json:"max_signal,omitempty"`
	UniqueLocations  *float64 `json:"unique_locations,omitempty"`
	SeenAtHome       bool     `json:"seen_at_home"`
	SeenAwayFromHome bool     `json:"seen_away_from_home"`
}

// LabeledSample is one human-tagged device used for training.
type LabeledSample struct {
	BSSID string `json:"bssid,omitempty"`
	RawFeatures
	Tag Tag `json:"tag"`
}

// DeviceStats are the per-device aggregates read from the observation history.
type DeviceStats struct {
	BSSID            string `json:"bssid"`
	ObservationCount int64  `json:"observation_count"`
	UniqueDays       int64  `json:"unique_days"`
	UniqueLocations  int64  `json:"unique_locations"`

	// MaxSignal is the strongest signal seen in dBm, nil when no reading carried a signal.
	MaxSignal *float64 `json:"max_signal,omitempty"`

	// MaxDistanceKm approximates the span of the track as the great-circle
	// diagonal of the latitude/longitude bounding box of its observations.
	// It can overstate the distance between the two farthest observations.
	MaxDistanceKm *float64 `json:"max_distance_km,omitempty"`

	// DistanceFromHomeKm is the closest approach to the configured home point.
	DistanceFromHomeKm *float64 `json:"distance_from_home_km,omitempty"`

	// MaxDistanceFromHomeKm is the furthest observation from the home point.
	MaxDistanceFromHomeKm *float64 `json:"max_distance_from_home_km,omitempty"`
}

// Validate rejects negative counts and non-finite measurements.
func (s *DeviceStats) Validate() error {
	if s.ObservationCount < 0 || s.UniqueDays < 0 || s.UniqueLocations < 0 {
		return fmt.Errorf("%w: negative count", ErrInvalidStats)
	}
	for name, p := range map[string]*float64{
		"max_signal":                s.MaxSignal,
		"max_distance_km":           s.MaxDistanceKm,
		"distance_from_home_km":     s.DistanceFromHomeKm,
		"max_distance_from_home_km": s.MaxDistanceFromHomeKm,
	} {
		if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidStats, name)
		}
	}
	return nil
}

// FeatureExtractor derives feature vectors from samples and aggregate statistics.
type FeatureExtractor struct {
	// HomeRadiusKm is the distance within which a device counts as seen at home.
	HomeRadiusKm float64

	// AwayRadiusKm is the distance beyond which a device counts as seen away from home.
	AwayRadiusKm float64
}

// NewFeatureExtractor returns an extractor with the given radii, falling back to defaults
// for non-positive values.
func NewFeatureExtractor(homeRadiusKm, awayRadiusKm float64) FeatureExtractor {
	if homeRadiusKm <= 0 {
		homeRadiusKm = DefaultHomeRadiusKm
	}
	if awayRadiusKm <= 0 {
		awayRadiusKm = DefaultAwayRadiusKm
	}
	return FeatureExtractor{HomeRadiusKm: homeRadiusKm, AwayRadiusKm: awayRadiusKm}
}

// Extract produces the fixed-order feature vector. Missing numeric inputs become 0,
// except max_signal which becomes DefaultMaxSignal.
func (FeatureExtractor) Extract(raw RawFeatures) FeatureVector {
	var seenBoth float64
	if raw.SeenAtHome && raw.SeenAwayFromHome {
		seenBoth = 1
	}
	var v FeatureVector
	v[idxDistanceRangeKm] = valueOr(raw.DistanceRangeKm, 0)
	v[idxUniqueDays] = valueOr(raw.UniqueDays, 0)
	v[idxObservationCount] = valueOr(raw.ObservationCount, 0)
	v[idxMaxSignal] = valueOr(raw.MaxSignal, DefaultMaxSignal)
	v[idxUniqueLocations] = valueOr(raw.UniqueLocations, 0)
	v[idxSeenBothLocations] = seenBoth
	return v
}

// FromStats converts aggregate statistics into extractor inputs.
func (x FeatureExtractor) FromStats(s DeviceStats) RawFeatures {
	raw := RawFeatures{
		DistanceRangeKm:  s.MaxDistanceKm,
		UniqueDays:       float(s.UniqueDays),
		ObservationCount: float(s.ObservationCount),
		MaxSignal:        s.MaxSignal,
		UniqueLocations:  float(s.UniqueLocations),
	}
	if s.DistanceFromHomeKm != nil {
		raw.SeenAtHome = *s.DistanceFromHomeKm <= x.HomeRadiusKm
	}
	if s.MaxDistanceFromHomeKm != nil {
		raw.SeenAwayFromHome = *s.MaxDistanceFromHomeKm >= x.AwayRadiusKm
	}
	return raw
}

// Label builds a training sample from tagged statistics.
func (x FeatureExtractor) Label(t TaggedStats) LabeledSample {
	return LabeledSample{
		BSSID:       t.Stats.BSSID,
		RawFeatures: x.FromStats(t.Stats),
		Tag:         t.Tag,
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func float(n int64) *float64 {
	f := float64(n)
	return &f
}
