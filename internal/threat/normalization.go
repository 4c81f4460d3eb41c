// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"fmt"
	"math"
)

// DefaultNormalizationVersion identifies the built-in historical bounds.
const DefaultNormalizationVersion = "baseline-2024"

// Bound is the historical [Min, Max] range of one feature.
type Bound struct {
	Min float64 `json:"min" koanf:"min"`
	Max float64 `json:"max" koanf:"max"`
}

// NormalizationTable is a versioned set of per-feature bounds used at scoring time.
// The table is stored alongside the model coefficients it was fitted with.
type NormalizationTable struct {
	Version string           `json:"version"`
	Bounds  map[string]Bound `json:"bounds"`
}

// DefaultNormalizationTable returns the baseline bounds.
func DefaultNormalizationTable() NormalizationTable {
	return NormalizationTable{
		Version: DefaultNormalizationVersion,
		Bounds: map[string]Bound{
			FeatureDistanceRangeKm:   {Min: 0, Max: 9.29},
			FeatureUniqueDays:        {Min: 1, Max: 222},
			FeatureObservationCount:  {Min: 1, Max: 2260},
			FeatureMaxSignal:         {Min: -149, Max: 127},
			FeatureUniqueLocations:   {Min: 1, Max: 213},
			FeatureSeenBothLocations: {Min: 0, Max: 1},
		},
	}
}

// Validate checks that every extractor feature has finite, ordered bounds.
func (t NormalizationTable) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("normalization table version is required")
	}
	for _, name := range FeatureNames {
		b, ok := t.Bounds[name]
		if !ok {
			return fmt.Errorf("normalization bounds missing for %s", name)
		}
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
			return fmt.Errorf("normalization bounds for %s are not finite", name)
		}
		if b.Max < b.Min {
			return fmt.Errorf("normalization bounds for %s are inverted: %g > %g", name, b.Min, b.Max)
		}
	}
	return nil
}

// Normalize maps each feature linearly with (v-min)/(max-min).
// Values outside the bounds are not clamped. A zero-width bound maps to 0.
// The table must pass Validate; a missing bound is treated as zero-width.
func (t NormalizationTable) Normalize(v FeatureVector) FeatureVector {
	var out FeatureVector
	for i, name := range FeatureNames {
		b := t.Bounds[name]
		span := b.Max - b.Min
		if span == 0 {
			continue
		}
		out[i] = (v[i] - b.Min) / span
	}
	return out
}

// Clone returns a deep copy.
func (t NormalizationTable) Clone() NormalizationTable {
	bounds := make(map[string]Bound, len(t.Bounds))
	for k, b := range t.Bounds {
		bounds[k] = b
	}
	return NormalizationTable{Version: t.Version, Bounds: bounds}
}
