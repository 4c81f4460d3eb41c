// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

// Package threat implements the hybrid threat scoring core for observed wireless devices.
//
// A device's aggregate statistics flow through four stages:
//
//  1. FeatureExtractor derives a fixed six-dimensional raw feature vector.
//  2. The NormalizationTable stored with the active model maps each feature linearly onto [0,1]
//     (out-of-range values are not clamped).
//  3. The trained logistic-regression model turns the normalized vector into a probability.
//  4. Blend combines the rule-based score with the model output under an evidence gate.
//     The model can only raise a score, never lower it.
//
// The Trainer fits the model from human-labeled devices under a TrainingLock, and the Engine
// scores devices in batches, persisting one record per device through an idempotent upsert.
//
// # Shadow Mode
//
// When ScoreOptions.OverwriteFinal is false the hybrid score is computed and stored for analysis,
// but the authoritative final score remains the rule-based score.
//
// # Dependencies
//
// The package depends only on small interfaces (ModelStore, StatsSource, SampleSource, ScoreWriter,
// RuleScoreProvider, TrainingLock). The DuckDB implementations live in internal/store and the rule
// providers live in internal/rules.
package threat
