// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when training is attempted with too few labeled samples.
	ErrInsufficientData = errors.New("insufficient labeled samples")

	// ErrModelNotFound is returned when scoring is attempted before any model has been trained.
	ErrModelNotFound = errors.New("no trained model available")

	// ErrModelKeyMismatch is returned when only a model stored under a legacy key exists.
	ErrModelKeyMismatch = errors.New("model stored under legacy key")

	// ErrTrainingInProgress is returned when the training lock is already held.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNumericDegeneracy is returned when a fit produces non-finite weights.
	ErrNumericDegeneracy = errors.New("numerically degenerate model fit")

	// ErrInvalidLimit is returned for batch limits outside [1, MaxBatchLimit].
	ErrInvalidLimit = errors.New("invalid batch limit")

	// ErrDeviceNotFound is returned when a device has no observations to score.
	ErrDeviceNotFound = errors.New("device has no observations")

	// ErrInvalidStats is returned for malformed per-device aggregate statistics.
	ErrInvalidStats = errors.New("invalid device statistics")

	// ErrInvalidRuleScore is returned when a rule provider answers outside [0,100].
	ErrInvalidRuleScore = errors.New("invalid rule score")

	// ErrInvalidModel is returned when a stored model fails schema validation.
	ErrInvalidModel = errors.New("invalid model record")
)

// InsufficientDataError describes why a training set was rejected.
type InsufficientDataError struct {
	Have   int
	Need   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient labeled samples: %s (have %d, need %d)", e.Reason, e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient labeled samples: %d < %d", e.Have, e.Need)
}

// Is makes errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// DeviceScoringError wraps a failure to score a single device inside a batch.
// Batches log these and continue with the next device.
type DeviceScoringError struct {
	BSSID string
	Err   error
}

func (e *DeviceScoringError) Error() string {
	return fmt.Sprintf("score device %s: %v", e.BSSID, e.Err)
}

func (e *DeviceScoringError) Unwrap() error {
	return e.Err
}
