// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

// labeledSet returns n samples alternating THREAT (mobile, persistent) and
// FALSE_POSITIVE (stationary, short-lived) devices.
func labeledSet(n int) []LabeledSample {
	samples := make([]LabeledSample, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = LabeledSample{
				BSSID: fmt.Sprintf("threat-%02d", i),
				RawFeatures: RawFeatures{
					DistanceRangeKm:  ptr(5 + float64(i%3)),
					UniqueDays:       ptr(12),
					ObservationCount: ptr(150),
					MaxSignal:        ptr(-50),
					UniqueLocations:  ptr(9),
					SeenAtHome:       true,
					SeenAwayFromHome: true,
				},
				Tag: TagThreat,
			}
			continue
		}
		samples[i] = LabeledSample{
			BSSID: fmt.Sprintf("safe-%02d", i),
			RawFeatures: RawFeatures{
				DistanceRangeKm:  ptr(0.05),
				UniqueDays:       ptr(1),
				ObservationCount: ptr(4),
				MaxSignal:        ptr(-85),
				UniqueLocations:  ptr(1),
				SeenAtHome:       true,
			},
			Tag: TagFalsePositive,
		}
	}
	return samples
}

func taggedSet(n int) []TaggedStats {
	out := make([]TaggedStats, n)
	for i := range out {
		s := DeviceStats{
			BSSID:            fmt.Sprintf("dev-%02d", i),
			ObservationCount: 4,
			UniqueDays:       1,
			UniqueLocations:  1,
			MaxSignal:        ptr(-85),
		}
		tag := TagFalsePositive
		if i%2 == 0 {
			s.ObservationCount, s.UniqueDays, s.UniqueLocations = 120, 10, 8
			s.MaxDistanceKm = ptr(6)
			s.DistanceFromHomeKm = ptr(0.1)
			s.MaxDistanceFromHomeKm = ptr(6)
			tag = TagThreat
		}
		out[i] = TaggedStats{Stats: s, Tag: tag}
	}
	return out
}

func defaultFitParams() FitParams {
	cfg := DefaultConfig()
	return FitParams{
		MinSamples:   cfg.Training.MinSamples,
		Iterations:   cfg.Training.Iterations,
		LearningRate: cfg.Training.LearningRate,
	}
}

func TestFitRequiresTenSamples(t *testing.T) {
	t.Parallel()

	x := NewFeatureExtractor(0, 0)

	_, err := Fit(labeledSet(9), x, defaultFitParams())
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Fit(9 samples) error = %v, want InsufficientDataError", err)
	}
	if insufficient.Have != 9 || insufficient.Need != 10 {
		t.Errorf("error detail = %+v", insufficient)
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Error("InsufficientDataError should match ErrInsufficientData")
	}

	model, err := Fit(labeledSet(10), x, defaultFitParams())
	if err != nil {
		t.Fatalf("Fit(10 samples): %v", err)
	}
	if len(model.Coefficients) != FeatureCount {
		t.Errorf("coefficients = %d, want %d", len(model.Coefficients), FeatureCount)
	}
	if len(model.FeatureNames) != FeatureCount {
		t.Errorf("feature names = %d, want %d", len(model.FeatureNames), FeatureCount)
	}
	if model.TrainingSamples != 10 || model.ThreatCount != 5 || model.SafeCount != 5 {
		t.Errorf("counts = %d/%d/%d", model.TrainingSamples, model.ThreatCount, model.SafeCount)
	}
}

func TestFitSeparatesClasses(t *testing.T) {
	t.Parallel()

	x := NewFeatureExtractor(0, 0)
	samples := labeledSet(20)
	model, err := Fit(samples, x, defaultFitParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	lm := &linearModel{
		intercept: model.Intercept,
		names:     model.FeatureNames,
		weights:   model.WeightsByName(),
	}
	for _, s := range samples {
		p := Probability(lm.logit(x.Extract(s.RawFeatures)))
		if s.Tag == TagThreat && p < 0.5 {
			t.Errorf("%s: threat probability %v < 0.5 on raw features", s.BSSID, p)
		}
		if s.Tag == TagFalsePositive && p >= 0.5 {
			t.Errorf("%s: safe probability %v >= 0.5 on raw features", s.BSSID, p)
		}
	}
}

func TestFitSingleClassSucceeds(t *testing.T) {
	t.Parallel()

	samples := labeledSet(10)
	for i := range samples {
		samples[i].Tag = TagThreat
	}
	model, err := Fit(samples, NewFeatureExtractor(0, 0), defaultFitParams())
	if err != nil {
		t.Fatalf("single-class fit failed: %v", err)
	}
	if len(model.Coefficients) != FeatureCount {
		t.Errorf("coefficients = %d, want %d", len(model.Coefficients), FeatureCount)
	}
	if model.ThreatCount != 10 || model.SafeCount != 0 {
		t.Errorf("counts = %d/%d, want 10/0", model.ThreatCount, model.SafeCount)
	}
	for i, w := range model.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Errorf("coefficient %d is not finite: %v", i, w)
		}
	}
}

func TestFitRejectsNonTrainingTag(t *testing.T) {
	t.Parallel()

	samples := labeledSet(12)
	samples[3].Tag = TagInvestigate
	if _, err := Fit(samples, NewFeatureExtractor(0, 0), defaultFitParams()); err == nil {
		t.Fatal("expected error for INVESTIGATE sample")
	}
}

func TestFitNumericDegeneracy(t *testing.T) {
	t.Parallel()

	samples := labeledSet(12)
	samples[0].DistanceRangeKm = ptr(math.Inf(1))

	_, err := Fit(samples, NewFeatureExtractor(0, 0), defaultFitParams())
	if !errors.Is(err, ErrNumericDegeneracy) {
		t.Fatalf("Fit error = %v, want ErrNumericDegeneracy", err)
	}
}

func TestFitIsDeterministic(t *testing.T) {
	t.Parallel()

	x := NewFeatureExtractor(0, 0)
	a, err := Fit(labeledSet(14), x, defaultFitParams())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fit(labeledSet(14), x, defaultFitParams())
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Coefficients {
		if a.Coefficients[i] != b.Coefficients[i] {
			t.Fatalf("coefficient %d differs: %v vs %v", i, a.Coefficients[i], b.Coefficients[i])
		}
	}
	if a.Intercept != b.Intercept {
		t.Fatalf("intercept differs: %v vs %v", a.Intercept, b.Intercept)
	}
}

func newTestTrainer(t *testing.T, lock TrainingLock, samples SampleSource, models ModelStore) *Trainer {
	t.Helper()
	tr, err := NewTrainer(DefaultConfig(), lock, samples, models, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	return tr
}

func TestTrainerTrainPersistsModel(t *testing.T) {
	t.Parallel()

	lock := NewMemoryLock()
	store := &memModelStore{}
	tr := newTestTrainer(t, lock, &memSamples{tagged: taggedSet(10)}, store)

	res, err := tr.Train(context.Background())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Samples != 10 || res.ThreatCount != 5 || res.SafeCount != 5 {
		t.Errorf("result = %+v", res)
	}
	if store.saves != 1 || store.model == nil {
		t.Fatalf("model not saved: saves=%d", store.saves)
	}
	if store.model.ModelType != ModelType || store.model.Version != res.ModelVersion {
		t.Errorf("stored model = %s/%s, result version %s", store.model.ModelType, store.model.Version, res.ModelVersion)
	}
	if store.model.Normalization.Version != DefaultNormalizationVersion {
		t.Errorf("normalization not co-versioned: %q", store.model.Normalization.Version)
	}
	if lock.State().Locked {
		t.Error("lock must be released after a successful run")
	}

	status, err := tr.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.LastRun == nil || !status.LastRun.Success || status.LastRun.ModelVersion != res.ModelVersion {
		t.Errorf("last run = %+v", status.LastRun)
	}
}

func TestTrainerInsufficientDataReleasesLock(t *testing.T) {
	t.Parallel()

	lock := NewMemoryLock()
	store := &memModelStore{model: validModel()}
	tr := newTestTrainer(t, lock, &memSamples{tagged: taggedSet(9)}, store)

	_, err := tr.Train(context.Background())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Train error = %v, want ErrInsufficientData", err)
	}
	if lock.State().Locked {
		t.Error("lock must be released after a failed run")
	}
	if store.saves != 0 || store.model.Version != "v1" {
		t.Error("failed training must not replace the stored model")
	}

	status, _ := tr.Status(context.Background())
	if status.LastRun == nil || status.LastRun.Success || status.LastRun.Error == "" {
		t.Errorf("last run = %+v", status.LastRun)
	}
}

func TestTrainerLockConflict(t *testing.T) {
	t.Parallel()

	lock := &heldLock{}
	store := &memModelStore{}
	tr := newTestTrainer(t, lock, &memSamples{tagged: taggedSet(10)}, store)

	_, err := tr.Train(context.Background())
	if !errors.Is(err, ErrTrainingInProgress) {
		t.Fatalf("Train error = %v, want ErrTrainingInProgress", err)
	}
	if lock.releases != 0 {
		t.Error("a rejected attempt must not release a lock it does not hold")
	}
	if store.saves != 0 {
		t.Error("a rejected attempt must not save a model")
	}
}

func TestTrainerSecondAttemptWhileLocked(t *testing.T) {
	t.Parallel()

	lock := NewMemoryLock()
	if !lock.Acquire() {
		t.Fatal("pre-acquire failed")
	}
	tr := newTestTrainer(t, lock, &memSamples{tagged: taggedSet(10)}, &memModelStore{})

	if _, err := tr.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Fatalf("Train error = %v, want ErrTrainingInProgress", err)
	}
	if !lock.State().Locked {
		t.Error("the holder's lock must remain held")
	}

	lock.Unlock()
	if _, err := tr.Train(context.Background()); err != nil {
		t.Fatalf("Train after release: %v", err)
	}
}

func TestTrainerSaveFailure(t *testing.T) {
	t.Parallel()

	lock := NewMemoryLock()
	store := &memModelStore{saveErr: errors.New("disk full")}
	tr := newTestTrainer(t, lock, &memSamples{tagged: taggedSet(10)}, store)

	if _, err := tr.Train(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if lock.State().Locked {
		t.Error("lock must be released after a save failure")
	}
}

func TestNewTrainerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewTrainer(nil, nil, &memSamples{}, &memModelStore{}, zerolog.Nop()); err == nil {
		t.Error("expected error for nil lock")
	}
	cfg := DefaultConfig()
	cfg.Training.Iterations = 0
	if _, err := NewTrainer(cfg, NewMemoryLock(), &memSamples{}, &memModelStore{}, zerolog.Nop()); err == nil {
		t.Error("expected error for zero iterations")
	}
}
