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
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tomtom215/shadowscore/internal/metrics"
)

// FitParams are the gradient-descent hyperparameters.
type FitParams struct {
	MinSamples   int
	Iterations   int
	LearningRate float64
}

// Fit trains a logistic-regression model on raw (unnormalized) features.
// The returned model carries coefficients, intercept, feature names and class counts;
// the caller assigns version, type, normalization and timestamps.
func Fit(samples []LabeledSample, x FeatureExtractor, p FitParams) (*TrainedModel, error) {
	if len(samples) < p.MinSamples {
		return nil, &InsufficientDataError{Have: len(samples), Need: p.MinSamples}
	}

	rows := make([]FeatureVector, len(samples))
	labels := make([]float64, len(samples))
	var threats, safe int
	for i, s := range samples {
		rows[i] = x.Extract(s.RawFeatures)
		switch s.Tag {
		case TagThreat:
			labels[i] = 1
			threats++
		case TagFalsePositive:
			safe++
		default:
			return nil, fmt.Errorf("sample %d (%s): tag %q is not a training label", i, s.BSSID, s.Tag)
		}
	}
	weights, bias := gradientDescent(rows, labels, p.Iterations, p.LearningRate)
	for _, w := range weights {
		if !finite(w) {
			return nil, ErrNumericDegeneracy
		}
	}
	if !finite(bias) {
		return nil, ErrNumericDegeneracy
	}

	return &TrainedModel{
		Coefficients:    weights[:],
		Intercept:       bias,
		FeatureNames:    append([]string(nil), FeatureNames[:]...),
		TrainingSamples: len(samples),
		ThreatCount:     threats,
		SafeCount:       safe,
		Iterations:      p.Iterations,
		LearningRate:    p.LearningRate,
	}, nil
}

// gradientDescent minimizes mean log-loss with full-batch updates from a zero start.
func gradientDescent(rows []FeatureVector, labels []float64, iterations int, lr float64) ([FeatureCount]float64, float64) {
	var w [FeatureCount]float64
	var b float64
	n := float64(len(rows))

	for iter := 0; iter < iterations; iter++ {
		var gradW [FeatureCount]float64
		var gradB float64
		for i, row := range rows {
			z := b
			for j := range row {
				z += w[j] * row[j]
			}
			diff := sigmoid(z) - labels[i]
			for j := range row {
				gradW[j] += diff * row[j]
			}
			gradB += diff
		}
		for j := range w {
			w[j] -= lr * gradW[j] / n
		}
		b -= lr * gradB / n
	}
	return w, b
}

// sigmoid is the clipped logistic function without the neutral substitution,
// so degenerate fits stay visible as NaN.
func sigmoid(z float64) float64 {
	if z > LogitClip {
		z = LogitClip
	} else if z < -LogitClip {
		z = -LogitClip
	}
	return 1 / (1 + math.Exp(-z))
}

// Trainer fits and persists models under a TrainingLock.
type Trainer struct {
	config    *Config
	logger    zerolog.Logger
	lock      TrainingLock
	samples   SampleSource
	models    ModelStore
	extractor FeatureExtractor
	now       func() time.Time

	mu      sync.RWMutex
	lastRun *TrainingRun
}

// NewTrainer creates a trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(cfg *Config, lock TrainingLock, samples SampleSource, models ModelStore, logger zerolog.Logger) (*Trainer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if lock == nil || samples == nil || models == nil {
		return nil, fmt.Errorf("trainer requires a lock, a sample source and a model store")
	}
	return &Trainer{
		config:    cfg,
		logger:    logger.With().Str("component", "trainer").Logger(),
		lock:      lock,
		samples:   samples,
		models:    models,
		extractor: cfg.Extractor(),
		now:       time.Now,
	}, nil
}

// Train runs one training attempt. It returns ErrTrainingInProgress immediately when
// another run holds the lock. On any failure the previously stored model is untouched.
func (t *Trainer) Train(ctx context.Context) (result *TrainingResult, err error) {
	acquired, err := t.lock.TryAcquire(ctx)
	if err != nil {
		metrics.RecordTraining(metrics.ResultError, 0)
		return nil, fmt.Errorf("acquire training lock: %w", err)
	}
	if !acquired {
		metrics.LockConflicts.Inc()
		metrics.RecordTraining(metrics.ResultConflict, 0)
		return nil, ErrTrainingInProgress
	}
	defer func() {
		if relErr := t.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			t.logger.Error().Err(relErr).Msg("failed to release training lock")
		}
	}()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "threat.train")
	defer span.End()

	start := t.now()
	run := &TrainingRun{StartedAt: start}
	defer func() {
		run.FinishedAt = t.now()
		run.Success = err == nil
		if err != nil {
			run.Error = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		t.setLastRun(run)
		metrics.RecordTraining(trainingOutcome(err), run.FinishedAt.Sub(start))
	}()

	trainCtx, cancel := context.WithTimeout(ctx, t.config.Training.Timeout)
	defer cancel()

	t.logger.Info().Msg("starting model training")

	tagged, err := t.samples.LabeledStats(trainCtx)
	if err != nil {
		return nil, fmt.Errorf("load labeled samples: %w", err)
	}
	samples := make([]LabeledSample, len(tagged))
	for i := range tagged {
		samples[i] = t.extractor.Label(tagged[i])
	}
	run.Samples = len(samples)

	model, err := Fit(samples, t.extractor, FitParams{
		MinSamples:   t.config.Training.MinSamples,
		Iterations:   t.config.Training.Iterations,
		LearningRate: t.config.Training.LearningRate,
	})
	if err != nil {
		return nil, err
	}
	if model.ThreatCount == 0 || model.SafeCount == 0 {
		t.logger.Warn().
			Int("threat_count", model.ThreatCount).
			Int("safe_count", model.SafeCount).
			Msg("training set has a single class; the model will score every device toward it")
	}

	trainedAt := t.now()
	model.ModelType = ModelType
	model.Version = NewModelVersion(trainedAt)
	model.Normalization = t.config.Normalization.Clone()
	model.TrainedAt = trainedAt

	if err := model.Validate(); err != nil {
		return nil, err
	}
	if err := t.models.SaveModel(trainCtx, model); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	run.ModelVersion = model.Version

	metrics.TrainingSamples.WithLabelValues(string(TagThreat)).Set(float64(model.ThreatCount))
	metrics.TrainingSamples.WithLabelValues(string(TagFalsePositive)).Set(float64(model.SafeCount))
	span.SetAttributes(
		attribute.Int("samples", model.TrainingSamples),
		attribute.String("model_version", model.Version),
	)

	duration := t.now().Sub(start)
	t.logger.Info().
		Str("version", model.Version).
		Int("samples", model.TrainingSamples).
		Int("threat_count", model.ThreatCount).
		Int("safe_count", model.SafeCount).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("model training complete")

	return &TrainingResult{
		Samples:      model.TrainingSamples,
		ThreatCount:  model.ThreatCount,
		SafeCount:    model.SafeCount,
		ModelVersion: model.Version,
		DurationMS:   duration.Milliseconds(),
	}, nil
}

// Status returns the lock state and the last training run.
func (t *Trainer) Status(ctx context.Context) (TrainingStatus, error) {
	ls, err := t.lock.Status(ctx)
	if err != nil {
		return TrainingStatus{}, fmt.Errorf("read training lock: %w", err)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := TrainingStatus{LockStatus: ls}
	if t.lastRun != nil {
		run := *t.lastRun
		status.LastRun = &run
	}
	return status, nil
}

func (t *Trainer) setLastRun(run *TrainingRun) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRun = run
}

func trainingOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrInsufficientData):
		return metrics.ResultInsufficientData
	case errors.Is(err, ErrNumericDegeneracy):
		return metrics.ResultDegenerate
	default:
		return metrics.ResultError
	}
}
