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
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tomtom215/shadowscore/internal/metrics"
)

const tracerName = "github.com/tomtom215/shadowscore/internal/threat"

// Dependencies are the collaborators of the scoring Engine.
type Dependencies struct {
	Models ModelStore
	Stats  StatsSource
	Rules  RuleScoreProvider
	Scores ScoreWriter
}

// Engine scores devices with the hybrid rule/model formula.
// Batches are not mutually exclusive with each other or with training: each batch
// uses whichever model version was stored when it started.
type Engine struct {
	logger    zerolog.Logger
	deps      Dependencies
	extractor FeatureExtractor
	now       func() time.Time
}

// NewEngine creates a scoring engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Models == nil || deps.Stats == nil || deps.Rules == nil || deps.Scores == nil {
		return nil, fmt.Errorf("engine requires model store, stats source, rule provider and score writer")
	}
	return &Engine{
		logger:    logger.With().Str("component", "scoring").Logger(),
		deps:      deps,
		extractor: cfg.Extractor(),
		now:       time.Now,
	}, nil
}

// ScoreAll scores up to opts.Limit devices in ascending identifier order and persists
// one record per device. A device that fails is logged and skipped. The batch aborts only
// when the options are invalid, no model exists, the candidate list cannot be read, or ctx
// is cancelled (in which case the partial result is returned with the context error).
func (e *Engine) ScoreAll(ctx context.Context, opts ScoreOptions) (*BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "threat.score_all")
	defer span.End()
	span.SetAttributes(
		attribute.Int("limit", opts.Limit),
		attribute.Bool("overwrite_final", opts.OverwriteFinal),
	)

	start := e.now()
	mode := modeLabel(opts.OverwriteFinal)

	model, err := e.loadModel(ctx)
	if err != nil {
		metrics.RecordScoringBatch(mode, metrics.ResultError, e.now().Sub(start))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ids, err := e.deps.Stats.CandidateDevices(ctx, opts.Limit)
	if err != nil {
		metrics.RecordScoringBatch(mode, metrics.ResultError, e.now().Sub(start))
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list candidate devices: %w", err)
	}
	sort.Strings(ids)

	result := &BatchResult{
		ModelVersion:   model.version,
		OverwriteFinal: opts.OverwriteFinal,
		Levels:         make(map[ThreatLevel]int, len(Levels)),
	}

	e.logger.Info().
		Int("candidates", len(ids)).
		Str("model_version", model.version).
		Bool("overwrite_final", opts.OverwriteFinal).
		Msg("starting scoring batch")

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.DurationMS = e.now().Sub(start).Milliseconds()
			metrics.RecordScoringBatch(mode, metrics.ResultCancelled, e.now().Sub(start))
			return result, err
		}

		rec, err := e.scoreOne(ctx, model, id, opts.OverwriteFinal)
		if err != nil {
			result.Failed++
			if len(result.FailedDevices) < maxReportedFailures {
				result.FailedDevices = append(result.FailedDevices, id)
			}
			metrics.DevicesScored.WithLabelValues(metrics.ResultError).Inc()
			e.logger.Warn().Err(err).Str("bssid", id).Msg("skipping device")
			continue
		}
		result.Scored++
		result.Levels[rec.FinalThreatLevel]++
		metrics.DevicesScored.WithLabelValues(metrics.ResultSuccess).Inc()
		metrics.ThreatLevels.WithLabelValues(string(rec.FinalThreatLevel)).Inc()
	}

	elapsed := e.now().Sub(start)
	result.DurationMS = elapsed.Milliseconds()
	metrics.RecordScoringBatch(mode, metrics.ResultSuccess, elapsed)
	span.SetAttributes(attribute.Int("scored", result.Scored), attribute.Int("failed", result.Failed))

	e.logger.Info().
		Int("scored", result.Scored).
		Int("failed", result.Failed).
		Int64("duration_ms", result.DurationMS).
		Msg("scoring batch complete")

	return result, nil
}

// ScoreDevice scores and persists a single device with the current model.
func (e *Engine) ScoreDevice(ctx context.Context, bssid string, overwriteFinal bool) (*ScoreRecord, error) {
	model, err := e.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := e.scoreOne(ctx, model, bssid, overwriteFinal)
	if err != nil {
		return nil, err
	}
	metrics.DevicesScored.WithLabelValues(metrics.ResultSuccess).Inc()
	return rec, nil
}

func (e *Engine) loadModel(ctx context.Context) (*linearModel, error) {
	m, err := e.deps.Models.LoadModel(ctx)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrModelKeyMismatch) || errors.Is(err, ErrInvalidModel) {
			return nil, err
		}
		return nil, fmt.Errorf("load model: %w", err)
	}
	if m == nil {
		return nil, ErrModelNotFound
	}
	if unresolved := m.UnresolvedFeatures(); len(unresolved) > 0 {
		e.logger.Warn().
			Strs("features", unresolved).
			Str("model_version", m.Version).
			Msg("model references features the extractor does not produce; they contribute 0")
	}
	return newLinearModel(m), nil
}

// scoreOne runs the full pipeline for one device. Errors are wrapped in DeviceScoringError.
func (e *Engine) scoreOne(ctx context.Context, model *linearModel, bssid string, overwriteFinal bool) (*ScoreRecord, error) {
	fail := func(err error) (*ScoreRecord, error) {
		return nil, &DeviceScoringError{BSSID: bssid, Err: err}
	}

	stats, err := e.deps.Stats.DeviceStats(ctx, bssid)
	if err != nil {
		return fail(fmt.Errorf("read stats: %w", err))
	}
	if stats == nil {
		return fail(ErrDeviceNotFound)
	}
	if err := stats.Validate(); err != nil {
		return fail(err)
	}

	rule, err := e.deps.Rules.ScoreDevice(ctx, bssid)
	if err != nil {
		return fail(fmt.Errorf("rule score: %w", err))
	}
	if rule == nil || math.IsNaN(rule.Score) || rule.Score < 0 || rule.Score > 100 {
		return fail(ErrInvalidRuleScore)
	}

	raw := e.extractor.Extract(e.extractor.FromStats(*stats))
	normalized := model.normalization.Normalize(raw)
	probability := Probability(model.logit(normalized))

	blend := Blend(BlendInput{
		RuleScore:        rule.Score,
		Probability:      probability,
		ObservationCount: raw[idxObservationCount],
		UniqueDays:       raw[idxUniqueDays],
		UniqueLocations:  raw[idxUniqueLocations],
		OverwriteFinal:   overwriteFinal,
	})

	rec := &ScoreRecord{
		BSSID:               bssid,
		MLThreatScore:       blend.MLScore,
		MLThreatProbability: probability,
		MLPrimaryClass:      blend.Class,
		RuleBasedScore:      rule.Score,
		RuleBasedFlags:      rule.Flags,
		EvidenceWeight:      blend.EvidenceWeight,
		MLBoost:             blend.MLBoost,
		HybridThreatScore:   blend.HybridScore,
		FinalThreatScore:    blend.FinalScore,
		FinalThreatLevel:    blend.Level,
		ModelVersion:        model.version,
		ScoredAt:            e.now().UTC(),
	}
	if err := e.deps.Scores.UpsertScore(ctx, rec); err != nil {
		return fail(fmt.Errorf("persist score: %w", err))
	}
	return rec, nil
}

func modeLabel(overwrite bool) string {
	if overwrite {
		return "overwrite"
	}
	return "shadow"
}
