// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/shadowscore/internal/logging"
	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
	"github.com/tomtom215/shadowscore/internal/validation"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Model         *ModelInfo            `json:"model"`
	ModelError    string                `json:"model_error,omitempty"`
	Tagged        store.TagCounts       `json:"tagged"`
	Training      threat.TrainingStatus `json:"training"`
	ScoredDevices int64                 `json:"scored_devices"`
}

// ModelInfo is the public metadata of the active model.
type ModelInfo struct {
	ModelType       string             `json:"model_type"`
	Version         string             `json:"version"`
	FeatureNames    []string           `json:"feature_names"`
	Coefficients    map[string]float64 `json:"coefficients"`
	Intercept       float64            `json:"intercept"`
	Normalization   string             `json:"normalization_version"`
	TrainingSamples int                `json:"training_samples"`
	ThreatCount     int                `json:"threat_count"`
	SafeCount       int                `json:"safe_count"`
	TrainedAt       time.Time          `json:"trained_at"`
}

func modelInfo(m *threat.TrainedModel) *ModelInfo {
	coefficients := make(map[string]float64, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		coefficients[name] = m.Coefficients[i]
	}
	return &ModelInfo{
		ModelType:       m.ModelType,
		Version:         m.Version,
		FeatureNames:    m.FeatureNames,
		Coefficients:    coefficients,
		Intercept:       m.Intercept,
		Normalization:   m.Normalization.Version,
		TrainingSamples: m.TrainingSamples,
		ThreatCount:     m.ThreatCount,
		SafeCount:       m.SafeCount,
		TrainedAt:       m.TrainedAt,
	}
}

// Train handles POST /train.
//
// 200 with {samples, threat_count, safe_count, model_version, duration_ms},
// 400 INSUFFICIENT_DATA, 409 TRAINING_IN_PROGRESS.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.trainer.Train(r.Context())
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	respondData(w, r, start, http.StatusOK, result)
}

// ScoreAll handles POST /score-all?limit=N&overwrite_final=bool.
//
// 200 with the batch summary, 400 MODEL_NOT_FOUND or VALIDATION_ERROR.
func (h *Handler) ScoreAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, verr := intQuery(r, "limit", h.opts.DefaultScoreLimit)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	overwrite, verr := boolQuery(r, "overwrite_final")
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	opts := threat.ScoreOptions{Limit: limit, OverwriteFinal: overwrite}
	if verr := validation.ValidateStruct(&opts); verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}

	result, err := h.scorer.ScoreAll(r.Context(), opts)
	if err != nil {
		if result != nil {
			logging.Ctx(r.Context()).Warn().
				Int("scored", result.Scored).
				Msg("scoring batch interrupted")
		}
		respondDomainError(w, r, start, err)
		return
	}
	respondData(w, r, start, http.StatusOK, result)
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var resp StatusResponse

	model, err := h.store.LoadModel(ctx)
	switch {
	case err == nil:
		resp.Model = modelInfo(model)
	case errors.Is(err, threat.ErrModelNotFound):
	case errors.Is(err, threat.ErrModelKeyMismatch), errors.Is(err, threat.ErrInvalidModel):
		resp.ModelError = err.Error()
	default:
		respondDomainError(w, r, start, err)
		return
	}

	if resp.Tagged, err = h.store.TagCounts(ctx); err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	if resp.Training, err = h.trainer.Status(ctx); err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	if resp.ScoredDevices, err = h.store.CountScores(ctx); err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	respondData(w, r, start, http.StatusOK, resp)
}
