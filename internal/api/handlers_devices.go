// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/shadowscore/internal/logging"
	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
	"github.com/tomtom215/shadowscore/internal/validation"
)

// ObservationBatch is the body of POST /api/v1/observations.
type ObservationBatch struct {
	Observations []store.Observation `json:"observations" validate:"required,min=1,max=10000,dive"`
}

// TagRequest is the body of PUT /api/v1/devices/{bssid}/tag.
type TagRequest struct {
	Tag   threat.Tag `json:"tag" validate:"required,oneof=THREAT FALSE_POSITIVE INVESTIGATE"`
	Notes string     `json:"notes" validate:"max=1000"`
}

// IngestObservations handles POST /api/v1/observations.
func (h *Handler) IngestObservations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var batch ObservationBatch
	if err := decodeJSON(w, r, &batch); err != nil {
		respondError(w, r, start, http.StatusBadRequest, &APIError{Code: ErrCodeValidation, Message: err.Error()}, nil)
		return
	}
	if verr := validation.ValidateStruct(&batch); verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}

	n, err := h.store.InsertObservations(r.Context(), batch.Observations)
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	logging.Ctx(r.Context()).Debug().Int("count", n).Msg("observations ingested")
	respondData(w, r, start, http.StatusCreated, map[string]int{"inserted": n})
}

// SetTag handles PUT /api/v1/devices/{bssid}/tag.
func (h *Handler) SetTag(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bssid, verr := bssidParam(r)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	var req TagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, start, http.StatusBadRequest, &APIError{Code: ErrCodeValidation, Message: err.Error()}, nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}

	tag := &store.DeviceTag{
		BSSID:    bssid,
		Tag:      req.Tag,
		Notes:    req.Notes,
		TaggedAt: time.Now().UTC(),
	}
	if err := h.store.SetTag(r.Context(), tag); err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("bssid", bssid).
		Str("tag", string(req.Tag)).
		Msg("device tagged")
	respondData(w, r, start, http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/v1/devices/{bssid}/tag.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bssid, verr := bssidParam(r)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	existed, err := h.store.DeleteTag(r.Context(), bssid)
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	if !existed {
		respondError(w, r, start, http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("device %s is not tagged", bssid),
		}, nil)
		return
	}
	respondData(w, r, start, http.StatusOK, map[string]string{"bssid": bssid})
}

// DeviceStats handles GET /api/v1/devices/{bssid}/stats.
func (h *Handler) DeviceStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bssid, verr := bssidParam(r)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	stats, err := h.store.DeviceStats(r.Context(), bssid)
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	if stats == nil {
		respondError(w, r, start, http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("no observations for device %s", bssid),
		}, nil)
		return
	}
	respondData(w, r, start, http.StatusOK, stats)
}

// ScoreDevice handles POST /api/v1/devices/{bssid}/score?overwrite_final=bool.
func (h *Handler) ScoreDevice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bssid, verr := bssidParam(r)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	overwrite, verr := boolQuery(r, "overwrite_final")
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}

	rec, err := h.scorer.ScoreDevice(r.Context(), bssid, overwrite)
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	respondData(w, r, start, http.StatusOK, rec)
}
