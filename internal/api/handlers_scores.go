// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
	"github.com/tomtom215/shadowscore/internal/validation"
)

const (
	defaultListLimit = 100
	maxListLimit     = 10000
)

// ScoreListRequest holds the query parameters of GET /api/v1/scores.
type ScoreListRequest struct {
	MinLevel string `json:"min_level" validate:"omitempty,oneof=NONE LOW MED MEDIUM HIGH CRITICAL"`
	Limit    int    `json:"limit" validate:"min=1,max=10000"`
}

// ScoreList is the body of GET /api/v1/scores.
type ScoreList struct {
	Scores []threat.ScoreRecord `json:"scores"`
	Count  int                  `json:"count"`
}

// GetScore handles GET /api/v1/scores/{bssid}.
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bssid, verr := bssidParam(r)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	rec, err := h.store.GetScore(r.Context(), bssid)
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	if rec == nil {
		respondError(w, r, start, http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("device %s has not been scored", bssid),
		}, nil)
		return
	}
	respondData(w, r, start, http.StatusOK, rec)
}

// ListScores handles GET /api/v1/scores?min_level=HIGH&limit=100.
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, verr := intQuery(r, "limit", defaultListLimit)
	if verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}
	req := ScoreListRequest{
		MinLevel: strings.ToUpper(r.URL.Query().Get("min_level")),
		Limit:    limit,
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, start, http.StatusBadRequest, validationError(verr), nil)
		return
	}

	filter := store.ScoreFilter{Limit: req.Limit}
	if req.MinLevel != "" {
		filter.MinLevel, _ = threat.ParseLevel(req.MinLevel)
	}
	scores, err := h.store.ListScores(r.Context(), filter)
	if err != nil {
		respondDomainError(w, r, start, err)
		return
	}
	if scores == nil {
		scores = []threat.ScoreRecord{}
	}
	respondData(w, r, start, http.StatusOK, ScoreList{Scores: scores, Count: len(scores)})
}
