// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/shadowscore/internal/threat"
	"github.com/tomtom215/shadowscore/internal/validation"
)

// Error codes.
const (
	ErrCodeValidation         = validation.CodeValidationError
	ErrCodeInsufficientData   = "INSUFFICIENT_DATA"
	ErrCodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	ErrCodeModelNotFound      = "MODEL_NOT_FOUND"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeDegenerateModel    = "DEGENERATE_MODEL"
	ErrCodeInvalidDeviceData  = "INVALID_DEVICE_DATA"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// classify maps a domain error to an HTTP status and a client-facing error body.
func classify(err error) (int, *APIError) {
	var insufficient *threat.InsufficientDataError
	var invalid *validation.RequestValidationError

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, validationError(invalid)
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeInsufficientData,
			Message: insufficient.Error(),
			Details: map[string]interface{}{"have": insufficient.Have, "need": insufficient.Need},
		}
	case errors.Is(err, threat.ErrInsufficientData):
		return http.StatusBadRequest, &APIError{Code: ErrCodeInsufficientData, Message: err.Error()}
	case errors.Is(err, threat.ErrTrainingInProgress):
		return http.StatusConflict, &APIError{
			Code:    ErrCodeTrainingInProgress,
			Message: "Training is already in progress, retry later",
		}
	case errors.Is(err, threat.ErrModelKeyMismatch):
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeModelNotFound,
			Message: err.Error(),
			Details: map[string]interface{}{"reason": "legacy_model_key"},
		}
	case errors.Is(err, threat.ErrInvalidModel):
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeModelNotFound,
			Message: "Stored model is unusable, call POST /train to replace it",
			Details: map[string]interface{}{"reason": "invalid_model_record"},
		}
	case errors.Is(err, threat.ErrModelNotFound):
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeModelNotFound,
			Message: "No trained model available, call POST /train first",
		}
	case errors.Is(err, threat.ErrInvalidLimit):
		return http.StatusBadRequest, &APIError{Code: ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, threat.ErrDeviceNotFound):
		return http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, threat.ErrInvalidStats), errors.Is(err, threat.ErrInvalidRuleScore):
		return http.StatusUnprocessableEntity, &APIError{Code: ErrCodeInvalidDeviceData, Message: err.Error()}
	case errors.Is(err, threat.ErrNumericDegeneracy):
		return http.StatusUnprocessableEntity, &APIError{Code: ErrCodeDegenerateModel, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &APIError{Code: ErrCodeTimeout, Message: "Operation timed out"}
	default:
		return http.StatusInternalServerError, &APIError{Code: ErrCodeInternal, Message: "Internal server error"}
	}
}

// respondDomainError classifies err and writes the matching failure envelope.
func respondDomainError(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	status, apiErr := classify(err)
	respondError(w, r, start, status, apiErr, err)
}

func validationError(verr *validation.RequestValidationError) *APIError {
	v := verr.ToAPIError()
	return &APIError{Code: v.Code, Message: v.Message, Details: v.Details}
}
