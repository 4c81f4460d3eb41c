// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/validation"
)

// maxBodyBytes bounds request bodies. 10000 observations fit comfortably.
const maxBodyBytes = 8 << 20

// bssidParam reads and validates the {bssid} path parameter.
func bssidParam(r *http.Request) (string, *validation.RequestValidationError) {
	raw := chi.URLParam(r, "bssid")
	if verr := validation.ValidateVar("bssid", raw, "device_id"); verr != nil {
		return "", verr
	}
	return store.NormalizeBSSID(raw), nil
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("malformed JSON body: %w", err)
		}
	}
	return nil
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, key string, def int) (int, *validation.RequestValidationError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "int", fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

// boolQuery parses an optional boolean query parameter.
func boolQuery(r *http.Request, key string) (bool, *validation.RequestValidationError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, queryError(key, "boolean", fmt.Sprintf("%s must be true or false", key))
	}
	return b, nil
}

func queryError(field, tag, msg string) *validation.RequestValidationError {
	return &validation.RequestValidationError{Fields: []validation.FieldError{{
		Field:   field,
		Tag:     tag,
		Message: msg,
	}}}
}
