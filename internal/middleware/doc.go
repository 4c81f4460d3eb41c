// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

// Package middleware provides the HTTP middleware shared by the API router.
//
// All middleware use the func(http.Handler) http.Handler shape so they compose with
// chi's r.Use:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
//	r.Use(middleware.Compression)
//
// RequestID must run first: the other layers and every handler read the ID from the
// request context for logging and the response envelope.
//
// PrometheusMetrics labels requests by chi route pattern rather than raw path, so
// device identifiers in URLs do not create new series.
package middleware
