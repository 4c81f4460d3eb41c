// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tomtom215/shadowscore/internal/middleware"
)

// NewRouter wires every route of h. The returned handler is wrapped for tracing.
func NewRouter(h *Handler, mwConfig *ChiMiddlewareConfig) http.Handler {
	mw := NewChiMiddleware(mwConfig)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, time.Now(), http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: "Route not found",
		}, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, time.Now(), http.StatusMethodNotAllowed, &APIError{
			Code:    ErrCodeMethodNotAllowed,
			Message: "Method not allowed",
		}, nil)
	})

	// Probes and scrapes are not rate limited.
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/train", h.Train)
		r.Post("/score-all", h.ScoreAll)
		r.Get("/status", h.Status)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/observations", h.IngestObservations)

			r.Route("/devices/{bssid}", func(r chi.Router) {
				r.Put("/tag", h.SetTag)
				r.Delete("/tag", h.DeleteTag)
				r.Get("/stats", h.DeviceStats)
				r.Post("/score", h.ScoreDevice)
			})

			r.With(middleware.Compression).Get("/scores", h.ListScores)
			r.Get("/scores/{bssid}", h.GetScore)
		})
	})

	return otelhttp.NewHandler(r, "shadowscore",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return "HTTP " + req.Method
		}),
	)
}
