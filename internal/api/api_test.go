// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shadowscore/internal/rules"
	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// =============================================================================
// Test Helpers
// =============================================================================

type testEnv struct {
	db      *sql.DB
	store   *store.DuckDBStore
	lock    *threat.MemoryLock
	handler *Handler
	router  http.Handler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWithConfig(t, &ChiMiddlewareConfig{RateLimitDisabled: true})
}

func setupTestEnvWithConfig(t *testing.T, mwConfig *ChiMiddlewareConfig) *testEnv {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("failed to open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.NewDuckDBStore(db, store.WithHome(store.GeoPoint{Latitude: 52.0, Longitude: 4.0}))
	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	cfg := threat.DefaultConfig()
	lock := threat.NewMemoryLock()
	trainer, err := threat.NewTrainer(cfg, lock, st, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	engine, err := threat.NewEngine(cfg, threat.Dependencies{
		Models: st,
		Stats:  st,
		Rules:  rules.NewHeuristic(st, cfg.Extractor()),
		Scores: st,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	h, err := NewHandler(trainer, engine, st, Options{DefaultScoreLimit: 1000, Version: "test"})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return &testEnv{db: db, store: st, lock: lock, handler: h, router: NewRouter(h, mwConfig)}
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    *APIError       `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: response is not an envelope: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func f64(v float64) *float64 { return &v }

// seedDevice inserts days*perDay sightings spread over `locations` points.
func seedDevice(t *testing.T, st *store.DuckDBStore, bssid string, days, perDay, locations int, signal float64) {
	t.Helper()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	var obs []store.Observation
	for d := 0; d < days; d++ {
		for i := 0; i < perDay; i++ {
			loc := (d*perDay + i) % locations
			obs = append(obs, store.Observation{
				BSSID:      bssid,
				RadioType:  store.RadioBLE,
				SignalDBm:  f64(signal),
				Latitude:   f64(52.0 + float64(loc)*0.02),
				Longitude:  f64(4.0 + float64(loc)*0.02),
				ObservedAt: base.Add(time.Duration(d)*24*time.Hour + time.Duration(i)*time.Minute),
			})
		}
	}
	if _, err := st.InsertObservations(context.Background(), obs); err != nil {
		t.Fatalf("insert observations for %s: %v", bssid, err)
	}
}

func tagDevice(t *testing.T, st *store.DuckDBStore, bssid string, tag threat.Tag) {
	t.Helper()
	if err := st.SetTag(context.Background(), &store.DeviceTag{BSSID: bssid, Tag: tag}); err != nil {
		t.Fatalf("tag %s: %v", bssid, err)
	}
}

// seedLabeled tags `threats` persistent trackers and `safe` one-off sightings.
func seedLabeled(t *testing.T, st *store.DuckDBStore, threats, safe int) {
	t.Helper()
	for i := 0; i < threats; i++ {
		id := fmt.Sprintf("aa:00:00:00:00:%02x", i)
		seedDevice(t, st, id, 8, 4, 6, -55)
		tagDevice(t, st, id, threat.TagThreat)
	}
	for i := 0; i < safe; i++ {
		id := fmt.Sprintf("bb:00:00:00:00:%02x", i)
		seedDevice(t, st, id, 1, 2, 1, -85)
		tagDevice(t, st, id, threat.TagFalsePositive)
	}
}
