// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/threat"
)

func TestIngestObservations(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)

	body := ObservationBatch{Observations: []store.Observation{
		{BSSID: "AA:BB:CC:00:00:01", RadioType: store.RadioWiFi, SignalDBm: f64(-60), Latitude: f64(52.1), Longitude: f64(4.3), ObservedAt: time.Now().UTC()},
		{BSSID: "aa:bb:cc:00:00:01", ObservedAt: time.Now().UTC().Add(-24 * time.Hour)},
	}}
	status, resp := env.do(t, http.MethodPost, "/api/v1/observations", body)
	if status != http.StatusCreated {
		t.Fatalf("status = %d (%+v)", status, resp.Error)
	}
	var got map[string]int
	decodeData(t, resp, &got)
	if got["inserted"] != 2 {
		t.Errorf("inserted = %d, want 2", got["inserted"])
	}

	stats, err := env.store.DeviceStats(context.Background(), "aa:bb:cc:00:00:01")
	if err != nil || stats == nil {
		t.Fatalf("DeviceStats: %v, %v", stats, err)
	}
	if stats.ObservationCount != 2 || stats.UniqueDays != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestIngestObservations_Invalid(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", ""},
		{"malformed json", `{"observations": [`},
		{"unknown field", `{"observations": [], "extra": 1}`},
		{"empty batch", ObservationBatch{}},
		{"missing bssid", ObservationBatch{Observations: []store.Observation{{ObservedAt: time.Now()}}}},
		{"bad radio", ObservationBatch{Observations: []store.Observation{{BSSID: "x", RadioType: "zigbee", ObservedAt: time.Now()}}}},
		{"latitude only", ObservationBatch{Observations: []store.Observation{{BSSID: "x", Latitude: f64(10), ObservedAt: time.Now()}}}},
	}
	for _, tt := range tests {
		status, resp := env.do(t, http.MethodPost, "/api/v1/observations", tt.body)
		if status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, status)
			continue
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
			t.Errorf("%s: error = %+v", tt.name, resp.Error)
		}
	}
}

func TestTagLifecycle(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	status, resp := env.do(t, http.MethodPut, "/api/v1/devices/AA:BB:CC:00:00:02/tag",
		TagRequest{Tag: threat.TagThreat, Notes: "seen at every stop"})
	if status != http.StatusOK {
		t.Fatalf("PUT status = %d (%+v)", status, resp.Error)
	}
	tag, err := env.store.GetTag(ctx, "aa:bb:cc:00:00:02")
	if err != nil || tag == nil {
		t.Fatalf("GetTag: %v, %v", tag, err)
	}
	if tag.Tag != threat.TagThreat || tag.Notes != "seen at every stop" {
		t.Errorf("tag = %+v", tag)
	}

	if status, _ := env.do(t, http.MethodDelete, "/api/v1/devices/aa:bb:cc:00:00:02/tag", nil); status != http.StatusOK {
		t.Fatalf("DELETE status = %d", status)
	}
	status, resp = env.do(t, http.MethodDelete, "/api/v1/devices/aa:bb:cc:00:00:02/tag", nil)
	if status != http.StatusNotFound || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("second DELETE = %d %+v, want 404", status, resp.Error)
	}
}

func TestSetTag_Invalid(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)

	status, resp := env.do(t, http.MethodPut, "/api/v1/devices/aa:bb/tag", `{"tag":"SUSPICIOUS"}`)
	if status != http.StatusBadRequest || resp.Error.Code != ErrCodeValidation {
		t.Errorf("unknown tag = %d %+v", status, resp.Error)
	}
	if resp.Error.Details["field"] != "tag" {
		t.Errorf("details = %v, want field tag", resp.Error.Details)
	}

	bad := "/api/v1/devices/" + strings.Repeat("a", 65) + "/tag"
	status, resp = env.do(t, http.MethodPut, bad, TagRequest{Tag: threat.TagThreat})
	if status != http.StatusBadRequest || resp.Error.Code != ErrCodeValidation {
		t.Errorf("long bssid = %d %+v", status, resp.Error)
	}
}

func TestDeviceStats(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	seedDevice(t, env.store, "cc:00:00:00:00:09", 3, 2, 3, -64)

	status, resp := env.do(t, http.MethodGet, "/api/v1/devices/cc:00:00:00:00:09/stats", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d (%+v)", status, resp.Error)
	}
	var stats threat.DeviceStats
	decodeData(t, resp, &stats)
	if stats.ObservationCount != 6 || stats.UniqueDays != 3 || stats.UniqueLocations != 3 {
		t.Errorf("stats = %+v", stats)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/devices/cc:00:00:00:00:10/stats", nil)
	if status != http.StatusNotFound || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("missing device = %d %+v", status, resp.Error)
	}
}

func TestScoreDevice(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)

	seedDevice(t, env.store, "cc:00:00:00:00:01", 4, 3, 4, -58)
	status, resp := env.do(t, http.MethodPost, "/api/v1/devices/cc:00:00:00:00:01/score", nil)
	if status != http.StatusBadRequest || resp.Error.Code != ErrCodeModelNotFound {
		t.Fatalf("before training = %d %+v, want 400 MODEL_NOT_FOUND", status, resp.Error)
	}

	seedLabeled(t, env.store, 5, 5)
	if status, _ := env.do(t, http.MethodPost, "/train", nil); status != http.StatusOK {
		t.Fatalf("train status = %d", status)
	}

	status, resp = env.do(t, http.MethodPost, "/api/v1/devices/cc:00:00:00:00:01/score?overwrite_final=true", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d (%+v)", status, resp.Error)
	}
	var rec threat.ScoreRecord
	decodeData(t, resp, &rec)
	if rec.BSSID != "cc:00:00:00:00:01" || rec.FinalThreatScore != rec.HybridThreatScore {
		t.Errorf("record = %+v", rec)
	}
	if threat.LevelFor(rec.FinalThreatScore) != rec.FinalThreatLevel {
		t.Errorf("level %s does not match score %v", rec.FinalThreatLevel, rec.FinalThreatScore)
	}
}

func TestScoreDevice_UnknownDevice(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)

	seedLabeled(t, env.store, 5, 5)
	if status, _ := env.do(t, http.MethodPost, "/train", nil); status != http.StatusOK {
		t.Fatalf("train status = %d", status)
	}

	status, resp := env.do(t, http.MethodPost, "/api/v1/devices/dd:00:00:00:00:99/score", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (%+v)", status, resp.Error)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeNotFound)
	}
}

func TestScores_GetAndList(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	scores := []float64{85, 65, 45, 10}
	for i, s := range scores {
		rec := &threat.ScoreRecord{
			BSSID:             fmt.Sprintf("ee:00:00:00:00:%02x", i),
			RuleBasedScore:    s,
			HybridThreatScore: s,
			FinalThreatScore:  s,
			FinalThreatLevel:  threat.LevelFor(s),
			MLPrimaryClass:    threat.ClassLegitimate,
			ModelVersion:      "v-test",
			ScoredAt:          time.Now().UTC(),
		}
		if err := env.store.UpsertScore(ctx, rec); err != nil {
			t.Fatalf("UpsertScore: %v", err)
		}
	}

	status, resp := env.do(t, http.MethodGet, "/api/v1/scores/ee:00:00:00:00:00", nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var rec threat.ScoreRecord
	decodeData(t, resp, &rec)
	if rec.FinalThreatLevel != threat.LevelCritical {
		t.Errorf("level = %s, want CRITICAL", rec.FinalThreatLevel)
	}

	if status, _ := env.do(t, http.MethodGet, "/api/v1/scores/ee:00:00:00:00:99", nil); status != http.StatusNotFound {
		t.Errorf("missing score status = %d, want 404", status)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/scores?min_level=medium&limit=10", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d (%+v)", status, resp.Error)
	}
	var list ScoreList
	decodeData(t, resp, &list)
	if list.Count != 3 {
		t.Fatalf("count = %d, want 3", list.Count)
	}
	for i := 1; i < len(list.Scores); i++ {
		if list.Scores[i-1].FinalThreatScore < list.Scores[i].FinalThreatScore {
			t.Errorf("scores not descending: %v before %v", list.Scores[i-1].FinalThreatScore, list.Scores[i].FinalThreatScore)
		}
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/scores?min_level=SEVERE", nil)
	if status != http.StatusBadRequest || resp.Error.Code != ErrCodeValidation {
		t.Errorf("bad level = %d %+v", status, resp.Error)
	}
}
