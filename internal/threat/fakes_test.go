// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// memModelStore implements ModelStore for testing.
type memModelStore struct {
	mu      sync.Mutex
	model   *TrainedModel
	saves   int
	saveErr error
	loadErr error
}

func (m *memModelStore) SaveModel(_ context.Context, model *TrainedModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *model
	m.model = &cp
	m.saves++
	return nil
}

func (m *memModelStore) LoadModel(_ context.Context) (*TrainedModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.model == nil {
		return nil, ErrModelNotFound
	}
	cp := *m.model
	return &cp, nil
}

// memSamples implements SampleSource for testing.
type memSamples struct {
	tagged []TaggedStats
	err    error
}

func (m *memSamples) LabeledStats(_ context.Context) ([]TaggedStats, error) {
	return m.tagged, m.err
}

// memStats implements StatsSource for testing.
type memStats struct {
	stats map[string]*DeviceStats
	err   map[string]error
}

func (m *memStats) CandidateDevices(_ context.Context, limit int) ([]string, error) {
	ids := make([]string, 0, len(m.stats))
	for id := range m.stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memStats) DeviceStats(_ context.Context, bssid string) (*DeviceStats, error) {
	if err := m.err[bssid]; err != nil {
		return nil, err
	}
	s, ok := m.stats[bssid]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// ruleFunc adapts a function to RuleScoreProvider.
type ruleFunc func(ctx context.Context, bssid string) (*RuleScore, error)

func (f ruleFunc) ScoreDevice(ctx context.Context, bssid string) (*RuleScore, error) {
	return f(ctx, bssid)
}

func fixedRules(scores map[string]float64) ruleFunc {
	return func(_ context.Context, bssid string) (*RuleScore, error) {
		s, ok := scores[bssid]
		if !ok {
			return nil, errors.New("no rule score")
		}
		return &RuleScore{Score: s, Flags: map[string]any{"source": "test"}}, nil
	}
}

// memScores implements ScoreWriter for testing.
type memScores struct {
	mu      sync.Mutex
	records map[string]ScoreRecord
	order   []string
}

func newMemScores() *memScores {
	return &memScores{records: make(map[string]ScoreRecord)}
}

func (m *memScores) UpsertScore(_ context.Context, rec *ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.BSSID] = *rec
	m.order = append(m.order, rec.BSSID)
	return nil
}

// heldLock is a TrainingLock that is always held by someone else.
type heldLock struct{ releases int }

func (h *heldLock) TryAcquire(context.Context) (bool, error) { return false, nil }
func (h *heldLock) Release(context.Context) error {
	h.releases++
	return nil
}
func (h *heldLock) Status(context.Context) (LockStatus, error) {
	return LockStatus{Locked: true}, nil
}
