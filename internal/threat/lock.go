// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"context"
	"sync"
	"time"
)

// LockStatus is a point-in-time read of a TrainingLock.
type LockStatus struct {
	Locked   bool       `json:"locked"`
	LockedAt *time.Time `json:"locked_at"`
	Owner    string     `json:"owner,omitempty"`
}

// TrainingLock is a non-blocking try-lock guarding training runs.
// Release must run on every exit path of a training attempt.
type TrainingLock interface {
	// TryAcquire returns true and takes the lock only if it is free. It never waits.
	TryAcquire(ctx context.Context) (bool, error)

	// Release frees the lock.
	Release(ctx context.Context) error

	// Status reads the current state without changing it.
	Status(ctx context.Context) (LockStatus, error)
}

// MemoryLock is the in-process TrainingLock. It does not coordinate across processes.
type MemoryLock struct {
	mu       sync.Mutex
	locked   bool
	lockedAt time.Time
	now      func() time.Time
}

// NewMemoryLock returns an unlocked lock.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{now: time.Now}
}

// Acquire takes the lock if it is free and reports whether it did.
func (l *MemoryLock) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return false
	}
	l.locked = true
	l.lockedAt = l.now()
	return true
}

// Unlock frees the lock regardless of which caller took it.
func (l *MemoryLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.locked = false
	l.lockedAt = time.Time{}
}

// State returns the current lock state.
func (l *MemoryLock) State() LockStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		return LockStatus{}
	}
	at := l.lockedAt
	return LockStatus{Locked: true, LockedAt: &at}
}

// TryAcquire implements TrainingLock.
func (l *MemoryLock) TryAcquire(_ context.Context) (bool, error) {
	return l.Acquire(), nil
}

// Release implements TrainingLock.
func (l *MemoryLock) Release(_ context.Context) error {
	l.Unlock()
	return nil
}

// Status implements TrainingLock.
func (l *MemoryLock) Status(_ context.Context) (LockStatus, error) {
	return l.State(), nil
}
