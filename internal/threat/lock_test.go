// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package threat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLockAcquireRelease(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLock()
	l.now = func() time.Time { return fixed }

	if s := l.State(); s.Locked || s.LockedAt != nil {
		t.Fatalf("new lock should be unlocked, got %+v", s)
	}
	if !l.Acquire() {
		t.Fatal("first Acquire should succeed")
	}
	if l.Acquire() {
		t.Fatal("second Acquire while locked should fail")
	}

	s := l.State()
	if !s.Locked || s.LockedAt == nil || !s.LockedAt.Equal(fixed) {
		t.Fatalf("status = %+v, want locked at %v", s, fixed)
	}

	l.Unlock()
	if s := l.State(); s.Locked || s.LockedAt != nil {
		t.Fatalf("after release: %+v", s)
	}
	if !l.Acquire() {
		t.Fatal("Acquire after release should succeed")
	}
}

func TestMemoryLockReleaseIsUnconditional(t *testing.T) {
	t.Parallel()

	l := NewMemoryLock()
	l.Unlock()
	if l.State().Locked {
		t.Fatal("release of an unlocked lock should leave it unlocked")
	}

	ctx := context.Background()
	ok, err := l.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("TryAcquire = %v, %v", ok, err)
	}
	if err := l.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	status, err := l.Status(ctx)
	if err != nil || status.Locked {
		t.Fatalf("Status = %+v, %v", status, err)
	}
}

func TestMemoryLockConcurrentAcquire(t *testing.T) {
	t.Parallel()

	l := NewMemoryLock()
	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Errorf("%d goroutines acquired the lock, want exactly 1", got)
	}
}
