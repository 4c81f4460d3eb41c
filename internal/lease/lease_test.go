// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package lease

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisLock_Defaults(t *testing.T) {
	t.Parallel()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewRedisLock(client, Config{})
	if err != nil {
		t.Fatalf("NewRedisLock failed: %v", err)
	}
	if l.key != DefaultKey {
		t.Errorf("key = %q, want %q", l.key, DefaultKey)
	}
	if l.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", l.ttl, DefaultTTL)
	}
	if l.Owner() == "" || !strings.Contains(l.Owner(), "-") {
		t.Errorf("Owner = %q, want host-suffix form", l.Owner())
	}
}

func TestNewRedisLock_RequiresClient(t *testing.T) {
	t.Parallel()
	if _, err := NewRedisLock(nil, Config{}); err == nil {
		t.Error("NewRedisLock accepted a nil client")
	}
}

func TestRelease_WithoutAcquireIsNoop(t *testing.T) {
	t.Parallel()
	// No server is listening; Release must not touch the network.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewRedisLock(client, Config{Owner: "a"})
	if err != nil {
		t.Fatalf("NewRedisLock failed: %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		t.Errorf("Release failed: %v", err)
	}
}

func TestTryAcquire_ReportsConnectionErrors(t *testing.T) {
	t.Parallel()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewRedisLock(client, Config{Owner: "a"})
	if err != nil {
		t.Fatalf("NewRedisLock failed: %v", err)
	}
	ok, err := l.TryAcquire(context.Background())
	if err == nil {
		t.Fatal("TryAcquire succeeded without a server")
	}
	if ok {
		t.Error("TryAcquire reported success alongside an error")
	}
}
