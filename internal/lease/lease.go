// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

// Package lease provides a Redis-backed threat.TrainingLock for deployments running more
// than one instance against the same model store.
//
// The lock is a single key written with SET NX PX. The value records which instance holds
// the lease and when it was taken. The TTL bounds how long a crashed holder can block
// training. Release only deletes the key while it still holds this instance's value.
package lease

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/shadowscore/internal/threat"
)

// Defaults for Config.
const (
	DefaultKey = "shadowscore:training-lock"
	DefaultTTL = 30 * time.Minute
)

// releaseScript deletes KEYS[1] only if its value equals ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config configures a RedisLock.
type Config struct {
	Key string        `koanf:"key"`
	TTL time.Duration `koanf:"ttl"`
	// Owner identifies this instance. Defaults to hostname plus a random suffix.
	Owner string `koanf:"owner"`
}

// payload is the JSON value stored under the lock key.
type payload struct {
	Owner    string    `json:"owner"`
	LockedAt time.Time `json:"locked_at"`
}

// RedisLock implements threat.TrainingLock on a Redis key.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	owner  string
	now    func() time.Time

	mu   sync.Mutex
	held string // value written by our last successful acquire
}

var _ threat.TrainingLock = (*RedisLock)(nil)

// NewRedisLock creates a lock using client.
func NewRedisLock(client redis.UniversalClient, cfg Config) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("lease: redis client is required")
	}
	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	owner := cfg.Owner
	if owner == "" {
		owner = defaultOwner()
	}
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  owner,
		now:    time.Now,
	}, nil
}

// Owner returns this instance's identity.
func (l *RedisLock) Owner() string {
	return l.owner
}

// TryAcquire implements threat.TrainingLock.
func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	value, err := json.Marshal(payload{Owner: l.owner, LockedAt: l.now().UTC()})
	if err != nil {
		return false, fmt.Errorf("lease: encode payload: %w", err)
	}

	ok, err := l.client.SetNX(ctx, l.key, value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease: acquire %s: %w", l.key, err)
	}
	if ok {
		l.mu.Lock()
		l.held = string(value)
		l.mu.Unlock()
	}
	return ok, nil
}

// Release implements threat.TrainingLock. Releasing a lease this instance does not hold,
// including one that already expired, is a no-op.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	value := l.held
	l.held = ""
	l.mu.Unlock()

	if value == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, value).Err(); err != nil {
		return fmt.Errorf("lease: release %s: %w", l.key, err)
	}
	return nil
}

// Status implements threat.TrainingLock.
func (l *RedisLock) Status(ctx context.Context) (threat.LockStatus, error) {
	raw, err := l.client.Get(ctx, l.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return threat.LockStatus{}, nil
	}
	if err != nil {
		return threat.LockStatus{}, fmt.Errorf("lease: read %s: %w", l.key, err)
	}

	status := threat.LockStatus{Locked: true}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		// Held by something that does not speak our payload format.
		return status, nil
	}
	at := p.LockedAt.UTC()
	status.LockedAt = &at
	status.Owner = p.Owner
	return status, nil
}

func defaultOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "shadowscore"
	}
	return host + "-" + uuid.NewString()[:8]
}
