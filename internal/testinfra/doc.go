// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is behind the integration build tag and needs a Docker daemon.
// Tests call SkipIfNoDocker first so they degrade to a skip on machines without one.
//
//	func TestRedisLock(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//
//	    client := goredis.NewClient(&goredis.Options{Addr: redis.Addr})
//	    // ...
//	}
//
// Run with:
//
//	go test -tags integration ./internal/...
package testinfra
