// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package testinfra starts real dependencies in Docker for integration tests
// using testcontainers-go.
//
// Every file carries the integration build tag, so nothing here is compiled
// into a normal `go test ./...` run:
//
//	go test -tags integration ./internal/cache/...
//
// # Redis
//
// NewRedisContainer starts a throwaway Redis for the cache snapshot tier:
//
//	func TestSnapshots(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//	    // connect with redis.URL
//	}
//
// Tests skip themselves when no Docker daemon is reachable.
package testinfra
