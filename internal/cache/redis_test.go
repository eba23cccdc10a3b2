// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package cache

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/encore/internal/models"
)

func TestSnapshotExpiry(t *testing.T) {
	fetched := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		age  time.Duration
		want time.Duration
	}{
		{"fresh", 0, 10 * time.Minute},
		{"half used", 5 * time.Minute, 5 * time.Minute},
		{"exactly expired", 10 * time.Minute, 0},
		{"long expired", time.Hour, -50 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snapshotExpiry(10*time.Minute, fetched, fetched.Add(tt.age)); got != tt.want {
				t.Errorf("snapshotExpiry() = %v, want %v", got, tt.want)
			}
		})
	}
}

// unreachableRedis returns a client for an address nothing listens on, so
// any command that reaches the network fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
}

func TestRedisSnapshotStore_SaveUsesInjectedClock(t *testing.T) {
	clock := newFakeClock()
	store := NewRedisSnapshotStoreWithClient(unreachableRedis(t), "encore:", time.Minute, 200*time.Millisecond).WithClock(clock)
	defer store.Close()

	// Months old by the wall clock, brand new by the cache's clock.
	entry := Entry{Events: []models.Event{{ID: "tm_1"}}, FetchedAt: clock.Now()}

	err := store.Save(context.Background(), "all|popularity", entry)
	if err == nil || !strings.Contains(err.Error(), "redis set") {
		t.Fatalf("Save(fresh) = %v, want a write attempt", err)
	}

	clock.Advance(2 * time.Minute)
	if err := store.Save(context.Background(), "all|popularity", entry); err != nil {
		t.Errorf("Save(expired) = %v, want no write", err)
	}
}

func TestRedisSnapshotStore_WithNilClockKeepsSystemClock(t *testing.T) {
	store := NewRedisSnapshotStoreWithClient(unreachableRedis(t), "encore:", time.Minute, 0).WithClock(nil)
	defer store.Close()
	if _, ok := store.clock.(SystemClock); !ok {
		t.Errorf("clock = %T, want SystemClock", store.clock)
	}
	if store.timeout != 2*time.Second {
		t.Errorf("timeout = %v, want 2s default", store.timeout)
	}
}
