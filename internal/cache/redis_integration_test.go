// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/testinfra"
)

func TestRedisSnapshotStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, container)

	store, err := NewRedisSnapshotStore(config.CacheConfig{
		RedisURL:    container.URL,
		RedisPrefix: "encore:test:",
	}, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisSnapshotStore: %v", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		entry := Entry{
			Events:    []models.Event{{ID: "tm_1", Title: "Rock Night", Dates: []string{"2026-12-01"}, PriceTable: models.PriceTable{"R": 99000}}},
			FetchedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
		if err := store.Save(ctx, "concert|popularity", entry); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, ok, err := store.Load(ctx, "concert|popularity")
		if err != nil || !ok {
			t.Fatalf("Load = %v, %v", ok, err)
		}
		if len(got.Events) != 1 || got.Events[0].PriceTable["R"] != 99000 || !got.FetchedAt.Equal(entry.FetchedAt) {
			t.Errorf("Load = %+v", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, ok, err := store.Load(ctx, "sports|latest"); ok || err != nil {
			t.Errorf("Load missing = %v, %v", ok, err)
		}
	})

	t.Run("expired entries are not written", func(t *testing.T) {
		old := Entry{Events: []models.Event{}, FetchedAt: time.Now().Add(-2 * time.Minute)}
		if err := store.Save(ctx, "old|popularity", old); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if _, ok, _ := store.Load(ctx, "old|popularity"); ok {
			t.Error("expired snapshot was stored")
		}
	})

	t.Run("two caches share one fetch", func(t *testing.T) {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		first := New(time.Minute, nil, store)
		second := New(time.Minute, nil, store)
		fetches := 0
		fetch := func(context.Context) ([]models.Event, bool, error) {
			fetches++
			return []models.Event{{ID: "melon_1", Title: "Spring Tour"}}, true, nil
		}
		key := Key{Category: models.CategoryAll, Sort: models.SortPopularity}

		if _, err := first.GetOrFetch(ctx, key, fetch); err != nil {
			t.Fatalf("first: %v", err)
		}
		events, err := second.GetOrFetch(ctx, key, fetch)
		if err != nil {
			t.Fatalf("second: %v", err)
		}
		if fetches != 1 || len(events) != 1 {
			t.Errorf("fetches = %d, events = %d", fetches, len(events))
		}
		if second.Stats().SnapshotHits != 1 {
			t.Errorf("SnapshotHits = %d", second.Stats().SnapshotHits)
		}
	})

	t.Run("clear", func(t *testing.T) {
		_ = store.Save(ctx, "a|latest", Entry{Events: []models.Event{}, FetchedAt: time.Now()})
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, ok, _ := store.Load(ctx, "a|latest"); ok {
			t.Error("snapshot survived Clear")
		}
	})
}
