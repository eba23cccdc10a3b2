// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package aggregator answers listing queries by fanning out to every source,
// merging their results and caching the merged list per (category, sort).
package aggregator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/encore/internal/cache"
	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/merge"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/query"
	"github.com/tomtom215/encore/internal/sources"
)

// StatusReporter is implemented by sources that track their own health.
type StatusReporter interface {
	Status() sources.Status
}

// Options configures an Aggregator.
type Options struct {
	// Sources in merge order. Earlier sources win dedup ties.
	Sources []sources.Source
	Cache   *cache.EventCache

	// HealthCheck probes each source before fetching from it.
	HealthCheck bool

	// Location and Now decide what "today" is for the past-event filter.
	Location *time.Location
	Now      func() time.Time
}

// Aggregator is safe for concurrent use.
type Aggregator struct {
	sources     []sources.Source
	cache       *cache.EventCache
	healthCheck bool
	loc         *time.Location
	now         func() time.Time
}

// New creates an Aggregator. A nil cache gets a 10 minute in-memory cache.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		sources:     opts.Sources,
		cache:       opts.Cache,
		healthCheck: opts.HealthCheck,
		loc:         opts.Location,
		now:         opts.Now,
	}
	if a.cache == nil {
		a.cache = cache.New(10*time.Minute, cache.SystemClock{}, nil)
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// GetEvents returns one page of upcoming events. Only the caller's context
// ending produces an error; source failures shrink the result instead.
func (a *Aggregator) GetEvents(ctx context.Context, category models.Category, sortType models.SortType, page, pageSize int) (query.Result, error) {
	if category == "" {
		category = models.CategoryAll
	}
	if sortType == "" {
		sortType = models.SortPopularity
	}

	key := cache.Key{Category: category, Sort: sortType}
	events, err := a.cache.GetOrFetch(ctx, key, func(fctx context.Context) ([]models.Event, bool, error) {
		return a.aggregate(fctx, category, sortType)
	})
	if err != nil {
		return query.Result{Events: []models.Event{}}, err
	}

	return query.Apply(events, query.Params{
		Category: category,
		Sort:     sortType,
		Page:     page,
		PageSize: pageSize,
		Now:      a.now(),
		Location: a.loc,
	}), nil
}

// aggregate runs one fan-out pass. The result is cacheable when at least one
// source produced events, so an outage is never pinned for a TTL window.
func (a *Aggregator) aggregate(ctx context.Context, category models.Category, sortType models.SortType) ([]models.Event, bool, error) {
	start := time.Now()
	// Fetches outlive the caller; each source applies its own timeout.
	ctx = context.WithoutCancel(ctx)
	log := logging.Ctx(ctx)

	req := sources.FetchRequest{Category: category, Sort: sortType, Page: 1}
	results := make([][]models.Event, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			if a.healthCheck && !src.IsReachable(ctx) {
				metrics.SourceFetchTotal.WithLabelValues(string(src.Name()), metrics.OutcomeUnreachable).Inc()
				return
			}
			results[i] = src.Fetch(ctx, req)
		}(i, src)
	}
	wg.Wait()

	contributing := 0
	for _, r := range results {
		if len(r) > 0 {
			contributing++
		}
	}

	merged := merge.Merge(results...)
	events := query.FilterCategory(merged.Events, category)
	query.Sort(events, sortType)

	elapsed := time.Since(start)
	metrics.RecordAggregation(string(category), len(events), merged.Duplicates, elapsed)
	log.Info().
		Str("category", string(category)).
		Str("sort", string(sortType)).
		Int("events", len(events)).
		Int("duplicates", merged.Duplicates).
		Int("sources", len(a.sources)).
		Int("contributing", contributing).
		Dur("duration", elapsed).
		Msg("Aggregation complete")

	if contributing == 0 && len(a.sources) > 0 {
		log.Warn().Str("category", string(category)).Msg("No source returned events, result not cached")
	}
	return events, contributing > 0, nil
}

// GetEventByID finds an event in the cached listings, preferring the "all"
// listings. With nothing cached it aggregates the default listing first.
// Past events are still returned.
func (a *Aggregator) GetEventByID(ctx context.Context, id string) (*models.Event, bool) {
	if _, known := models.SourceOf(id); !known {
		return nil, false
	}
	if e, ok := a.findCached(id); ok {
		return e, true
	}

	key := cache.Key{Category: models.CategoryAll, Sort: models.SortPopularity}
	events, err := a.cache.GetOrFetch(ctx, key, func(fctx context.Context) ([]models.Event, bool, error) {
		return a.aggregate(fctx, key.Category, key.Sort)
	})
	if err != nil {
		return nil, false
	}
	return find(events, id)
}

func (a *Aggregator) findCached(id string) (*models.Event, bool) {
	entries := a.cache.Entries()
	for k, e := range entries {
		if cacheKeyCategory(k) == models.CategoryAll {
			if ev, ok := find(e.Events, id); ok {
				return ev, true
			}
		}
	}
	for k, e := range entries {
		if cacheKeyCategory(k) != models.CategoryAll {
			if ev, ok := find(e.Events, id); ok {
				return ev, true
			}
		}
	}
	return nil, false
}

func cacheKeyCategory(key string) models.Category {
	category, _, _ := strings.Cut(key, "|")
	return models.Category(category)
}

func find(events []models.Event, id string) (*models.Event, bool) {
	for i := range events {
		if events[i].ID == id {
			e := events[i].Clone()
			return &e, true
		}
	}
	return nil, false
}

// Sources returns the status of every source in merge order.
func (a *Aggregator) Sources() []sources.Status {
	out := make([]sources.Status, 0, len(a.sources))
	for _, s := range a.sources {
		if r, ok := s.(StatusReporter); ok {
			out = append(out, r.Status())
			continue
		}
		out = append(out, sources.Status{Source: s.Name()})
	}
	return out
}

// CheckSources probes every source concurrently.
func (a *Aggregator) CheckSources(ctx context.Context) map[models.SourceID]bool {
	out := make(map[models.SourceID]bool, len(a.sources))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, s := range a.sources {
		wg.Add(1)
		go func(s sources.Source) {
			defer wg.Done()
			ok := s.IsReachable(ctx)
			mu.Lock()
			out[s.Name()] = ok
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return out
}

// Invalidate drops every cached listing.
func (a *Aggregator) Invalidate(ctx context.Context) error {
	return a.cache.Invalidate(ctx)
}

// CacheStats returns aggregate cache counters.
func (a *Aggregator) CacheStats() cache.Stats {
	return a.cache.Stats()
}

// Cache exposes the underlying cache for maintenance.
func (a *Aggregator) Cache() *cache.EventCache {
	return a.cache
}
