// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
)

// Metric tier labels.
const (
	TierMemory = "memory"
	TierRedis  = "redis"
)

// Clock is the cache's only source of time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Key identifies one aggregated listing.
type Key struct {
	Category models.Category
	Sort     models.SortType
}

// String returns the "category|sort" form used for map and Redis keys.
func (k Key) String() string {
	return string(k.Category) + "|" + string(k.Sort)
}

// Entry is one cached listing.
type Entry struct {
	Events    []models.Event `json:"events"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// FetchFunc produces the events for a key. cacheable=false hands the events
// to waiting callers without storing them.
type FetchFunc func(ctx context.Context) (events []models.Event, cacheable bool, err error)

// SnapshotStore is a second cache tier shared across processes.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, entry Entry) error
	Clear(ctx context.Context) error
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	SnapshotHits  int64     `json:"snapshot_hits"`
	Fetches       int64     `json:"fetches"`
	SharedFetches int64     `json:"shared_fetches"`
	Evictions     int64     `json:"evictions"`
	Entries       int       `json:"entries"`
	LastFetch     time.Time `json:"last_fetch,omitempty"`
	TTL           string    `json:"ttl"`
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// EventCache is a TTL cache of aggregated listings with one fetch in flight
// per key. Returned slices are shared and must not be modified.
type EventCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	// generation increments on Invalidate; fetches started under an older
	// generation do not store their result.
	generation uint64
	lastFetch  time.Time

	ttl       time.Duration
	clock     Clock
	snapshots SnapshotStore
	group     singleflight.Group

	hits, misses, snapshotHits, fetches, shared, evictions atomic.Int64
}

// New creates a cache. snapshots may be nil.
func New(ttl time.Duration, clock Clock, snapshots SnapshotStore) *EventCache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &EventCache{
		entries:   make(map[string]Entry),
		ttl:       ttl,
		clock:     clock,
		snapshots: snapshots,
	}
}

// TTL returns the configured time-to-live.
func (c *EventCache) TTL() time.Duration { return c.ttl }

func (c *EventCache) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.FetchedAt) < c.ttl
}

// lookup returns a fresh entry. A stale one is evicted.
func (c *EventCache) lookup(key string) (Entry, bool) {
	now := c.clock.Now()
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if c.fresh(e, now) {
		return e, true
	}

	c.mu.Lock()
	if cur, still := c.entries[key]; still && !c.fresh(cur, now) {
		delete(c.entries, key)
		c.evictions.Add(1)
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	c.mu.Unlock()
	return Entry{}, false
}

// Get returns the fresh entry for key without fetching.
func (c *EventCache) Get(key Key) (Entry, bool) {
	return c.lookup(key.String())
}

// GetOrFetch returns the fresh events for key, fetching them with fn when
// the key is empty or stale. If ctx ends while waiting, ctx.Err() is
// returned and the fetch keeps running for the other waiters.
func (c *EventCache) GetOrFetch(ctx context.Context, key Key, fn FetchFunc) ([]models.Event, error) {
	k := key.String()
	if e, ok := c.lookup(k); ok {
		c.hits.Add(1)
		metrics.RecordCacheLookup(TierMemory, true)
		return e.Events, nil
	}
	c.misses.Add(1)
	metrics.RecordCacheLookup(TierMemory, false)

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (any, error) {
		return c.fill(detached, k, fn)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
			metrics.CacheSharedFetches.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Event), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fill runs inside the single flight for key.
func (c *EventCache) fill(ctx context.Context, key string, fn FetchFunc) ([]models.Event, error) {
	// A flight that finished just before this one started may have filled it.
	if e, ok := c.lookup(key); ok {
		return e.Events, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	if e, ok := c.loadSnapshot(ctx, key); ok {
		c.store(key, e, gen)
		return e.Events, nil
	}

	fetchedAt := c.clock.Now()
	events, cacheable, err := fn(ctx)
	c.fetches.Add(1)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}

	c.mu.Lock()
	c.lastFetch = fetchedAt
	c.mu.Unlock()

	if !cacheable {
		logging.Ctx(ctx).Debug().Str("key", key).Msg("Fetch result not cached")
		return events, nil
	}

	entry := Entry{Events: events, FetchedAt: fetchedAt}
	if c.store(key, entry, gen) {
		c.saveSnapshot(ctx, key, entry)
	}
	return events, nil
}

// store writes entry unless the cache was invalidated since gen was read.
func (c *EventCache) store(key string, entry Entry, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.entries[key] = entry
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return true
}

func (c *EventCache) loadSnapshot(ctx context.Context, key string) (Entry, bool) {
	if c.snapshots == nil {
		return Entry{}, false
	}
	e, ok, err := c.snapshots.Load(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Snapshot load failed")
		return Entry{}, false
	}
	if !ok || !c.fresh(e, c.clock.Now()) {
		metrics.RecordCacheLookup(TierRedis, false)
		return Entry{}, false
	}
	if e.Events == nil {
		e.Events = []models.Event{}
	}
	c.snapshotHits.Add(1)
	metrics.RecordCacheLookup(TierRedis, true)
	return e, true
}

func (c *EventCache) saveSnapshot(ctx context.Context, key string, e Entry) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Save(ctx, key, e); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Snapshot save failed")
	}
}

// Entries returns the fresh entries keyed by "category|sort".
func (c *EventCache) Entries() map[string]Entry {
	now := c.clock.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for k, e := range c.entries {
		if c.fresh(e, now) {
			out[k] = e
		}
	}
	return out
}

// Sweep evicts stale entries and returns how many were removed.
func (c *EventCache) Sweep() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, k)
			n++
		}
	}
	c.evictions.Add(int64(n))
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return n
}

// Invalidate drops every entry, including the snapshot tier. Fetches
// already in flight complete for their waiters but are not stored.
func (c *EventCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]Entry)
	c.generation++
	c.mu.Unlock()

	c.evictions.Add(int64(n))
	metrics.CacheEntries.Set(0)
	logging.Ctx(ctx).Info().Int("entries", n).Msg("Event cache invalidated")

	if c.snapshots != nil {
		return c.snapshots.Clear(ctx)
	}
	return nil
}

// Stats returns current counters.
func (c *EventCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	last := c.lastFetch
	c.mu.RUnlock()
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		SnapshotHits:  c.snapshotHits.Load(),
		Fetches:       c.fetches.Load(),
		SharedFetches: c.shared.Load(),
		Evictions:     c.evictions.Load(),
		Entries:       n,
		LastFetch:     last,
		TTL:           c.ttl.String(),
	}
}
