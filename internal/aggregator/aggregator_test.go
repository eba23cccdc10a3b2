// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package aggregator

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/encore/internal/cache"
	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/sources"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	name      models.SourceID
	events    []models.Event
	delay     time.Duration
	reachable bool

	fetches atomic.Int32
	probes  atomic.Int32
	ctxErr  atomic.Value // error seen by Fetch
}

func (s *stubSource) Name() models.SourceID { return s.name }

func (s *stubSource) Fetch(ctx context.Context, _ sources.FetchRequest) []models.Event {
	s.fetches.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := ctx.Err(); err != nil {
		s.ctxErr.Store(err)
	}
	return models.CloneEvents(s.events)
}

func (s *stubSource) IsReachable(context.Context) bool {
	s.probes.Add(1)
	return s.reachable
}

func event(id, title string, category models.Category, popularity int, dates ...string) models.Event {
	src, _ := models.SourceOf(id)
	return models.Event{
		ID:         id,
		Title:      title,
		Category:   category,
		Dates:      dates,
		Popularity: popularity,
		Source:     src,
		PriceTable: models.PriceTable{"R": 10000},
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestAggregator(srcs ...sources.Source) (*Aggregator, *clock) {
	clk := &clock{now: testNow}
	return New(Options{
		Sources:     srcs,
		Cache:       cache.New(10*time.Minute, clk, nil),
		HealthCheck: true,
		Location:    time.UTC,
		Now:         clk.Now,
	}), clk
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i := range events {
		out[i] = events[i].ID
	}
	return out
}

func TestGetEvents_MergesInSourceOrder(t *testing.T) {
	feed := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "Spring Tour", models.CategoryConcert, 90, "2026-05-01"),
		event("melon_2", "Winter Gala", models.CategoryClassical, 50, "2026-06-01"),
	}}
	tm := &stubSource{name: models.SourceTicketmaster, reachable: true, delay: 20 * time.Millisecond, events: []models.Event{
		event("tm_1", "spring tour", models.CategoryConcert, 80, "2026-05-01", "2026-05-02"),
		event("tm_2", "Rock Night", models.CategoryConcert, 70, "2026-04-01"),
	}}
	a, _ := newTestAggregator(feed, tm)

	res, err := a.GetEvents(context.Background(), models.CategoryAll, models.SortPopularity, 1, 10)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"melon_1", "tm_2", "melon_2"}) {
		t.Errorf("GetEvents() = %v", got)
	}
	// The slower second source does not change who survives dedup.
	if !reflect.DeepEqual(res.Events[0].Dates, []string{"2026-05-01", "2026-05-02"}) {
		t.Errorf("merged dates = %v", res.Events[0].Dates)
	}
	if res.Total != 3 || res.HasMore {
		t.Errorf("Total=%d HasMore=%v", res.Total, res.HasMore)
	}
}

func TestGetEvents_CachesPerKey(t *testing.T) {
	src := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "A", models.CategoryConcert, 1, "2026-05-01"),
	}}
	a, clk := newTestAggregator(src)
	ctx := context.Background()

	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 2, 10)
	if src.fetches.Load() != 1 {
		t.Errorf("fetches = %d, want 1 within the TTL", src.fetches.Load())
	}

	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortLatest, 1, 10)
	if src.fetches.Load() != 2 {
		t.Errorf("fetches = %d, want a new round for a new sort", src.fetches.Load())
	}

	clk.Advance(10 * time.Minute)
	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	if src.fetches.Load() != 3 {
		t.Errorf("fetches = %d, want exactly one round after expiry", src.fetches.Load())
	}
}

func TestGetEvents_TimeFilterOnEveryRead(t *testing.T) {
	src := &stubSource{name: models.SourceCurated, reachable: true, events: []models.Event{
		event("curated_a", "Soon", models.CategoryMusical, 1, "2026-03-14"),
		event("curated_b", "Later", models.CategoryMusical, 1, "2026-03-15"),
	}}
	a, clk := newTestAggregator(src)
	ctx := context.Background()

	res, _ := a.GetEvents(ctx, models.CategoryMusical, models.SortLatest, 1, 10)
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"curated_b"}) {
		t.Errorf("day one = %v", got)
	}

	// Still inside the TTL, but the cached event is now today.
	clk.Advance(5 * time.Minute)
	a.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	res, _ = a.GetEvents(ctx, models.CategoryMusical, models.SortLatest, 1, 10)
	if len(res.Events) != 0 {
		t.Errorf("aged cache served %v", ids(res.Events))
	}
	if src.fetches.Load() != 1 {
		t.Errorf("fetches = %d", src.fetches.Load())
	}
}

func TestGetEvents_CategoryFilter(t *testing.T) {
	src := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "A", models.CategoryConcert, 1, "2026-05-01"),
		event("melon_2", "B", models.CategoryMusical, 1, "2026-05-01"),
	}}
	a, _ := newTestAggregator(src)
	res, _ := a.GetEvents(context.Background(), models.CategoryMusical, "", 1, 10)
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"melon_2"}) {
		t.Errorf("musical = %v", got)
	}
}

func TestGetEvents_UnreachableSourceSkipped(t *testing.T) {
	up := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "A", models.CategoryConcert, 1, "2026-05-01"),
	}}
	down := &stubSource{name: models.SourceKOPIS, reachable: false, events: []models.Event{
		event("kopis_1", "B", models.CategoryConcert, 1, "2026-05-01"),
	}}
	a, _ := newTestAggregator(up, down)

	res, _ := a.GetEvents(context.Background(), models.CategoryAll, models.SortPopularity, 1, 10)
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"melon_1"}) {
		t.Errorf("GetEvents() = %v", got)
	}
	if down.fetches.Load() != 0 {
		t.Error("unreachable source was fetched")
	}
}

func TestGetEvents_AllSourcesEmptyNotCached(t *testing.T) {
	a1 := &stubSource{name: models.SourceFeed, reachable: true}
	a2 := &stubSource{name: models.SourceTicketmaster, reachable: false}
	a, _ := newTestAggregator(a1, a2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
		if err != nil {
			t.Fatalf("GetEvents() error = %v", err)
		}
		if res.Events == nil || len(res.Events) != 0 {
			t.Errorf("GetEvents() = %#v, want empty list", res.Events)
		}
	}
	if a1.fetches.Load() != 2 {
		t.Errorf("fetches = %d, want empty results retried on the next read", a1.fetches.Load())
	}
}

func TestGetEvents_ExpiredEntryNotServedWhenAllSourcesFail(t *testing.T) {
	feed := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "Spring Tour", models.CategoryConcert, 90, "2026-05-01"),
	}}
	tm := &stubSource{name: models.SourceTicketmaster, reachable: true, events: []models.Event{
		event("tm_1", "Rock Night", models.CategoryConcert, 70, "2026-04-01"),
	}}
	a, clk := newTestAggregator(feed, tm)
	ctx := context.Background()

	res, err := a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	if err != nil || len(res.Events) != 2 {
		t.Fatalf("first GetEvents() = %v, %v", ids(res.Events), err)
	}

	// Past the TTL, one source returns nothing and the other is down.
	feed.events = nil
	tm.reachable = false
	clk.Advance(11 * time.Minute)

	res, err = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(res.Events) != 0 || res.Total != 0 {
		t.Errorf("GetEvents() = %v (total %d), want empty instead of the expired listing", ids(res.Events), res.Total)
	}
	if feed.fetches.Load() != 2 || tm.fetches.Load() != 1 {
		t.Errorf("fetches feed=%d tm=%d, want feed refetched and tm skipped", feed.fetches.Load(), tm.fetches.Load())
	}

	// The empty result was not cached: the next read reaches the recovered source.
	feed.events = []models.Event{event("melon_2", "Summer Tour", models.CategoryConcert, 80, "2026-07-01")}
	res, err = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"melon_2"}) {
		t.Errorf("GetEvents() after recovery = %v", got)
	}
	if feed.fetches.Load() != 3 {
		t.Errorf("feed fetches = %d, want 3", feed.fetches.Load())
	}
}

func TestGetEvents_FetchOutlivesCaller(t *testing.T) {
	slow := &stubSource{name: models.SourceFeed, reachable: true, delay: 50 * time.Millisecond, events: []models.Event{
		event("melon_1", "A", models.CategoryConcert, 1, "2026-05-01"),
	}}
	a, _ := newTestAggregator(slow)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10); err == nil {
		t.Fatal("GetEvents() should report the caller's deadline")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := a.Cache().Get(cache.Key{Category: models.CategoryAll, Sort: models.SortPopularity}); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if slow.ctxErr.Load() != nil {
		t.Errorf("source saw a cancelled context: %v", slow.ctxErr.Load())
	}

	res, err := a.GetEvents(context.Background(), models.CategoryAll, models.SortPopularity, 1, 10)
	if err != nil || len(res.Events) != 1 {
		t.Fatalf("GetEvents() = %v, %v", ids(res.Events), err)
	}
	if slow.fetches.Load() != 1 {
		t.Errorf("fetches = %d, want the abandoned fetch reused", slow.fetches.Load())
	}
}

func TestGetEventByID(t *testing.T) {
	src := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "A", models.CategoryConcert, 1, "2026-05-01"),
		event("melon_past", "Old", models.CategoryConcert, 1, "2026-01-01"),
	}}
	a, _ := newTestAggregator(src)
	ctx := context.Background()

	e, ok := a.GetEventByID(ctx, "melon_1")
	if !ok || e.Title != "A" {
		t.Fatalf("GetEventByID() = %+v, %v", e, ok)
	}
	if _, ok := a.GetEventByID(ctx, "melon_past"); !ok {
		t.Error("past events stay resolvable by id")
	}
	if _, ok := a.GetEventByID(ctx, "melon_404"); ok {
		t.Error("unknown id found")
	}
	if _, ok := a.GetEventByID(ctx, "nope_1"); ok {
		t.Error("unknown prefix found")
	}
	if src.fetches.Load() != 1 {
		t.Errorf("fetches = %d, want lookups served from the cache", src.fetches.Load())
	}

	// The returned event is a copy.
	e.Dates[0] = "1999-01-01"
	again, _ := a.GetEventByID(ctx, "melon_1")
	if again.Dates[0] != "2026-05-01" {
		t.Error("GetEventByID leaked cached state")
	}
}

func TestGetEventByID_FallsBackToCategoryEntries(t *testing.T) {
	src := &stubSource{name: models.SourceKOPIS, reachable: true, events: []models.Event{
		event("kopis_9", "Opera", models.CategoryClassical, 1, "2026-05-01"),
	}}
	a, _ := newTestAggregator(src)
	ctx := context.Background()

	_, _ = a.GetEvents(ctx, models.CategoryClassical, models.SortLatest, 1, 10)
	if _, ok := a.GetEventByID(ctx, "kopis_9"); !ok {
		t.Fatal("event in a category listing not found")
	}
	if src.fetches.Load() != 1 {
		t.Errorf("fetches = %d, want the cached category entry used", src.fetches.Load())
	}
}

func TestInvalidate(t *testing.T) {
	src := &stubSource{name: models.SourceFeed, reachable: true, events: []models.Event{
		event("melon_1", "A", models.CategoryConcert, 1, "2026-05-01"),
	}}
	a, _ := newTestAggregator(src)
	ctx := context.Background()

	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	if err := a.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	_, _ = a.GetEvents(ctx, models.CategoryAll, models.SortPopularity, 1, 10)
	if src.fetches.Load() != 2 {
		t.Errorf("fetches = %d", src.fetches.Load())
	}
	if a.CacheStats().Fetches != 2 {
		t.Errorf("CacheStats().Fetches = %d", a.CacheStats().Fetches)
	}
}

func TestSourcesAndCheck(t *testing.T) {
	up := &stubSource{name: models.SourceFeed, reachable: true}
	down := &stubSource{name: models.SourceKOPIS, reachable: false}
	a, _ := newTestAggregator(up, down)

	st := a.Sources()
	if len(st) != 2 || st[0].Source != models.SourceFeed || st[1].Source != models.SourceKOPIS {
		t.Errorf("Sources() = %+v", st)
	}
	got := a.CheckSources(context.Background())
	if !got[models.SourceFeed] || got[models.SourceKOPIS] {
		t.Errorf("CheckSources() = %v", got)
	}
}

func TestBuildSources(t *testing.T) {
	cfg := &config.Config{
		Feed:         config.FeedConfig{Enabled: true, URL: "http://feed.local", MaxAttempts: 3, HealthAttempts: 2, BaseDelay: 2 * time.Second, FirstTimeout: 20 * time.Second, RetryTimeout: 12 * time.Second},
		Ticketmaster: config.TicketmasterConfig{Enabled: true, URL: "http://tm.local", Timeout: 15 * time.Second, RateLimit: 5},
		KOPIS:        config.KOPISConfig{Enabled: false},
		Curated:      config.CuratedConfig{Enabled: true, Collection: "concerts", Timeout: time.Second},
		Aggregator: config.AggregatorConfig{
			SourceOrder:    []string{"ticketmaster", "kopis", "curated", "feed"},
			Timezone:       "Asia/Seoul",
			BreakerEnabled: true,
		},
	}

	built := BuildSources(cfg, nil)
	var names []models.SourceID
	for _, s := range built {
		names = append(names, s.Name())
	}
	// KOPIS is disabled and curated has no store.
	if !reflect.DeepEqual(names, []models.SourceID{models.SourceTicketmaster, models.SourceFeed}) {
		t.Fatalf("BuildSources() = %v", names)
	}

	feed := built[1].(*sources.Adapter)
	if feed.Timeout() != 50*time.Second {
		t.Errorf("feed timeout = %v, want the full retry budget", feed.Timeout())
	}
	if feed.Status().Breaker != "closed" {
		t.Errorf("breaker = %q, want closed", feed.Status().Breaker)
	}
}
