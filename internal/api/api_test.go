// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/encore/internal/cache"
	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/query"
	"github.com/tomtom215/encore/internal/sources"
)

type fakeService struct {
	mu          sync.Mutex
	result      query.Result
	err         error
	gotCategory models.Category
	gotSort     models.SortType
	gotPage     int
	gotSize     int
	events      map[string]models.Event
	invalidated int
	invalidErr  error
}

func (f *fakeService) GetEvents(_ context.Context, c models.Category, s models.SortType, page, size int) (query.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCategory, f.gotSort, f.gotPage, f.gotSize = c, s, page, size
	return f.result, f.err
}

func (f *fakeService) GetEventByID(_ context.Context, id string) (*models.Event, bool) {
	e, ok := f.events[id]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (f *fakeService) Sources() []sources.Status {
	return []sources.Status{
		{Source: models.SourceFeed, Reachable: true, Breaker: "closed"},
		{Source: models.SourceKOPIS, Reachable: false, Breaker: "open", LastError: "unauthorized"},
	}
}

func (f *fakeService) Invalidate(context.Context) error {
	f.invalidated++
	return f.invalidErr
}

func (f *fakeService) CacheStats() cache.Stats {
	return cache.Stats{Hits: 3, Misses: 1, Entries: 2, TTL: "10m0s"}
}

type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newTestServer(svc *fakeService, checks map[string]Pinger) http.Handler {
	h := NewHandler(svc, config.APIConfig{DefaultPageSize: 20, MaxPageSize: 50}, checks)
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "DELETE"},
		RateLimitDisabled:  true,
	})
	return NewRouter(h, mw, 0).SetupChi()
}

func sampleResult() query.Result {
	return query.Result{
		Events: []models.Event{
			{ID: "melon_1", Title: "Spring Tour", Category: models.CategoryConcert, Dates: []string{"2026-05-01"}},
			{ID: "tm_2", Title: "Rock Night", Category: models.CategoryConcert, Dates: []string{"2026-05-02"}},
		},
		Total:   7,
		HasMore: true,
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func do(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListEvents(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	srv := newTestServer(svc, nil)

	rec := do(srv, http.MethodGet, "/api/v1/events?category=Concert&sort=price_low&page=2&page_size=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.gotCategory != models.CategoryConcert || svc.gotSort != models.SortPriceLow || svc.gotPage != 2 || svc.gotSize != 2 {
		t.Errorf("service got %s/%s page %d size %d", svc.gotCategory, svc.gotSort, svc.gotPage, svc.gotSize)
	}

	resp := decode(t, rec)
	if !resp.Success || resp.Meta == nil || resp.Meta.Pagination == nil {
		t.Fatalf("response = %+v", resp)
	}
	p := resp.Meta.Pagination
	if p.Total != 7 || p.Count != 2 || !p.HasMore || p.Page != 2 {
		t.Errorf("pagination = %+v", p)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("ETag missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
}

func TestListEvents_Defaults(t *testing.T) {
	svc := &fakeService{result: query.Result{Events: []models.Event{}}}
	srv := newTestServer(svc, nil)

	rec := do(srv, http.MethodGet, "/api/v1/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.gotCategory != models.CategoryAll || svc.gotSort != models.SortPopularity || svc.gotPage != 1 || svc.gotSize != 20 {
		t.Errorf("defaults = %s/%s page %d size %d", svc.gotCategory, svc.gotSort, svc.gotPage, svc.gotSize)
	}
	resp := decode(t, rec)
	if p := resp.Meta.Pagination; p == nil || p.Count != 0 || p.HasMore {
		t.Errorf("pagination = %+v", p)
	}
}

func TestListEvents_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown category", "category=opera"},
		{"unknown sort", "sort=random"},
		{"page zero", "page=0"},
		{"page not a number", "page=two"},
		{"page size over max", "page_size=51"},
		{"negative page size", "page_size=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{result: sampleResult()}
			rec := do(newTestServer(svc, nil), http.MethodGet, "/api/v1/events?"+tt.query, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			resp := decode(t, rec)
			if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v", resp.Error)
			}
			if svc.gotPage != 0 {
				t.Error("service called despite invalid input")
			}
		})
	}
}

func TestListEvents_ETagRevalidation(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	srv := newTestServer(svc, nil)

	first := do(srv, http.MethodGet, "/api/v1/events", nil)
	etag := first.Header().Get("ETag")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"same etag", etag, http.StatusNotModified},
		{"weak form", "W/" + etag, http.StatusNotModified},
		{"in a list", `"other", ` + etag, http.StatusNotModified},
		{"wildcard", "*", http.StatusNotModified},
		{"stale etag", `"0000"`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, http.MethodGet, "/api/v1/events", http.Header{"If-None-Match": {tt.header}})
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNotModified && rec.Body.Len() != 0 {
				t.Error("304 carried a body")
			}
		})
	}

	// A different page of the same data is a different resource.
	other := do(srv, http.MethodGet, "/api/v1/events?page=2", nil)
	if other.Header().Get("ETag") == etag {
		t.Error("page 2 shares page 1's ETag")
	}
}

func TestListEvents_AggregationErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		svc := &fakeService{err: tt.err}
		rec := do(newTestServer(svc, nil), http.MethodGet, "/api/v1/events", nil)
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
		if resp := decode(t, rec); resp.Error == nil || resp.Error.Code != tt.code {
			t.Errorf("%v: error = %+v", tt.err, resp.Error)
		}
	}
}

func TestGetEvent(t *testing.T) {
	svc := &fakeService{events: map[string]models.Event{
		"curated_gala": {ID: "curated_gala", Title: "Gala"},
	}}
	srv := newTestServer(svc, nil)

	rec := do(srv, http.MethodGet, "/api/v1/events/curated_gala", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"title":"Gala"`) {
		t.Errorf("GET existing = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodGet, "/api/v1/events/tm_missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing = %d", rec.Code)
	}
	if resp := decode(t, rec); resp.Error.Code != ErrCodeNotFound {
		t.Errorf("code = %q", resp.Error.Code)
	}
}

func TestSourcesAndCache(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(svc, nil)

	rec := do(srv, http.MethodGet, "/api/v1/sources", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"breaker":"open"`) {
		t.Errorf("sources = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodDelete, "/api/v1/cache", nil)
	if rec.Code != http.StatusOK || svc.invalidated != 1 {
		t.Errorf("DELETE /cache = %d, invalidated %d", rec.Code, svc.invalidated)
	}

	svc.invalidErr = errors.New("redis down")
	rec = do(srv, http.MethodDelete, "/api/v1/cache", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("DELETE /cache with failing tier = %d", rec.Code)
	}

	rec = do(srv, http.MethodPost, "/api/v1/cache", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /cache = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	broken := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("live", func(t *testing.T) {
		rec := do(newTestServer(&fakeService{}, map[string]Pinger{"redis": broken}), http.MethodGet, "/api/v1/health/live", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("live = %d", rec.Code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		rec := do(newTestServer(&fakeService{}, map[string]Pinger{"store": healthy, "redis": nil}), http.MethodGet, "/api/v1/health/ready", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("ready = %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("not ready", func(t *testing.T) {
		rec := do(newTestServer(&fakeService{}, map[string]Pinger{"store": healthy, "redis": broken}), http.MethodGet, "/api/v1/health/ready", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("ready = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "connection refused") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("detailed", func(t *testing.T) {
		rec := do(newTestServer(&fakeService{}, map[string]Pinger{"store": healthy}), http.MethodGet, "/api/v1/health/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("health = %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{`"status":"healthy"`, `"hit_rate":75`, `"entries":2`, `"source":"kopis"`} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %s: %s", want, body)
			}
		}
	})
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(&fakeService{result: sampleResult()}, config.APIConfig{}, nil)
	mw := NewChiMiddleware(ChiMiddlewareConfigFromSecurity(config.SecurityConfig{
		RateLimitReqs:   2,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	}))
	srv := NewRouter(h, mw, 0).SetupChi()

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(srv, http.MethodGet, "/api/v1/events", nil).Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want 200 200 429", codes)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(newTestServer(&fakeService{}, nil), http.MethodGet, "/api/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if resp := decode(t, rec); resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestEtagMatches(t *testing.T) {
	if etagMatches("", `"a"`) || etagMatches(`"a"`, "") {
		t.Error("empty values never match")
	}
	if !etagMatches(` "b" ,"a"`, `"a"`) {
		t.Error("list match failed")
	}
}
