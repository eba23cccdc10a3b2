// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package sources contains one Fetcher per upstream event source and the
// Adapter that makes every Fetcher safe to fan out to.
//
// A Fetcher speaks its upstream's dialect (query parameters, JSON or XML
// shapes, status vocabulary) and returns fully normalized models.Event
// values or a classified *Error. Raw field names never leave the fetcher.
//
// Adapter wraps a Fetcher with the failure contract the aggregator relies
// on: Fetch never returns an error. Network failures, non-2xx responses,
// malformed payloads and missing credentials are logged with the source
// name and the failure kind, counted in metrics, and turned into an empty
// result. Records that cannot be normalized are skipped individually inside
// the fetchers.
package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
)

// FetchRequest carries the caller's listing parameters. Fetchers translate
// Category into their own taxonomy and ignore what they cannot express.
type FetchRequest struct {
	Category models.Category
	Sort     models.SortType
	Page     int // 1-based
	PageSize int // 0 lets the fetcher pick its configured default
}

// Source is what the aggregator fans out to.
type Source interface {
	Name() models.SourceID
	Fetch(ctx context.Context, req FetchRequest) []models.Event
	IsReachable(ctx context.Context) bool
}

// Fetcher is implemented once per upstream.
type Fetcher interface {
	Name() models.SourceID
	FetchEvents(ctx context.Context, req FetchRequest) ([]models.Event, error)
	Probe(ctx context.Context) error
}

// breakerStater is implemented by fetchers guarded by a circuit breaker.
type breakerStater interface {
	BreakerState() string
}

// Status is the last observed health of a source.
type Status struct {
	Source      models.SourceID `json:"source"`
	Reachable   bool            `json:"reachable"`
	LastProbe   time.Time       `json:"lastProbe,omitempty"`
	LastFetch   time.Time       `json:"lastFetch,omitempty"`
	LastOutcome string          `json:"lastOutcome,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
	LastCount   int             `json:"lastCount"`
	Breaker     string          `json:"breaker,omitempty"`
}

// Adapter turns a Fetcher into a Source.
type Adapter struct {
	fetcher Fetcher
	timeout time.Duration

	mu     sync.RWMutex
	status Status
}

var _ Source = (*Adapter)(nil)

// NewAdapter wraps f. timeout bounds every Fetch and probe independently of
// the caller's context; zero means no extra bound.
func NewAdapter(f Fetcher, timeout time.Duration) *Adapter {
	return &Adapter{
		fetcher: f,
		timeout: timeout,
		status:  Status{Source: f.Name(), Reachable: true},
	}
}

// Name returns the source identity.
func (a *Adapter) Name() models.SourceID { return a.fetcher.Name() }

// Timeout returns the per-call bound.
func (a *Adapter) Timeout() time.Duration { return a.timeout }

func (a *Adapter) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// Fetch runs the fetcher and never fails: every error, and any panic from
// a malformed payload, yields an empty list.
func (a *Adapter) Fetch(ctx context.Context, req FetchRequest) (events []models.Event) {
	name := a.Name()
	log := logging.WithSource(string(name))
	start := time.Now()

	ctx, cancel := a.bound(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("category", string(req.Category)).Msg("Source fetch panicked")
			a.recordFetch(string(KindMalformed), 0, fmt.Errorf("panic: %v", r), time.Since(start))
			events = []models.Event{}
		}
	}()

	events, err := a.fetcher.FetchEvents(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		kind := KindOf(err)
		outcome := string(kind)
		if isBreakerOpen(err) {
			outcome = metrics.OutcomeBreakerOpen
		}
		log.Warn().
			Err(err).
			Str("kind", string(kind)).
			Bool("timeout", isTimeout(err)).
			Str("category", string(req.Category)).
			Dur("elapsed", elapsed).
			Msg("Source fetch failed, continuing without it")
		a.recordFetch(outcome, 0, err, elapsed)
		return []models.Event{}
	}

	if events == nil {
		events = []models.Event{}
	}
	outcome := metrics.OutcomeSuccess
	if len(events) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	log.Debug().
		Int("events", len(events)).
		Str("category", string(req.Category)).
		Dur("elapsed", elapsed).
		Msg("Source fetch complete")
	a.recordFetch(outcome, len(events), nil, elapsed)
	return events
}

func (a *Adapter) recordFetch(outcome string, count int, err error, elapsed time.Duration) {
	metrics.RecordSourceFetch(string(a.Name()), outcome, count, elapsed)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.LastFetch = time.Now()
	a.status.LastOutcome = outcome
	a.status.LastCount = count
	a.status.LastError = ""
	if err != nil {
		a.status.LastError = err.Error()
	}
}

// IsReachable probes the upstream.
func (a *Adapter) IsReachable(ctx context.Context) bool {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	err := a.fetcher.Probe(ctx)
	ok := err == nil
	if !ok {
		log := logging.WithSource(string(a.Name()))
		log.Warn().Err(err).Str("kind", string(KindOf(err))).Msg("Source unreachable")
	}
	metrics.SetSourceReachable(string(a.Name()), ok)

	a.mu.Lock()
	a.status.Reachable = ok
	a.status.LastProbe = time.Now()
	a.mu.Unlock()
	return ok
}

// Status returns a snapshot of the last fetch and probe.
func (a *Adapter) Status() Status {
	a.mu.RLock()
	st := a.status
	a.mu.RUnlock()
	if b, ok := a.fetcher.(breakerStater); ok {
		st.Breaker = b.BreakerState()
	}
	return st
}

// skipRecord logs one raw record that could not be normalized.
func skipRecord(source models.SourceID, rawID string, err error) {
	log := logging.WithSource(string(source))
	log.Debug().Str("raw_id", rawID).Err(err).Msg("Skipping record")
}
