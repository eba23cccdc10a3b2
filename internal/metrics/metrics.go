// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package metrics declares the Prometheus instruments for the aggregation
// pipeline and the HTTP API. Instruments register with the default registry
// at init via promauto; callers use the Record* helpers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source fetch outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeEmpty       = "empty"
	OutcomeUnreachable = "unreachable"
	OutcomeBreakerOpen = "breaker_open"
)

var (
	// Source adapters
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_source_fetch_total",
			Help: "Source fetches by outcome (success, empty, or a source error kind)",
		},
		[]string{"source", "outcome"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "encore_source_fetch_duration_seconds",
			Help:    "Wall time of a source fetch including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"source"},
	)

	SourceEventsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_source_events_total",
			Help: "Normalized events returned by each source",
		},
		[]string{"source"},
	)

	SourceRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_source_records_skipped_total",
			Help: "Raw records dropped because they could not be normalized",
		},
		[]string{"source"},
	)

	SourceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_source_retries_total",
			Help: "Retry attempts made against a source",
		},
		[]string{"source"},
	)

	SourceReachable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "encore_source_reachable",
			Help: "Result of the last reachability probe (1=reachable)",
		},
		[]string{"source"},
	)

	// Merge / aggregation
	MergeDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "encore_merge_duplicates_total",
			Help: "Events folded into an existing event by the merger",
		},
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "encore_aggregation_duration_seconds",
			Help:    "Duration of a full fan-out, merge and sort pass",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
	)

	AggregationEvents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "encore_aggregation_events",
			Help: "Events produced by the last aggregation pass per category",
		},
		[]string{"category"},
	)

	// Cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_cache_hits_total",
			Help: "Aggregate cache hits by tier (memory, redis)",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_cache_misses_total",
			Help: "Aggregate cache misses by tier (memory, redis)",
		},
		[]string{"tier"},
	)

	CacheSharedFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "encore_cache_shared_fetches_total",
			Help: "Callers that joined a fetch already in flight for the same key",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "encore_cache_entries",
			Help: "Entries currently held in the in-memory aggregate cache",
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "encore_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Document store
	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_store_gc_runs_total",
			Help: "Badger value log GC runs by result (rewritten, nothing, error)",
		},
		[]string{"result"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encore_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "encore_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "encore_api_active_requests",
			Help: "HTTP requests currently being served",
		},
	)
)

// RecordSourceFetch records one adapter call. outcome is OutcomeSuccess,
// OutcomeEmpty or a source error kind.
func RecordSourceFetch(source, outcome string, events int, duration time.Duration) {
	SourceFetchTotal.WithLabelValues(source, outcome).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if events > 0 {
		SourceEventsFetched.WithLabelValues(source).Add(float64(events))
	}
}

// RecordSkippedRecords counts raw records an adapter had to drop.
func RecordSkippedRecords(source string, n int) {
	if n > 0 {
		SourceRecordsSkipped.WithLabelValues(source).Add(float64(n))
	}
}

// RecordRetry counts one retry against source.
func RecordRetry(source string) {
	SourceRetries.WithLabelValues(source).Inc()
}

// SetSourceReachable stores the last probe result.
func SetSourceReachable(source string, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	SourceReachable.WithLabelValues(source).Set(v)
}

// RecordAggregation records one completed aggregation pass.
func RecordAggregation(category string, events, duplicates int, duration time.Duration) {
	AggregationDuration.Observe(duration.Seconds())
	AggregationEvents.WithLabelValues(category).Set(float64(events))
	if duplicates > 0 {
		MergeDuplicates.Add(float64(duplicates))
	}
}

// RecordCacheLookup records a hit or miss on a cache tier.
func RecordCacheLookup(tier string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(tier).Inc()
		return
	}
	CacheMisses.WithLabelValues(tier).Inc()
}

// RecordAPIRequest records a served HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
