// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package sources

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
)

// BreakerFetcher guards a Fetcher with a circuit breaker so a source that
// keeps failing is skipped without a network call until it recovers.
//
// Only unavailable and rate-limited failures count against the breaker.
// Missing credentials or a malformed payload will not heal by waiting, and
// they must not hide a healthy upstream.
//
// Breaker timing uses wall-clock time from gobreaker; tests drive it through
// request counts.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[[]models.Event]
	name string
}

var _ Fetcher = (*BreakerFetcher)(nil)

// BreakerSettings tunes the breaker. Zero values take the defaults below.
type BreakerSettings struct {
	MinRequests  uint32        // requests in a window before tripping is considered (10)
	FailureRatio float64       // failure ratio that trips the breaker (0.6)
	Interval     time.Duration // closed-state counting window (1m)
	OpenTimeout  time.Duration // open duration before a half-open trial (2m)
	HalfOpenMax  uint32        // trial requests allowed half-open (3)
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 2 * time.Minute
	}
	if s.HalfOpenMax == 0 {
		s.HalfOpenMax = 3
	}
	return s
}

// NewBreakerFetcher wraps next.
func NewBreakerFetcher(next Fetcher, settings BreakerSettings) *BreakerFetcher {
	settings = settings.withDefaults()
	cbName := string(next.Name()) + "-source"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.Event](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: settings.HalfOpenMax,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= settings.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", cbName).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch KindOf(err) {
			case KindMissingCredentials, KindMalformed, KindUnauthorized:
				return true
			}
			// The caller leaving is not the upstream's fault.
			return errors.Is(err, context.Canceled)
		},
	})

	return &BreakerFetcher{next: next, cb: cb, name: cbName}
}

// Name returns the wrapped source's identity.
func (b *BreakerFetcher) Name() models.SourceID { return b.next.Name() }

// FetchEvents runs the wrapped fetch through the breaker. While open it
// returns an unavailable *Error wrapping gobreaker.ErrOpenState.
func (b *BreakerFetcher) FetchEvents(ctx context.Context, req FetchRequest) ([]models.Event, error) {
	events, err := b.cb.Execute(func() ([]models.Event, error) {
		return b.next.FetchEvents(ctx, req)
	})
	return events, b.observe(err)
}

// Probe short-circuits while the breaker is open. Probes are not counted by
// the breaker.
func (b *BreakerFetcher) Probe(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return newError(b.Name(), KindUnavailable, "probe", gobreaker.ErrOpenState)
	}
	return b.next.Probe(ctx)
}

// BreakerState reports closed, half-open or open.
func (b *BreakerFetcher) BreakerState() string {
	return stateToString(b.cb.State())
}

func (b *BreakerFetcher) observe(err error) error {
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return newError(b.Name(), KindUnavailable, "fetch", err)
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	return err
}

// isBreakerOpen reports whether err is a breaker rejection.
func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
