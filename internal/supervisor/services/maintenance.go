// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/metrics"
)

// GCRunner is satisfied by *docstore.Store.
type GCRunner interface {
	RunGC(discardRatio float64) (bool, error)
}

// Sweeper is satisfied by *cache.EventCache.
type Sweeper interface {
	Sweep() int
}

// DefaultDiscardRatio is the value-log discard ratio badger recommends.
const DefaultDiscardRatio = 0.5

// StoreGCService periodically reclaims space in the document store's
// value log.
type StoreGCService struct {
	store        GCRunner
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewStoreGCService creates the service. A non-positive interval means 10m.
func NewStoreGCService(store GCRunner, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{
		store:        store,
		interval:     interval,
		discardRatio: DefaultDiscardRatio,
		logger:       logging.WithComponent("store-gc"),
	}
}

// Serve implements suture.Service. GC failures are logged and counted but
// never end the service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *StoreGCService) runOnce() {
	start := time.Now()
	rewritten, err := s.store.RunGC(s.discardRatio)
	switch {
	case err != nil:
		metrics.StoreGCRuns.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("Value log GC failed")
	case rewritten:
		metrics.StoreGCRuns.WithLabelValues("rewritten").Inc()
		s.logger.Info().Dur("duration", time.Since(start)).Msg("Value log GC rewrote files")
	default:
		metrics.StoreGCRuns.WithLabelValues("nothing").Inc()
		s.logger.Debug().Msg("Value log GC found nothing to rewrite")
	}
}

// String implements fmt.Stringer.
func (s *StoreGCService) String() string { return "store-gc" }

// CacheSweepService evicts expired listings so memory does not hold
// categories nobody asks for anymore.
type CacheSweepService struct {
	cache    Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheSweepService creates the service. Sweeping once per TTL is
// enough; a non-positive interval means 10m.
func NewCacheSweepService(cache Sweeper, interval time.Duration) *CacheSweepService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheSweepService{
		cache:    cache,
		interval: interval,
		logger:   logging.WithComponent("cache-sweep"),
	}
}

// Serve implements suture.Service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.Sweep(); n > 0 {
				s.logger.Debug().Int("evicted", n).Msg("Swept expired listings")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheSweepService) String() string { return "cache-sweep" }
