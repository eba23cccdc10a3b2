// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package aggregator

import (
	"time"

	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/sources"
)

// BuildSources creates an Adapter for every enabled source, in the order of
// cfg.Aggregator.SourceOrder. store backs the curated source and may be nil,
// in which case the curated source is left out.
func BuildSources(cfg *config.Config, store sources.DocumentQuerier) []sources.Source {
	var out []sources.Source
	for _, name := range cfg.Aggregator.SourceOrder {
		fetcher, timeout, ok := buildFetcher(cfg, models.SourceID(name), store)
		if !ok {
			continue
		}
		if cfg.Aggregator.BreakerEnabled {
			fetcher = sources.NewBreakerFetcher(fetcher, sources.BreakerSettings{})
		}
		out = append(out, sources.NewAdapter(fetcher, timeout))
		logging.Info().
			Str("source", name).
			Dur("timeout", timeout).
			Bool("breaker", cfg.Aggregator.BreakerEnabled).
			Msg("Source enabled")
	}
	if len(out) == 0 {
		logging.Warn().Msg("No sources enabled, listings will be empty")
	}
	return out
}

func buildFetcher(cfg *config.Config, id models.SourceID, store sources.DocumentQuerier) (sources.Fetcher, time.Duration, bool) {
	switch id {
	case models.SourceFeed:
		if !cfg.Feed.Enabled {
			return nil, 0, false
		}
		f := sources.NewFeedFetcher(cfg.Feed)
		// The adapter bound must cover every retry attempt and backoff.
		return f, f.Policy().Budget(), true

	case models.SourceTicketmaster:
		if !cfg.Ticketmaster.Enabled {
			return nil, 0, false
		}
		return sources.NewTicketmasterFetcher(cfg.Ticketmaster), cfg.Ticketmaster.Timeout, true

	case models.SourceKOPIS:
		if !cfg.KOPIS.Enabled {
			return nil, 0, false
		}
		return sources.NewKOPISFetcher(cfg.KOPIS, cfg.Aggregator.Location()), cfg.KOPIS.Timeout, true

	case models.SourceCurated:
		if !cfg.Curated.Enabled {
			return nil, 0, false
		}
		if store == nil {
			logging.Warn().Msg("Curated source enabled without a document store, skipping")
			return nil, 0, false
		}
		return sources.NewCuratedFetcher(store, cfg.Curated.Collection, cfg.Curated.Popularity), cfg.Curated.Timeout, true
	}
	return nil, 0, false
}
