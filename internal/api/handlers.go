// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package api

import (
	"context"
	"time"

	"github.com/tomtom215/encore/internal/cache"
	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/query"
	"github.com/tomtom215/encore/internal/sources"
)

// EventService is the aggregation interface the handlers serve.
// *aggregator.Aggregator implements it.
type EventService interface {
	GetEvents(ctx context.Context, category models.Category, sortType models.SortType, page, pageSize int) (query.Result, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, bool)
	Sources() []sources.Status
	Invalidate(ctx context.Context) error
	CacheStats() cache.Stats
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves every API endpoint.
type Handler struct {
	events    EventService
	api       config.APIConfig
	checks    map[string]Pinger
	startTime time.Time
}

// NewHandler creates a Handler. checks names the dependencies readiness
// depends on (document store, Redis); nil entries are skipped.
func NewHandler(events EventService, apiCfg config.APIConfig, checks map[string]Pinger) *Handler {
	if apiCfg.DefaultPageSize <= 0 {
		apiCfg.DefaultPageSize = 20
	}
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &Handler{
		events:    events,
		api:       apiCfg,
		checks:    live,
		startTime: time.Now(),
	}
}
