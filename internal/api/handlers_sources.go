// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package api

import (
	"net/http"

	"github.com/tomtom215/encore/internal/logging"
)

// ListSources reports each source's last probe, last fetch and breaker state.
//
// @Summary Source status
// @Tags Operations
// @Produce json
// @Success 200 {object} APIResponse{data=[]sources.Status}
// @Router /sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.events.Sources())
}

// InvalidateCache drops every cached listing so the next read fetches fresh.
//
// @Summary Invalidate the aggregate cache
// @Tags Operations
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse "Snapshot tier could not be cleared"
// @Router /cache [delete]
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	before := h.events.CacheStats().Entries

	if err := h.events.Invalidate(r.Context()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Cache invalidation incomplete")
		rw.InternalError("Cache invalidated in memory but the snapshot tier could not be cleared")
		return
	}
	rw.Success(map[string]interface{}{
		"invalidated": before,
	})
}
