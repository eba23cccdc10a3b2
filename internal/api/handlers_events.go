// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/spaolacci/murmur3"

	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/query"
)

// ListEvents returns one page of upcoming events.
//
// @Summary List upcoming events
// @Description Aggregated, de-duplicated events from every enabled source. Events whose first date is today or earlier are never listed.
// @Tags Events
// @Produce json
// @Param category query string false "Category filter" Enums(all, concert, musical, classical, festival, sports)
// @Param sort query string false "Sort order" Enums(popularity, latest, deadline, price_low, price_high)
// @Param page query int false "1-based page" minimum(1)
// @Param page_size query int false "Events per page" minimum(1)
// @Param If-None-Match header string false "ETag of a previously fetched page"
// @Success 200 {object} APIResponse{data=[]models.Event}
// @Success 304 "Page unchanged"
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Failure 504 {object} APIResponse "Request abandoned before aggregation finished"
// @Router /events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, verr := h.parseEventListRequest(r)
	if verr != nil {
		rw.ValidationError(verr.Message, verr.Details)
		return
	}

	res, err := h.events.GetEvents(r.Context(), req.CategoryValue(), req.SortValue(), req.Page, req.PageSize)
	if err != nil {
		h.writeAggregationError(rw, r, err)
		return
	}

	etag := pageETag(res, req)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		rw.NotModified()
		return
	}

	rw.SuccessWithPagination(res.Events, &PaginationMeta{
		Page:     req.Page,
		PageSize: req.PageSize,
		Count:    len(res.Events),
		Total:    res.Total,
		HasMore:  res.HasMore,
	})
}

// GetEvent returns a single event by its source-prefixed id.
//
// @Summary Get event by id
// @Tags Events
// @Produce json
// @Param id path string true "Event id, e.g. tm_G5diZ9..."
// @Success 200 {object} APIResponse{data=models.Event}
// @Failure 404 {object} APIResponse "Unknown id"
// @Router /events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		rw.BadRequest("event id is required")
		return
	}

	event, ok := h.events.GetEventByID(r.Context(), id)
	if !ok {
		rw.NotFound(fmt.Sprintf("event %q not found", id))
		return
	}
	rw.Success(event)
}

func (h *Handler) writeAggregationError(rw *ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Listing request ended before aggregation finished")
		rw.Error(http.StatusGatewayTimeout, ErrCodeTimeout, "Sources are still being queried, retry shortly")
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("Aggregation failed")
	rw.InternalError("Failed to load events")
}

// pageETag fingerprints a listing page with murmur3.
func pageETag(res query.Result, req EventListRequest) string {
	payload, err := json.Marshal(struct {
		Events   interface{} `json:"e"`
		Total    int         `json:"t"`
		Page     int         `json:"p"`
		PageSize int         `json:"s"`
	}{res.Events, res.Total, req.Page, req.PageSize})
	if err != nil {
		return ""
	}
	hi, lo := murmur3.Sum128(payload)
	return fmt.Sprintf(`"%016x%016x"`, hi, lo)
}

// etagMatches implements the If-None-Match comparison (weak comparison,
// comma-separated lists and "*").
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
