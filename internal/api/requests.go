// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/validation"
)

// EventListRequest holds the validated query parameters of GET /events.
//
// Fields:
//   - Category: one of the event categories or "all" (default all)
//   - Sort: listing order (default popularity)
//   - Page: 1-based page number
//   - PageSize: events per page, capped by api.max_page_size
type EventListRequest struct {
	Category string `validate:"omitempty,oneof=all concert musical classical festival sports"`
	Sort     string `validate:"omitempty,oneof=popularity latest deadline price_low price_high"`
	Page     int    `validate:"min=1,max=100000"`
	PageSize int    `validate:"min=1"`
}

// CategoryValue returns the parsed category.
func (r EventListRequest) CategoryValue() models.Category {
	c, _ := models.ParseCategoryFilter(r.Category)
	return c
}

// SortValue returns the parsed sort type.
func (r EventListRequest) SortValue() models.SortType {
	s, _ := models.ParseSortType(r.Sort)
	return s
}

// parseEventListRequest reads and validates the listing parameters.
func (h *Handler) parseEventListRequest(r *http.Request) (EventListRequest, *validation.APIError) {
	q := r.URL.Query()
	req := EventListRequest{
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		Sort:     strings.ToLower(strings.TrimSpace(q.Get("sort"))),
	}

	var err error
	if req.Page, err = getIntParam(r, "page", 1); err != nil {
		return req, paramError("page", err)
	}
	if req.PageSize, err = getIntParam(r, "page_size", h.api.DefaultPageSize); err != nil {
		return req, paramError("page_size", err)
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, verr.ToAPIError()
	}
	if h.api.MaxPageSize > 0 && req.PageSize > h.api.MaxPageSize {
		return req, &validation.APIError{
			Code:    ErrCodeValidationFailed,
			Message: fmt.Sprintf("PageSize must be at most %d", h.api.MaxPageSize),
			Details: map[string]interface{}{"field": "PageSize", "tag": "max", "value": req.PageSize},
		}
	}
	return req, nil
}

// getIntParam returns the integer query parameter or def when absent.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func paramError(field string, err error) *validation.APIError {
	return &validation.APIError{
		Code:    ErrCodeValidationFailed,
		Message: err.Error(),
		Details: map[string]interface{}{"field": field},
	}
}
