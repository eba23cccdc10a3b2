// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package query filters, orders and pages merged event lists.
//
// Filtering by time happens on every call, not when data is fetched, because
// cached lists age: an event whose first date is today or earlier never
// appears in a listing.
package query

import (
	"sort"
	"time"

	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/normalize"
)

// Params selects a listing page.
type Params struct {
	Category models.Category // CategoryAll or empty means no filter
	Sort     models.SortType
	Page     int // 1-based; values below 1 are treated as 1
	PageSize int // 0 means everything

	// Now and Location decide what "today" is.
	Now      time.Time
	Location *time.Location
}

// Result is one page plus the total number of matches.
type Result struct {
	Events  []models.Event
	Total   int
	HasMore bool
}

// FilterCategory returns the events of one category. CategoryAll or an
// empty category returns every event. The input is not modified.
func FilterCategory(events []models.Event, category models.Category) []models.Event {
	if category == "" || category == models.CategoryAll {
		return append([]models.Event(nil), events...)
	}
	out := make([]models.Event, 0, len(events))
	for i := range events {
		if events[i].Category == category {
			out = append(out, events[i])
		}
	}
	return out
}

// FilterUpcoming keeps events whose first date is strictly after today.
// Dates are ISO strings so they compare lexically.
func FilterUpcoming(events []models.Event, today string) []models.Event {
	out := make([]models.Event, 0, len(events))
	for i := range events {
		if first := events[i].FirstDate(); first != "" && first > today {
			out = append(out, events[i])
		}
	}
	return out
}

// Sort orders events in place. Ties, and unknown sort types, fall back to id
// ascending so the order is total.
func Sort(events []models.Event, sortType models.SortType) {
	less := lessFunc(sortType)
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// lessFunc returns a three-way comparison for the primary sort key.
func lessFunc(sortType models.SortType) func(a, b *models.Event) int {
	switch sortType {
	case models.SortPopularity, "":
		return func(a, b *models.Event) int { return cmpInt(b.Popularity, a.Popularity) }
	case models.SortLatest, models.SortDeadline:
		return func(a, b *models.Event) int { return cmpString(a.FirstDate(), b.FirstDate()) }
	case models.SortPriceLow:
		return func(a, b *models.Event) int { return cmpInt(a.PriceTable.Min(), b.PriceTable.Min()) }
	case models.SortPriceHigh:
		return func(a, b *models.Event) int { return cmpInt(b.PriceTable.Max(), a.PriceTable.Max()) }
	default:
		return func(*models.Event, *models.Event) int { return 0 }
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Paginate slices one page out of events. A page past the end is empty.
func Paginate(events []models.Event, page, pageSize int) ([]models.Event, bool) {
	if pageSize <= 0 {
		return events, false
	}
	if page < 1 {
		page = 1
	}
	// Compare by division so huge page or pageSize values cannot overflow.
	if len(events) == 0 || page-1 > (len(events)-1)/pageSize {
		return []models.Event{}, false
	}
	start := (page - 1) * pageSize
	end := len(events)
	if len(events)-start > pageSize {
		end = start + pageSize
	}
	return events[start:end], end < len(events)
}

// Apply runs category filter, time filter, sort and pagination. The input
// slice is left untouched.
func Apply(events []models.Event, p Params) Result {
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	filtered := FilterUpcoming(FilterCategory(events, p.Category), normalize.Today(now, p.Location))
	Sort(filtered, p.Sort)
	page, more := Paginate(filtered, p.Page, p.PageSize)
	return Result{Events: page, Total: len(filtered), HasMore: more}
}
