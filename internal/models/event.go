// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package models defines the canonical event record shared by every stage of
// the aggregation pipeline, along with its enumerations.
//
// Source-specific field names never appear here; adapters translate their
// raw payloads into Event before anything else sees them.
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/encore/internal/validation"
)

// Category is the coarse event classification used for filtering.
type Category string

const (
	CategoryConcert   Category = "concert"
	CategoryMusical   Category = "musical"
	CategoryClassical Category = "classical"
	CategoryFestival  Category = "festival"
	CategorySports    Category = "sports"

	// CategoryAll is only valid as a query filter, never on an Event.
	CategoryAll Category = "all"
)

// Categories lists every category an Event may carry.
var Categories = []Category{
	CategoryConcert,
	CategoryMusical,
	CategoryClassical,
	CategoryFestival,
	CategorySports,
}

// Valid reports whether c may be stored on an Event.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryOrDefault returns the matching category or CategoryConcert.
func CategoryOrDefault(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c.Valid() {
		return c
	}
	return CategoryConcert
}

// ParseCategoryFilter parses a query filter. Empty input means CategoryAll.
func ParseCategoryFilter(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c == "" || c == CategoryAll {
		return CategoryAll, true
	}
	return c, c.Valid()
}

// TicketStatus is the sales state of an event.
type TicketStatus string

const (
	StatusUpcoming TicketStatus = "upcoming"
	StatusPresale  TicketStatus = "presale"
	StatusOnsale   TicketStatus = "onsale"
	StatusSoldout  TicketStatus = "soldout"
)

// SortType selects a listing order.
type SortType string

const (
	SortPopularity SortType = "popularity"
	SortLatest     SortType = "latest"
	SortDeadline   SortType = "deadline"
	SortPriceLow   SortType = "price_low"
	SortPriceHigh  SortType = "price_high"
)

// SortTypes lists every supported order.
var SortTypes = []SortType{SortPopularity, SortLatest, SortDeadline, SortPriceLow, SortPriceHigh}

// ParseSortType parses a sort name. Empty input means SortPopularity.
func ParseSortType(raw string) (SortType, bool) {
	s := SortType(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return SortPopularity, true
	}
	for _, known := range SortTypes {
		if s == known {
			return s, true
		}
	}
	return s, false
}

// PriceTable maps a seat grade label to a price in KRW.
type PriceTable map[string]int

// Min returns the lowest price, or 0 for an empty table.
func (p PriceTable) Min() int {
	first := true
	lowest := 0
	for _, v := range p {
		if first || v < lowest {
			lowest = v
			first = false
		}
	}
	return lowest
}

// Max returns the highest price, or 0 for an empty table.
func (p PriceTable) Max() int {
	first := true
	highest := 0
	for _, v := range p {
		if first || v > highest {
			highest = v
			first = false
		}
	}
	return highest
}

// Event is one show or listing, possibly spanning several dates.
type Event struct {
	ID             string            `json:"id" yaml:"id" validate:"required"`
	Title          string            `json:"title" yaml:"title" validate:"required"`
	Artist         string            `json:"artist" yaml:"artist"`
	TourName       string            `json:"tourName" yaml:"tourName"`
	Category       Category          `json:"category" yaml:"category" validate:"required,oneof=concert musical classical festival sports"`
	Genre          string            `json:"genre" yaml:"genre"`
	Dates          []string          `json:"dates" yaml:"dates" validate:"required,min=1,dive,isodate"`
	City           string            `json:"city" yaml:"city"`
	VenueName      string            `json:"venueName" yaml:"venueName"`
	VenueID        string            `json:"venueId" yaml:"venueId"`
	PosterURL      string            `json:"posterUrl" yaml:"posterUrl" validate:"required"`
	TicketStatus   TicketStatus      `json:"ticketStatus" yaml:"ticketStatus" validate:"required,oneof=upcoming presale onsale soldout"`
	TicketOpenDate string            `json:"ticketOpenDate,omitempty" yaml:"ticketOpenDate" validate:"omitempty,isodate"`
	PriceTable     PriceTable        `json:"priceTable" yaml:"priceTable" validate:"required,min=1"`
	Popularity     int               `json:"popularity" yaml:"popularity"`
	Description    string            `json:"description" yaml:"description"`
	BookingURL     string            `json:"bookingUrl,omitempty" yaml:"bookingUrl"`
	Source         SourceID          `json:"source" yaml:"source"`
	Extra          map[string]string `json:"extra,omitempty" yaml:"extra"`
}

// ErrInvalidEvent wraps every Event.Validate failure.
var ErrInvalidEvent = errors.New("invalid event")

// Validate checks the record invariants: required fields present, dates
// non-empty ISO strings in strictly ascending order, non-empty price table.
func (e *Event) Validate() error {
	if verr := validation.ValidateStruct(e); verr != nil {
		return fmt.Errorf("%w %q: %s", ErrInvalidEvent, e.ID, verr.Error())
	}
	for i := 1; i < len(e.Dates); i++ {
		if e.Dates[i] <= e.Dates[i-1] {
			return fmt.Errorf("%w %q: dates must be ascending and unique", ErrInvalidEvent, e.ID)
		}
	}
	return nil
}

// FirstDate returns the earliest date, or "" when there is none.
func (e *Event) FirstDate() string {
	if len(e.Dates) == 0 {
		return ""
	}
	return e.Dates[0]
}

// Clone returns a deep copy so cached events can be handed out safely.
func (e *Event) Clone() Event {
	c := *e
	if e.Dates != nil {
		c.Dates = append([]string(nil), e.Dates...)
	}
	if e.PriceTable != nil {
		c.PriceTable = make(PriceTable, len(e.PriceTable))
		for k, v := range e.PriceTable {
			c.PriceTable[k] = v
		}
	}
	if e.Extra != nil {
		c.Extra = make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// CloneEvents deep-copies a slice of events.
func CloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i := range events {
		out[i] = events[i].Clone()
	}
	return out
}
