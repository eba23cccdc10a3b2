// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package normalize

import (
	"strings"

	"github.com/tomtom215/encore/internal/models"
)

// PlaceholderPoster is used when a source provides no image.
const PlaceholderPoster = "https://via.placeholder.com/300x400?text=No+Image"

// DefaultPriceTable returns the placeholder grade prices used when a source
// has no pricing. It is not real pricing data.
func DefaultPriceTable() models.PriceTable {
	return models.PriceTable{"R": 99000, "S": 77000, "A": 55000}
}

// VenueID derives a stable venue identifier by collapsing whitespace runs
// into underscores. VenueID(VenueID(x)) == VenueID(x).
func VenueID(venueName string) string {
	return strings.Join(strings.Fields(venueName), "_")
}

// Description composes a short blurb from title and venue.
func Description(title, venue string) string {
	title = strings.TrimSpace(title)
	venue = strings.TrimSpace(venue)
	switch {
	case venue == "":
		return title
	case title == "":
		return venue
	default:
		return title + " - " + venue
	}
}

// ApplyDefaults fills every optional field that has a documented fallback.
// Adapters call it after mapping a raw record and before Validate.
func ApplyDefaults(e *models.Event) {
	e.Title = strings.TrimSpace(e.Title)
	if e.Artist == "" {
		e.Artist = e.Title
	}
	if e.TourName == "" {
		e.TourName = e.Title
	}
	if !e.Category.Valid() {
		e.Category = models.CategoryConcert
	}
	if e.TicketStatus == "" {
		e.TicketStatus = models.StatusUpcoming
	}
	if e.VenueID == "" {
		e.VenueID = VenueID(e.VenueName)
	}
	if strings.TrimSpace(e.PosterURL) == "" {
		e.PosterURL = PlaceholderPoster
	}
	if len(e.PriceTable) == 0 {
		e.PriceTable = DefaultPriceTable()
	}
	if e.TicketOpenDate != "" {
		e.TicketOpenDate = ParseFlexibleDate(e.TicketOpenDate)
		if !IsISODate(e.TicketOpenDate) {
			e.TicketOpenDate = ""
		}
	}
	if e.TicketOpenDate == "" && len(e.Dates) > 0 {
		e.TicketOpenDate = e.Dates[0]
	}
	if e.Description == "" {
		e.Description = Description(e.Title, e.VenueName)
	}
}
