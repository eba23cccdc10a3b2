// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package models

import "strings"

// SourceID identifies an upstream data source.
type SourceID string

const (
	SourceFeed         SourceID = "feed"
	SourceTicketmaster SourceID = "ticketmaster"
	SourceKOPIS        SourceID = "kopis"
	SourceCurated      SourceID = "curated"
)

// sourcePrefixes holds the event-id prefix of each source. The feed keeps the
// prefix of the ticketing site it scrapes so ids stay stable for clients.
var sourcePrefixes = map[SourceID]string{
	SourceFeed:         "melon_",
	SourceTicketmaster: "tm_",
	SourceKOPIS:        "kopis_",
	SourceCurated:      "curated_",
}

// Prefix returns the event-id prefix for s.
func (s SourceID) Prefix() string {
	return sourcePrefixes[s]
}

// EventID builds a source-prefixed event id. Raw ids that already carry the
// prefix are returned unchanged.
func (s SourceID) EventID(raw string) string {
	p := s.Prefix()
	if strings.HasPrefix(raw, p) {
		return raw
	}
	return p + raw
}

// Authoritative reports whether s wins dedup conflicts against other sources.
func (s SourceID) Authoritative() bool {
	return s == SourceCurated
}

// SourceOf derives the source from an event id prefix. ok is false for
// unknown prefixes.
func SourceOf(eventID string) (SourceID, bool) {
	for s, p := range sourcePrefixes {
		if strings.HasPrefix(eventID, p) {
			return s, true
		}
	}
	return "", false
}
