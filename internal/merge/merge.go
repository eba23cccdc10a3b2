// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package merge combines per-source event lists into one list in which every
// real-world show appears once.
//
// Two events are the same show when DedupKey matches: lower-cased trimmed
// title plus first date. The key is a heuristic. Distinct shows sharing a
// title and an opening date are folded together, and the same show listed
// under slightly different titles is not.
package merge

import (
	"strings"

	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/normalize"
)

// DedupKey returns the identity used to detect one show across sources.
func DedupKey(e *models.Event) string {
	return strings.ToLower(strings.TrimSpace(e.Title)) + "|" + e.FirstDate()
}

// Result is the merged list plus how many inputs were folded away.
type Result struct {
	Events     []models.Event
	Duplicates int
}

// Merge folds lists in order. Output order is the order in which keys were
// first seen. On a key collision the survivor is the incoming event when it
// comes from an authoritative source and the current one does not; otherwise
// the first-seen event stays. Either way the survivor's dates become the
// sorted union of both. Inputs are not modified.
//
// Callers must pass lists in a fixed source order for the result to be
// reproducible.
func Merge(lists ...[]models.Event) Result {
	n := 0
	for _, l := range lists {
		n += len(l)
	}

	index := make(map[string]int, n)
	out := make([]models.Event, 0, n)
	dups := 0

	for _, list := range lists {
		for i := range list {
			incoming := list[i].Clone()
			key := DedupKey(&incoming)

			pos, seen := index[key]
			if !seen {
				index[key] = len(out)
				out = append(out, incoming)
				continue
			}

			dups++
			current := &out[pos]
			dates := normalize.UnionDates(current.Dates, incoming.Dates)
			if incoming.Source.Authoritative() && !current.Source.Authoritative() {
				*current = incoming
			}
			current.Dates = dates
		}
	}
	return Result{Events: out, Duplicates: dups}
}
