// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package normalize

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_DateFormatsAgree(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Every supported rendering of the same day normalizes to one ISO string.
	properties.Property("all literal formats map to the same ISO date", prop.ForAll(
		func(year, month, day int) bool {
			want := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			inputs := []string{
				fmt.Sprintf("%04d%02d%02d", year, month, day),
				fmt.Sprintf("%04d.%02d.%02d", year, month, day),
				fmt.Sprintf("%04d.%d.%d", year, month, day),
				want,
				want + "T20:00:00Z",
				fmt.Sprintf("%04d년 %02d월 %02d일", year, month, day),
				fmt.Sprintf("%04d년 %d월 %d일", year, month, day),
			}
			for _, in := range inputs {
				if ParseFlexibleDate(in) != want {
					return false
				}
			}
			return true
		},
		gen.IntRange(2000, 2099),
		gen.IntRange(1, 12),
		gen.IntRange(1, 28),
	))

	properties.TestingRun(t)
}

func TestProperty_NormalizeDatesSortedUnique(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("output is non-empty, ascending and duplicate free", prop.ForAll(
		func(offsets []int) bool {
			raw := make([]string, len(offsets))
			for i, off := range offsets {
				d := base.AddDate(0, 0, off)
				// Alternate formats so parsing is exercised too.
				if i%2 == 0 {
					raw[i] = d.Format("20060102")
				} else {
					raw[i] = d.Format("2006.01.02")
				}
			}
			got := NormalizeDates(raw...)
			if len(got) == 0 {
				return false
			}
			if !sort.StringsAreSorted(got) {
				return false
			}
			for i := 1; i < len(got); i++ {
				if got[i] == got[i-1] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(0, 10)).SuchThat(func(v []int) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t)
}

func TestProperty_VenueIDIdempotent(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("VenueID(VenueID(x)) == VenueID(x)", prop.ForAll(
		func(name string) bool {
			once := VenueID(name)
			return VenueID(once) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
