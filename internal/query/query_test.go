// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package query

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/encore/internal/models"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixture() []models.Event {
	return []models.Event{
		{ID: "a", Category: models.CategoryConcert, Dates: []string{"2026-04-01"}, Popularity: 50, PriceTable: models.PriceTable{"R": 99000, "S": 77000}},
		{ID: "b", Category: models.CategoryMusical, Dates: []string{"2026-03-20"}, Popularity: 90, PriceTable: models.PriceTable{"VIP": 150000, "A": 40000}},
		{ID: "c", Category: models.CategoryConcert, Dates: []string{"2026-03-15", "2026-03-16"}, Popularity: 90, PriceTable: models.PriceTable{"R": 60000}},
		{ID: "past", Category: models.CategoryConcert, Dates: []string{"2026-03-01"}, Popularity: 100, PriceTable: models.PriceTable{"R": 1}},
		{ID: "today", Category: models.CategoryMusical, Dates: []string{"2026-03-14", "2026-03-20"}, Popularity: 100, PriceTable: models.PriceTable{"R": 1}},
	}
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestApply_Sorts(t *testing.T) {
	tests := []struct {
		sort models.SortType
		want []string
	}{
		{models.SortPopularity, []string{"b", "c", "a"}},
		{"", []string{"b", "c", "a"}},
		{models.SortLatest, []string{"c", "b", "a"}},
		{models.SortDeadline, []string{"c", "b", "a"}},
		{models.SortPriceLow, []string{"b", "c", "a"}},
		{models.SortPriceHigh, []string{"b", "a", "c"}},
		{"mystery", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			res := Apply(fixture(), Params{Category: models.CategoryAll, Sort: tt.sort, Now: now})
			if got := ids(res.Events); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply(%s) = %v, want %v", tt.sort, got, tt.want)
			}
			if res.Total != 3 {
				t.Errorf("Total = %d", res.Total)
			}
		})
	}
}

func TestApply_PriceLowExample(t *testing.T) {
	events := []models.Event{
		{ID: "first", Dates: []string{"2026-05-01"}, PriceTable: models.PriceTable{"A": 50000}},
		{ID: "second", Dates: []string{"2026-05-01"}, PriceTable: models.PriceTable{"A": 10000, "B": 90000}},
	}
	res := Apply(events, Params{Sort: models.SortPriceLow, Now: now})
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"second", "first"}) {
		t.Errorf("price_low = %v", got)
	}
}

func TestApply_CategoryFilter(t *testing.T) {
	res := Apply(fixture(), Params{Category: models.CategoryMusical, Now: now})
	for _, e := range res.Events {
		if e.Category != models.CategoryMusical {
			t.Errorf("category filter leaked %q", e.ID)
		}
	}
	if got := ids(res.Events); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("musical = %v", got)
	}

	all := Apply(fixture(), Params{Category: models.CategoryAll, Now: now})
	none := Apply(fixture(), Params{Now: now})
	if all.Total != 3 || none.Total != 3 {
		t.Errorf("all/empty totals = %d/%d, want the full time-filtered input", all.Total, none.Total)
	}
}

func TestApply_ExcludesPastAndToday(t *testing.T) {
	for _, s := range models.SortTypes {
		for _, c := range append([]models.Category{models.CategoryAll}, models.Categories...) {
			res := Apply(fixture(), Params{Category: c, Sort: s, Now: now})
			for _, e := range res.Events {
				if e.ID == "past" || e.ID == "today" {
					t.Errorf("%s/%s returned %q", c, s, e.ID)
				}
			}
		}
	}
}

func TestApply_TimezoneDecidesToday(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	events := []models.Event{{ID: "x", Dates: []string{"2026-03-15"}}}
	// 16:00 UTC on the 14th is already the 15th in Seoul.
	late := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)

	if res := Apply(events, Params{Now: late}); res.Total != 1 {
		t.Error("in UTC the event is still upcoming")
	}
	if res := Apply(events, Params{Now: late, Location: seoul}); res.Total != 0 {
		t.Error("in Seoul the event is today and must be hidden")
	}
}

func TestApply_Pagination(t *testing.T) {
	tests := []struct {
		page, size int
		want       []string
		more       bool
	}{
		{1, 2, []string{"b", "c"}, true},
		{2, 2, []string{"a"}, false},
		{3, 2, []string{}, false},
		{0, 2, []string{"b", "c"}, true},
		{1, 0, []string{"b", "c", "a"}, false},
		{2, math.MaxInt/2 + 1, []string{}, false},
		{math.MaxInt, 2, []string{}, false},
		{1, math.MaxInt, []string{"b", "c", "a"}, false},
	}
	for _, tt := range tests {
		res := Apply(fixture(), Params{Sort: models.SortPopularity, Page: tt.page, PageSize: tt.size, Now: now})
		if got := ids(res.Events); !reflect.DeepEqual(got, tt.want) || res.HasMore != tt.more {
			t.Errorf("page %d size %d = %v more=%v, want %v more=%v", tt.page, tt.size, got, res.HasMore, tt.want, tt.more)
		}
		if res.Total != 3 {
			t.Errorf("Total = %d, want 3 regardless of page", res.Total)
		}
	}
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	in := fixture()
	_ = Apply(in, Params{Sort: models.SortPriceHigh, Now: now})
	if got := ids(in); !reflect.DeepEqual(got, []string{"a", "b", "c", "past", "today"}) {
		t.Errorf("input reordered: %v", got)
	}
}
