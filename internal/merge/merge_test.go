// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package merge

import (
	"reflect"
	"testing"

	"github.com/tomtom215/encore/internal/models"
)

func ev(id, title string, source models.SourceID, dates ...string) models.Event {
	return models.Event{ID: id, Title: title, Source: source, Dates: dates, Popularity: 1}
}

func TestDedupKey(t *testing.T) {
	a := ev("tm_1", "  Spring TOUR ", models.SourceTicketmaster, "2026-05-01", "2026-05-02")
	b := ev("melon_9", "spring tour", models.SourceFeed, "2026-05-01")
	if DedupKey(&a) != "spring tour|2026-05-01" {
		t.Errorf("DedupKey() = %q", DedupKey(&a))
	}
	if DedupKey(&a) != DedupKey(&b) {
		t.Error("case and surrounding space must not matter")
	}
	empty := models.Event{Title: "X"}
	if DedupKey(&empty) != "x|" {
		t.Errorf("DedupKey(no dates) = %q", DedupKey(&empty))
	}
}

func TestMerge_UnionsDates(t *testing.T) {
	first := []models.Event{ev("melon_1", "Spring Tour", models.SourceFeed, "2026-05-01", "2026-05-03")}
	second := []models.Event{ev("tm_1", "spring tour", models.SourceTicketmaster, "2026-05-01", "2026-05-02")}

	res := Merge(first, second)
	if len(res.Events) != 1 || res.Duplicates != 1 {
		t.Fatalf("Merge() = %d events, %d dups", len(res.Events), res.Duplicates)
	}
	got := res.Events[0]
	if got.ID != "melon_1" {
		t.Errorf("survivor = %q, want first seen", got.ID)
	}
	want := []string{"2026-05-01", "2026-05-02", "2026-05-03"}
	if !reflect.DeepEqual(got.Dates, want) {
		t.Errorf("dates = %v, want %v", got.Dates, want)
	}
}

func TestMerge_CuratedWins(t *testing.T) {
	scraped := []models.Event{ev("melon_1", "Gala", models.SourceFeed, "2026-05-01", "2026-05-04")}
	curated := []models.Event{ev("curated_gala", "GALA", models.SourceCurated, "2026-05-01", "2026-05-02")}

	for name, lists := range map[string][][]models.Event{
		"curated last":  {scraped, curated},
		"curated first": {curated, scraped},
	} {
		t.Run(name, func(t *testing.T) {
			res := Merge(lists...)
			if len(res.Events) != 1 {
				t.Fatalf("len = %d", len(res.Events))
			}
			got := res.Events[0]
			if got.ID != "curated_gala" {
				t.Errorf("survivor = %q, want curated", got.ID)
			}
			if !reflect.DeepEqual(got.Dates, []string{"2026-05-01", "2026-05-02", "2026-05-04"}) {
				t.Errorf("dates = %v", got.Dates)
			}
		})
	}
}

func TestMerge_TwoCuratedKeepFirst(t *testing.T) {
	a := ev("curated_a", "Gala", models.SourceCurated, "2026-05-01")
	b := ev("curated_b", "Gala", models.SourceCurated, "2026-05-01", "2026-05-09")
	res := Merge([]models.Event{a}, []models.Event{b})
	if res.Events[0].ID != "curated_a" || len(res.Events[0].Dates) != 2 {
		t.Errorf("survivor = %+v", res.Events[0])
	}
}

func TestMerge_PreservesFirstSeenOrder(t *testing.T) {
	l1 := []models.Event{
		ev("melon_1", "A", models.SourceFeed, "2026-05-01"),
		ev("melon_2", "B", models.SourceFeed, "2026-05-01"),
	}
	l2 := []models.Event{
		ev("tm_3", "C", models.SourceTicketmaster, "2026-05-01"),
		ev("tm_1", "a", models.SourceTicketmaster, "2026-05-01"),
		ev("tm_4", "B", models.SourceTicketmaster, "2026-06-01"), // different first date
	}
	res := Merge(l1, l2)
	var ids []string
	for _, e := range res.Events {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"melon_1", "melon_2", "tm_3", "tm_4"}) {
		t.Errorf("order = %v", ids)
	}
	if res.Duplicates != 1 {
		t.Errorf("Duplicates = %d", res.Duplicates)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	in := []models.Event{ev("melon_1", "A", models.SourceFeed, "2026-05-01")}
	other := []models.Event{ev("tm_1", "A", models.SourceTicketmaster, "2026-05-01", "2026-05-02")}
	_ = Merge(in, other)
	if len(in[0].Dates) != 1 {
		t.Errorf("input dates mutated: %v", in[0].Dates)
	}
}

func TestMerge_Empty(t *testing.T) {
	res := Merge()
	if res.Events == nil || len(res.Events) != 0 {
		t.Errorf("Merge() = %#v", res.Events)
	}
	res = Merge(nil, []models.Event{})
	if len(res.Events) != 0 {
		t.Errorf("Merge(nil, empty) = %#v", res.Events)
	}
}
