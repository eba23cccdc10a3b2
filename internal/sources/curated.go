// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package sources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/encore/internal/docstore"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/normalize"
)

// DocumentQuerier is the slice of the document store the curated source
// needs. *docstore.Store implements it.
type DocumentQuerier interface {
	Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error)
	Ping(ctx context.Context) error
}

// CuratedFetcher reads hand-maintained listings from the document store.
// Its events win dedup conflicts against every other source.
type CuratedFetcher struct {
	store      DocumentQuerier
	collection string
	popularity int
}

var _ Fetcher = (*CuratedFetcher)(nil)

// NewCuratedFetcher builds a fetcher over store. Every curated event gets
// popularity; a document's own popularity field only orders the query.
func NewCuratedFetcher(store DocumentQuerier, collection string, popularity int) *CuratedFetcher {
	return &CuratedFetcher{store: store, collection: collection, popularity: popularity}
}

// Name implements Fetcher.
func (c *CuratedFetcher) Name() models.SourceID { return models.SourceCurated }

// FetchEvents implements Fetcher. Paging is left to the query engine; the
// collection is small.
func (c *CuratedFetcher) FetchEvents(ctx context.Context, req FetchRequest) ([]models.Event, error) {
	if c.store == nil {
		return nil, newError(models.SourceCurated, KindUnavailable, "query", errors.New("no document store"))
	}

	q := docstore.Query{}
	if req.Category.Valid() {
		q = docstore.Where("category", docstore.OpEq, string(req.Category))
	}
	q = q.Order("popularity", true)

	docs, err := c.store.Query(ctx, c.collection, q)
	if err != nil {
		return nil, newError(models.SourceCurated, KindUnavailable, "query", err)
	}

	events := make([]models.Event, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		ev, err := c.toEvent(doc)
		if err != nil {
			skipRecord(models.SourceCurated, doc.ID, err)
			skipped++
			continue
		}
		events = append(events, ev)
	}
	metrics.RecordSkippedRecords(string(models.SourceCurated), skipped)
	return events, nil
}

func (c *CuratedFetcher) toEvent(doc docstore.Document) (models.Event, error) {
	f := doc.Fields
	id := firstNonEmpty(str(f, "id"), doc.ID)
	title := str(f, "title")
	if id == "" || title == "" {
		return models.Event{}, errors.New("document has no id or title")
	}

	dates := normalize.NormalizeDates(strList(f, "dates")...)
	if len(dates) == 0 {
		dates = normalize.NormalizeDates(str(f, "date"))
	}
	if len(dates) == 0 {
		return models.Event{}, errors.New("document has no parseable date")
	}

	category := models.Category(strings.ToLower(str(f, "category")))
	if !category.Valid() {
		category = normalize.InferCategory(str(f, "genre"))
	}

	ev := models.Event{
		ID:             models.SourceCurated.EventID(id),
		Title:          title,
		Artist:         str(f, "artist"),
		TourName:       str(f, "tourName"),
		Category:       category,
		Genre:          str(f, "genre"),
		Dates:          dates,
		City:           str(f, "city"),
		VenueName:      firstNonEmpty(str(f, "venueName"), str(f, "venue")),
		VenueID:        str(f, "venueId"),
		PosterURL:      str(f, "posterUrl"),
		TicketStatus:   normalize.MapTicketStatus(models.SourceCurated, str(f, "ticketStatus")),
		TicketOpenDate: str(f, "ticketOpenDate"),
		PriceTable:     priceMap(f["priceTable"]),
		Popularity:     c.popularity,
		Description:    str(f, "description"),
		BookingURL:     str(f, "bookingUrl"),
		Source:         models.SourceCurated,
	}
	normalize.ApplyDefaults(&ev)
	return ev, ev.Validate()
}

// Probe checks the store is open.
func (c *CuratedFetcher) Probe(ctx context.Context) error {
	if c.store == nil {
		return newError(models.SourceCurated, KindUnavailable, "probe", errors.New("no document store"))
	}
	if err := c.store.Ping(ctx); err != nil {
		return newError(models.SourceCurated, KindUnavailable, "probe", err)
	}
	return nil
}

func str(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func strList(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}

func num(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func priceMap(v any) models.PriceTable {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	var prices models.PriceTable
	for g, val := range raw {
		if p, ok := num(val); ok && p > 0 {
			if prices == nil {
				prices = models.PriceTable{}
			}
			prices[g] = int(p)
		}
	}
	return prices
}
