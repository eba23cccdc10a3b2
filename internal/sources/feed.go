// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/normalize"
	"github.com/tomtom215/encore/internal/retry"
)

// feedMaxRangeDays caps how many dates a start/end pair expands into.
const feedMaxRangeDays = 31

// FeedFetcher reads the scrape-feed companion service:
//
//	GET /concerts?category=&sortType=  -> {success, count, concerts: [...]}
//	GET /health                        -> {status: "ok"}
//
// The service launches a headless browser on a cold start, so calls run
// under a retry policy with a longer first-attempt timeout.
type FeedFetcher struct {
	http       *httpGetter
	policy     retry.Policy
	health     retry.Policy
	popularity int
}

var _ Fetcher = (*FeedFetcher)(nil)

// NewFeedFetcher builds a fetcher from configuration.
func NewFeedFetcher(cfg config.FeedConfig) *FeedFetcher {
	f := &FeedFetcher{
		http:       newHTTPGetter(models.SourceFeed, cfg.URL, 0, 0),
		popularity: cfg.Popularity,
	}
	f.policy = retry.Policy{
		MaxAttempts:  cfg.MaxAttempts,
		BaseDelay:    cfg.BaseDelay,
		FirstTimeout: cfg.FirstTimeout,
		RetryTimeout: cfg.RetryTimeout,
		OnRetry:      f.onRetry,
	}
	f.health = f.policy.WithAttempts(cfg.HealthAttempts)
	return f
}

// Policy returns the fetch retry policy; its Budget sizes the adapter
// timeout.
func (f *FeedFetcher) Policy() retry.Policy { return f.policy }

// Name implements Fetcher.
func (f *FeedFetcher) Name() models.SourceID { return models.SourceFeed }

func (f *FeedFetcher) onRetry(attempt int, delay time.Duration, err error) {
	metrics.RecordRetry(string(models.SourceFeed))
	log := logging.WithSource(string(models.SourceFeed))
	log.Info().
		Int("attempt", attempt).
		Dur("backoff", delay).
		Str("kind", string(KindOf(err))).
		Err(err).
		Msg("Feed attempt failed, retrying")
}

// feedEnvelope is the /concerts response. Concerts is a pointer so a
// missing key can be told apart from an empty list.
type feedEnvelope struct {
	Success  bool               `json:"success"`
	Count    int                `json:"count"`
	Concerts *[]json.RawMessage `json:"concerts"`
	Error    string             `json:"error"`
}

// feedRecord lists every field name the feed has used; several are
// alternates for the same value.
type feedRecord struct {
	ProdID         flexString         `json:"prodId"`
	ProductID      flexString         `json:"productId"`
	Title          string             `json:"title"`
	ProdName       string             `json:"prodName"`
	Artist         string             `json:"artist"`
	TourName       string             `json:"tourName"`
	Genre          string             `json:"genre"`
	Category       string             `json:"category"`
	Dates          []string           `json:"dates"`
	StartDate      string             `json:"startDate"`
	EndDate        string             `json:"endDate"`
	City           string             `json:"city"`
	Venue          string             `json:"venue"`
	PlaceName      string             `json:"placeName"`
	PosterURL      string             `json:"posterUrl"`
	PosterImg      string             `json:"posterImg"`
	TicketStatus   string             `json:"ticketStatus"`
	TicketOpenDate string             `json:"ticketOpenDate"`
	PriceTable     map[string]flexInt `json:"priceTable"`
	BookingURL     string             `json:"bookingUrl"`
}

// FetchEvents implements Fetcher.
func (f *FeedFetcher) FetchEvents(ctx context.Context, req FetchRequest) ([]models.Event, error) {
	return retry.Do(ctx, f.policy, func(ctx context.Context, _ int) ([]models.Event, error) {
		events, err := f.fetchOnce(ctx, req)
		switch KindOf(err) {
		case KindUnauthorized, KindMalformed:
			return nil, retry.Permanent(err)
		}
		return events, err
	})
}

func (f *FeedFetcher) fetchOnce(ctx context.Context, req FetchRequest) ([]models.Event, error) {
	category := req.Category
	if category == "" {
		category = models.CategoryAll
	}
	sortType := req.Sort
	if sortType == "" {
		sortType = models.SortPopularity
	}
	params := url.Values{}
	params.Set("category", string(category))
	params.Set("sortType", string(sortType))

	body, err := f.http.get(ctx, "concerts", "/concerts", params)
	if err != nil {
		return nil, err
	}

	var env feedEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newError(models.SourceFeed, KindMalformed, "concerts", err)
	}
	if !env.Success {
		return nil, newError(models.SourceFeed, KindUnavailable, "concerts", fmt.Errorf("feed reported failure: %s", env.Error))
	}
	if env.Concerts == nil {
		return nil, newError(models.SourceFeed, KindMalformed, "concerts", errors.New("missing concerts key"))
	}

	raw := *env.Concerts
	events := make([]models.Event, 0, len(raw))
	skipped := 0
	for i, msg := range raw {
		var rec feedRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipRecord(models.SourceFeed, fmt.Sprintf("#%d", i), err)
			skipped++
			continue
		}
		ev, err := f.toEvent(rec, req.Category)
		if err != nil {
			skipRecord(models.SourceFeed, firstNonEmpty(string(rec.ProdID), string(rec.ProductID)), err)
			skipped++
			continue
		}
		events = append(events, ev)
	}
	metrics.RecordSkippedRecords(string(models.SourceFeed), skipped)
	return events, nil
}

func (f *FeedFetcher) toEvent(rec feedRecord, hint models.Category) (models.Event, error) {
	rawID := firstNonEmpty(string(rec.ProdID), string(rec.ProductID))
	title := firstNonEmpty(rec.Title, rec.ProdName)
	if rawID == "" || title == "" {
		return models.Event{}, errors.New("record has no id or title")
	}

	dates := normalize.NormalizeDates(rec.Dates...)
	if len(dates) == 0 && rec.StartDate != "" {
		start := normalize.ParseFlexibleDate(rec.StartDate)
		end := normalize.ParseFlexibleDate(firstNonEmpty(rec.EndDate, rec.StartDate))
		dates = normalize.NormalizeDates(normalize.ExpandRange(start, end, feedMaxRangeDays)...)
	}
	if len(dates) == 0 {
		return models.Event{}, errors.New("record has no parseable date")
	}

	category := models.Category(strings.ToLower(strings.TrimSpace(rec.Category)))
	if !category.Valid() {
		if hint.Valid() {
			category = hint
		} else {
			category = normalize.InferCategory(rec.Genre + " " + title)
		}
	}

	var prices models.PriceTable
	for grade, price := range rec.PriceTable {
		if price > 0 {
			if prices == nil {
				prices = models.PriceTable{}
			}
			prices[grade] = int(price)
		}
	}

	venue := firstNonEmpty(rec.Venue, rec.PlaceName)
	ev := models.Event{
		ID:             models.SourceFeed.EventID(rawID),
		Title:          title,
		Artist:         strings.TrimSpace(rec.Artist),
		TourName:       strings.TrimSpace(rec.TourName),
		Category:       category,
		Genre:          strings.TrimSpace(rec.Genre),
		Dates:          dates,
		City:           strings.TrimSpace(rec.City),
		VenueName:      venue,
		PosterURL:      firstNonEmpty(rec.PosterURL, rec.PosterImg),
		TicketStatus:   normalize.MapTicketStatus(models.SourceFeed, rec.TicketStatus),
		TicketOpenDate: rec.TicketOpenDate,
		PriceTable:     prices,
		Popularity:     f.popularity,
		BookingURL:     strings.TrimSpace(rec.BookingURL),
		Source:         models.SourceFeed,
	}
	normalize.ApplyDefaults(&ev)
	return ev, ev.Validate()
}

type feedHealth struct {
	Status string `json:"status"`
}

// Probe calls /health under the smaller health retry budget.
func (f *FeedFetcher) Probe(ctx context.Context) error {
	_, err := retry.Do(ctx, f.health, func(ctx context.Context, _ int) (struct{}, error) {
		body, err := f.http.get(ctx, "health", "/health", nil)
		if err != nil {
			return struct{}{}, err
		}
		var h feedHealth
		if err := json.Unmarshal(body, &h); err != nil {
			return struct{}{}, newError(models.SourceFeed, KindMalformed, "health", err)
		}
		if !strings.EqualFold(h.Status, "ok") {
			return struct{}{}, newError(models.SourceFeed, KindUnavailable, "health", fmt.Errorf("status %q", h.Status))
		}
		return struct{}{}, nil
	})
	return err
}
