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
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/normalize"
)

const ticketmasterEventsPath = "/discovery/v2/events.json"

// ticketmasterClassifications maps categories to Discovery API
// classificationName values.
var ticketmasterClassifications = map[models.Category]string{
	models.CategoryConcert:   "music",
	models.CategoryMusical:   "theatre",
	models.CategoryClassical: "classical",
	models.CategoryFestival:  "festival",
	models.CategorySports:    "sports",
}

// TicketmasterFetcher reads the Ticketmaster Discovery API.
type TicketmasterFetcher struct {
	http        *httpGetter
	apiKey      string
	countryCode string
	pageSize    int
	popularity  int
	now         func() time.Time
}

var _ Fetcher = (*TicketmasterFetcher)(nil)

// NewTicketmasterFetcher builds a fetcher from configuration.
func NewTicketmasterFetcher(cfg config.TicketmasterConfig) *TicketmasterFetcher {
	return &TicketmasterFetcher{
		http:        newHTTPGetter(models.SourceTicketmaster, cfg.URL, cfg.Timeout, cfg.RateLimit),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		countryCode: cfg.CountryCode,
		pageSize:    cfg.PageSize,
		popularity:  cfg.Popularity,
		now:         time.Now,
	}
}

// Name implements Fetcher.
func (t *TicketmasterFetcher) Name() models.SourceID { return models.SourceTicketmaster }

type tmResponse struct {
	Embedded *struct {
		Events []json.RawMessage `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Images []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
		} `json:"start"`
		Status struct {
			Code string `json:"code"`
		} `json:"status"`
	} `json:"dates"`
	Sales struct {
		Public struct {
			StartDateTime string `json:"startDateTime"`
		} `json:"public"`
		Presales []struct {
			Name          string `json:"name"`
			StartDateTime string `json:"startDateTime"`
			EndDateTime   string `json:"endDateTime"`
		} `json:"presales"`
	} `json:"sales"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
	} `json:"classifications"`
	PriceRanges []struct {
		Type string  `json:"type"`
		Min  float64 `json:"min"`
		Max  float64 `json:"max"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
		} `json:"venues"`
		Attractions []struct {
			Name string `json:"name"`
		} `json:"attractions"`
	} `json:"_embedded"`
}

// FetchEvents implements Fetcher. A missing API key fails without a network
// call.
func (t *TicketmasterFetcher) FetchEvents(ctx context.Context, req FetchRequest) ([]models.Event, error) {
	if t.apiKey == "" {
		return nil, newError(models.SourceTicketmaster, KindMissingCredentials, "events", errors.New("api key not configured"))
	}

	size := req.PageSize
	if size <= 0 {
		size = t.pageSize
	}
	page := req.Page - 1
	if page < 0 {
		page = 0
	}

	params := url.Values{}
	params.Set("apikey", t.apiKey)
	if name, ok := ticketmasterClassifications[req.Category]; ok {
		params.Set("classificationName", name)
	}
	if t.countryCode != "" {
		params.Set("countryCode", t.countryCode)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	params.Set("sort", "date,asc")

	body, err := t.http.get(ctx, "events", ticketmasterEventsPath, params)
	if err != nil {
		return nil, err
	}

	var resp tmResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newError(models.SourceTicketmaster, KindMalformed, "events", err)
	}
	// No _embedded block is how the API reports zero results.
	if resp.Embedded == nil {
		return []models.Event{}, nil
	}

	events := make([]models.Event, 0, len(resp.Embedded.Events))
	skipped := 0
	for i, msg := range resp.Embedded.Events {
		var raw tmEvent
		if err := json.Unmarshal(msg, &raw); err != nil {
			skipRecord(models.SourceTicketmaster, fmt.Sprintf("#%d", i), err)
			skipped++
			continue
		}
		ev, err := t.toEvent(raw)
		if err != nil {
			skipRecord(models.SourceTicketmaster, raw.ID, err)
			skipped++
			continue
		}
		events = append(events, ev)
	}
	metrics.RecordSkippedRecords(string(models.SourceTicketmaster), skipped)
	return events, nil
}

func (t *TicketmasterFetcher) toEvent(raw tmEvent) (models.Event, error) {
	if raw.ID == "" || strings.TrimSpace(raw.Name) == "" {
		return models.Event{}, errors.New("record has no id or name")
	}
	dates := normalize.NormalizeDates(raw.Dates.Start.LocalDate)
	if len(dates) == 0 {
		return models.Event{}, errors.New("record has no start date")
	}

	status := normalize.MapTicketStatus(models.SourceTicketmaster, raw.Dates.Status.Code)
	if status != models.StatusSoldout && t.inPresale(raw) {
		status = models.StatusPresale
	}

	var classification, genre string
	if len(raw.Classifications) > 0 {
		c := raw.Classifications[0]
		genre = c.Genre.Name
		classification = c.Segment.Name + " " + c.Genre.Name
	}

	var venue, city string
	if len(raw.Embedded.Venues) > 0 {
		venue = raw.Embedded.Venues[0].Name
		city = raw.Embedded.Venues[0].City.Name
	}
	var artist string
	if len(raw.Embedded.Attractions) > 0 {
		artist = raw.Embedded.Attractions[0].Name
	}

	ev := models.Event{
		ID:             models.SourceTicketmaster.EventID(raw.ID),
		Title:          raw.Name,
		Artist:         artist,
		Category:       normalize.InferCategory(classification),
		Genre:          genre,
		Dates:          dates,
		City:           city,
		VenueName:      venue,
		PosterURL:      largestImage(raw),
		TicketStatus:   status,
		TicketOpenDate: raw.Sales.Public.StartDateTime,
		PriceTable:     ticketmasterPrices(raw),
		Popularity:     t.popularity,
		BookingURL:     raw.URL,
		Source:         models.SourceTicketmaster,
	}
	normalize.ApplyDefaults(&ev)
	return ev, ev.Validate()
}

// inPresale reports whether now falls inside any presale window.
func (t *TicketmasterFetcher) inPresale(raw tmEvent) bool {
	now := t.now()
	for _, p := range raw.Sales.Presales {
		start, err1 := time.Parse(time.RFC3339, p.StartDateTime)
		end, err2 := time.Parse(time.RFC3339, p.EndDateTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if !now.Before(start) && now.Before(end) {
			return true
		}
	}
	return false
}

func largestImage(raw tmEvent) string {
	best, bestArea := "", -1
	for _, img := range raw.Images {
		if area := img.Width * img.Height; img.URL != "" && area > bestArea {
			best, bestArea = img.URL, area
		}
	}
	return best
}

// ticketmasterPrices turns price ranges into grade prices: the range type
// (default "standard") carries the minimum and "<type>_max" the maximum
// when it differs.
func ticketmasterPrices(raw tmEvent) models.PriceTable {
	var prices models.PriceTable
	for _, pr := range raw.PriceRanges {
		if pr.Min <= 0 && pr.Max <= 0 {
			continue
		}
		if prices == nil {
			prices = models.PriceTable{}
		}
		label := strings.TrimSpace(pr.Type)
		if label == "" {
			label = "standard"
		}
		lo := int(math.Round(pr.Min))
		if lo <= 0 {
			lo = int(math.Round(pr.Max))
		}
		prices[label] = lo
		if hi := int(math.Round(pr.Max)); hi > lo {
			prices[label+"_max"] = hi
		}
	}
	return prices
}

// Probe requests a single event to check the key and the API.
func (t *TicketmasterFetcher) Probe(ctx context.Context) error {
	if t.apiKey == "" {
		return newError(models.SourceTicketmaster, KindMissingCredentials, "probe", errors.New("api key not configured"))
	}
	params := url.Values{}
	params.Set("apikey", t.apiKey)
	params.Set("size", "1")
	_, err := t.http.get(ctx, "probe", ticketmasterEventsPath, params)
	return err
}
