// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package sources

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/metrics"
	"github.com/tomtom215/encore/internal/models"
	"github.com/tomtom215/encore/internal/normalize"
)

const (
	kopisListPath     = "/openApi/restful/pblprfr"
	kopisDateLayout   = "20060102"
	kopisMaxRangeDays = 14
)

// kopisGenres maps categories to KOPIS shcate genre codes. Festival has no
// code and is requested unfiltered; sports is not covered by KOPIS at all.
var kopisGenres = map[models.Category]string{
	models.CategoryConcert:   "CCCD", // 대중음악
	models.CategoryMusical:   "GGGA", // 뮤지컬
	models.CategoryClassical: "CCCA", // 서양음악(클래식)
}

// KOPISFetcher reads the KOPIS performing-arts listing API, which answers
// in XML.
type KOPISFetcher struct {
	http          *httpGetter
	apiKey        string
	rows          int
	lookaheadDays int
	popularity    int
	loc           *time.Location
	now           func() time.Time
}

var _ Fetcher = (*KOPISFetcher)(nil)

// NewKOPISFetcher builds a fetcher. loc decides which calendar day "today"
// is for the listing window.
func NewKOPISFetcher(cfg config.KOPISConfig, loc *time.Location) *KOPISFetcher {
	if loc == nil {
		loc = time.UTC
	}
	return &KOPISFetcher{
		http:          newHTTPGetter(models.SourceKOPIS, cfg.URL, cfg.Timeout, cfg.RateLimit),
		apiKey:        strings.TrimSpace(cfg.APIKey),
		rows:          cfg.Rows,
		lookaheadDays: cfg.LookaheadDays,
		popularity:    cfg.Popularity,
		loc:           loc,
		now:           time.Now,
	}
}

// Name implements Fetcher.
func (k *KOPISFetcher) Name() models.SourceID { return models.SourceKOPIS }

// kopisList is the <dbs><db>...</db></dbs> document. Each <db> is read as a
// flat element-name to text map so the mapping below works on plain keys,
// the same shape the JSON sources produce.
type kopisList struct {
	XMLName xml.Name   `xml:"dbs"`
	Items   []kopisRow `xml:"db"`
}

type kopisRow struct {
	Fields []kopisField `xml:",any"`
}

type kopisField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func (r kopisRow) toMap() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.XMLName.Local] = strings.TrimSpace(f.Value)
	}
	return m
}

// parseKOPISList decodes a listing body into one map per <db> record.
func parseKOPISList(body []byte) ([]map[string]string, error) {
	var list kopisList
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&list); err != nil {
		return nil, err
	}
	rows := make([]map[string]string, len(list.Items))
	for i, item := range list.Items {
		rows[i] = item.toMap()
	}
	return rows, nil
}

// FetchEvents implements Fetcher.
func (k *KOPISFetcher) FetchEvents(ctx context.Context, req FetchRequest) ([]models.Event, error) {
	if k.apiKey == "" {
		return nil, newError(models.SourceKOPIS, KindMissingCredentials, "list", errors.New("service key not configured"))
	}
	if req.Category == models.CategorySports {
		return []models.Event{}, nil
	}

	rows := req.PageSize
	if rows <= 0 {
		rows = k.rows
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	today := k.now().In(k.loc)

	params := url.Values{}
	params.Set("service", k.apiKey)
	params.Set("stdate", today.Format(kopisDateLayout))
	params.Set("eddate", today.AddDate(0, 0, k.lookaheadDays).Format(kopisDateLayout))
	params.Set("cpage", strconv.Itoa(page))
	params.Set("rows", strconv.Itoa(rows))
	if code, ok := kopisGenres[req.Category]; ok {
		params.Set("shcate", code)
	}

	body, err := k.http.get(ctx, "list", kopisListPath, params)
	if err != nil {
		return nil, err
	}
	records, err := parseKOPISList(body)
	if err != nil {
		return nil, newError(models.SourceKOPIS, KindMalformed, "list", err)
	}
	// Errors come back as HTTP 200 with a single returncode record.
	if len(records) == 1 && records[0]["returncode"] != "" && records[0]["returncode"] != "00" {
		rec := records[0]
		return nil, newError(models.SourceKOPIS, kopisReturnKind(rec["returncode"]), "list",
			fmt.Errorf("returncode %s: %s", rec["returncode"], rec["errmsg"]))
	}

	events := make([]models.Event, 0, len(records))
	skipped := 0
	for _, rec := range records {
		ev, err := k.toEvent(rec)
		if err != nil {
			skipRecord(models.SourceKOPIS, rec["mt20id"], err)
			skipped++
			continue
		}
		events = append(events, ev)
	}
	metrics.RecordSkippedRecords(string(models.SourceKOPIS), skipped)
	return events, nil
}

// kopisReturnKind classifies the public data portal's error codes.
func kopisReturnKind(code string) Kind {
	switch code {
	case "20", "30", "31", "32": // unregistered, expired or invalid key
		return KindUnauthorized
	case "22": // daily quota exceeded
		return KindRateLimited
	default:
		return KindUnavailable
	}
}

// toEvent classifies a record from its own festival flag and genre only. An
// unfiltered festival request also returns non-festival rows; the caller's
// category filter drops those.
func (k *KOPISFetcher) toEvent(rec map[string]string) (models.Event, error) {
	id, title := rec["mt20id"], rec["prfnm"]
	if id == "" || title == "" {
		return models.Event{}, errors.New("record has no mt20id or prfnm")
	}

	start := normalize.ParseFlexibleDate(rec["prfpdfrom"])
	end := normalize.ParseFlexibleDate(firstNonEmpty(rec["prfpdto"], rec["prfpdfrom"]))
	dates := normalize.NormalizeDates(normalize.ExpandRange(start, end, kopisMaxRangeDays)...)
	if len(dates) == 0 {
		return models.Event{}, errors.New("record has no parseable period")
	}

	category := normalize.InferCategory(rec["genrenm"])
	if strings.EqualFold(rec["festival"], "Y") {
		category = models.CategoryFestival
	}

	ev := models.Event{
		ID:           models.SourceKOPIS.EventID(id),
		Title:        title,
		Category:     category,
		Genre:        rec["genrenm"],
		Dates:        dates,
		City:         rec["area"],
		VenueName:    rec["fcltynm"],
		PosterURL:    rec["poster"],
		TicketStatus: normalize.MapTicketStatus(models.SourceKOPIS, rec["prfstate"]),
		Popularity:   k.popularity,
		Source:       models.SourceKOPIS,
	}
	if rec["openrun"] == "Y" {
		ev.Extra = map[string]string{"openrun": "Y"}
	}
	normalize.ApplyDefaults(&ev)
	return ev, ev.Validate()
}

// Probe requests a one-row listing for today.
func (k *KOPISFetcher) Probe(ctx context.Context) error {
	if k.apiKey == "" {
		return newError(models.SourceKOPIS, KindMissingCredentials, "probe", errors.New("service key not configured"))
	}
	today := k.now().In(k.loc).Format(kopisDateLayout)
	params := url.Values{}
	params.Set("service", k.apiKey)
	params.Set("stdate", today)
	params.Set("eddate", today)
	params.Set("cpage", "1")
	params.Set("rows", "1")
	body, err := k.http.get(ctx, "probe", kopisListPath, params)
	if err != nil {
		return err
	}
	if _, err := parseKOPISList(body); err != nil {
		return newError(models.SourceKOPIS, KindMalformed, "probe", err)
	}
	return nil
}
