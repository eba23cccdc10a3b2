// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package normalize holds the stateless helpers every source adapter uses to
// shape raw records into models.Event: date parsing, ticket status and
// category vocabularies, and field defaults.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/encore/internal/logging"
)

const isoLayout = "2006-01-02"

// datePatterns are tried in order; each must capture year, month, day.
var datePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"compact", regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)},
	{"dotted", regexp.MustCompile(`^(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?$`)},
	{"iso", regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[T ].*)?$`)},
	{"slashed", regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)},
	{"korean", regexp.MustCompile(`^(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`)},
}

// ParseFlexibleDate converts a raw date string to YYYY-MM-DD.
//
// Accepted forms: 20260314, 2026.03.14, 2026-03-14 (optionally followed by a
// time), 2026/03/14 and "2026년 3월 14일". Empty input returns "". Anything
// else, including impossible calendar dates, is returned unchanged and
// logged as a warning.
func ParseFlexibleDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		iso := fmt.Sprintf("%s-%s-%s", m[1], pad2(m[2]), pad2(m[3]))
		if _, err := time.Parse(isoLayout, iso); err != nil {
			break
		}
		return iso
	}

	logging.Warn().Str("raw", raw).Msg("unrecognized date format")
	return raw
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// IsISODate reports whether s is a valid YYYY-MM-DD date.
func IsISODate(s string) bool {
	if len(s) != len(isoLayout) {
		return false
	}
	_, err := time.Parse(isoLayout, s)
	return err == nil
}

// NormalizeDates parses every raw date and returns the valid ones sorted
// ascending without duplicates. The result is empty when nothing parses.
func NormalizeDates(raw ...string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		d := ParseFlexibleDate(r)
		if !IsISODate(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// UnionDates merges date lists into one sorted, de-duplicated list.
// Inputs are expected to be ISO already.
func UnionDates(lists ...[]string) []string {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, l := range lists {
		for _, d := range l {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// ExpandRange returns every date from start to end inclusive. A reversed or
// unparseable end yields only start; a span longer than maxDays yields just
// the two endpoints.
func ExpandRange(start, end string, maxDays int) []string {
	from, err := time.Parse(isoLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(isoLayout, end)
	if err != nil || to.Before(from) {
		return []string{start}
	}
	if int(to.Sub(from).Hours()/24) > maxDays {
		return []string{start, end}
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(isoLayout))
	}
	return out
}

// Today returns the current date in loc as YYYY-MM-DD.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(isoLayout)
}
