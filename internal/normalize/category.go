// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package normalize

import (
	"strings"

	"github.com/tomtom215/encore/internal/models"
)

type categoryRule struct {
	category models.Category
	keywords []string
}

// categoryRules is evaluated top to bottom; the first keyword hit wins.
// Specific categories come before concert so that e.g. "Music / Classical"
// resolves to classical.
var categoryRules = []categoryRule{
	{models.CategoryFestival, []string{"festival", "페스티벌", "축제"}},
	{models.CategorySports, []string{"sports", "sport", "스포츠", "football", "baseball", "basketball", "soccer"}},
	{models.CategoryClassical, []string{
		"classical", "classic", "orchestra", "symphony", "opera", "ballet", "chamber",
		"클래식", "오케스트라", "교향", "오페라", "발레", "국악", "무용",
	}},
	{models.CategoryMusical, []string{"musical", "뮤지컬", "theatre", "theater", "연극"}},
	{models.CategoryConcert, []string{"concert", "music", "콘서트", "대중음악", "pop", "rock", "hip-hop"}},
}

// InferCategory classifies free text such as a genre name or a
// "segment genre" pair. Unmatched text is a concert.
func InferCategory(text string) models.Category {
	t := strings.ToLower(text)
	if strings.TrimSpace(t) == "" {
		return models.CategoryConcert
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.category
			}
		}
	}
	return models.CategoryConcert
}
