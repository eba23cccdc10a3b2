// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package normalize

import (
	"strings"

	"github.com/tomtom215/encore/internal/models"
)

// canonicalStatus accepts the canonical names themselves from any source.
var canonicalStatus = map[string]models.TicketStatus{
	"upcoming": models.StatusUpcoming,
	"presale":  models.StatusPresale,
	"onsale":   models.StatusOnsale,
	"soldout":  models.StatusSoldout,
}

// statusTables maps each source's status vocabulary. Keys are lower-case.
var statusTables = map[models.SourceID]map[string]models.TicketStatus{
	models.SourceFeed: {
		"on_sale":  models.StatusOnsale,
		"판매중":      models.StatusOnsale,
		"예매중":      models.StatusOnsale,
		"예매가능":     models.StatusOnsale,
		"pre_sale": models.StatusPresale,
		"선예매":      models.StatusPresale,
		"팬클럽선예매":   models.StatusPresale,
		"sold_out": models.StatusSoldout,
		"매진":       models.StatusSoldout,
		"판매종료":     models.StatusSoldout,
		"예매종료":     models.StatusSoldout,
		"오픈예정":     models.StatusUpcoming,
		"coming":   models.StatusUpcoming,
	},
	// Cancelled and postponed shows are reported as sold out so they can
	// not be booked; postponed arguably belongs under upcoming.
	models.SourceTicketmaster: {
		"onsale":      models.StatusOnsale,
		"offsale":     models.StatusSoldout,
		"cancelled":   models.StatusSoldout,
		"canceled":    models.StatusSoldout,
		"postponed":   models.StatusSoldout,
		"rescheduled": models.StatusOnsale,
	},
	models.SourceKOPIS: {
		"공연예정": models.StatusUpcoming,
		"공연중":  models.StatusOnsale,
		"공연완료": models.StatusSoldout,
	},
}

// MapTicketStatus translates a source status code. Unrecognized codes map to
// StatusUpcoming.
func MapTicketStatus(source models.SourceID, code string) models.TicketStatus {
	key := strings.ToLower(strings.TrimSpace(code))
	key = strings.Join(strings.Fields(key), "")
	if key == "" {
		return models.StatusUpcoming
	}
	if table, ok := statusTables[source]; ok {
		if st, ok := table[key]; ok {
			return st
		}
	}
	if st, ok := canonicalStatus[key]; ok {
		return st
	}
	return models.StatusUpcoming
}
