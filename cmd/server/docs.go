// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// @title Encore API
// @version 1.0
// @description Concert and event listings aggregated from several ticketing sources.
// @description
// @description ## Listings
// @description
// @description Events from every enabled source are merged, de-duplicated by title and first date,
// @description filtered by category and sorted. Events whose first date is today or earlier are never listed.
// @description Listing pages carry an ETag; send it back in If-None-Match to receive 304 Not Modified.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description
// @description ## Error Responses
// @description
// @description All error responses use the same envelope:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {"code": "VALIDATION_ERROR", "message": "...", "details": {}},
// @description   "meta": {"request_id": "...", "timestamp": "2026-05-01T12:00:00Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/encore/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Events
// @tag.description Aggregated event listings
//
// @tag.name Operations
// @tag.description Source status and cache control
//
// @tag.name Health
// @tag.description Liveness, readiness and detailed health
package main
