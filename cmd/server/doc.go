// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

/*
Package main is the entry point for the Encore server.

Encore aggregates concert and event listings from a scrape-feed companion
service, the Ticketmaster Discovery API, the KOPIS performing-arts API and
a curated document store, and serves them as one de-duplicated listing.

# Application Architecture

	RootSupervisor ("encore")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── StoreGCService (badger value log GC)
	│   └── CacheSweepService (expired listings)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Startup order:

 1. Configuration: koanf defaults, optional config file, environment
 2. Logging: zerolog, JSON or console
 3. Document store: badger, optionally seeded from a YAML file
 4. Snapshot tier: Redis, only when REDIS_URL is set
 5. Sources, cache and aggregator
 6. Chi router and the supervisor tree

# Configuration

	HTTP_PORT=8080
	LOG_LEVEL=info
	LOG_FORMAT=json

	FEED_ENABLED=true
	FEED_URL=http://feed:8000
	TICKETMASTER_ENABLED=true
	TICKETMASTER_API_KEY=<key>
	KOPIS_ENABLED=true
	KOPIS_API_KEY=<key>
	CURATED_ENABLED=true

	CACHE_TTL=10m
	SOURCE_ORDER=feed,ticketmaster,kopis,curated
	TIMEZONE=Asia/Seoul
	REDIS_URL=redis://localhost:6379/0

	STORE_PATH=/data/store
	STORE_SEED_FILE=/data/curated.yaml

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for up to 10s before the document store closes.

# Endpoints

	GET    /api/v1/events           listings (category, sort, page, page_size)
	GET    /api/v1/events/{id}      one event
	GET    /api/v1/sources          per-source status
	DELETE /api/v1/cache            invalidate cached listings
	GET    /api/v1/health/live      liveness
	GET    /api/v1/health/ready     readiness
	GET    /api/v1/health           detailed health
	GET    /metrics                 Prometheus
	GET    /swagger/*               API documentation
*/
package main
