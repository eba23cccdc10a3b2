// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package config loads Encore configuration from defaults, an optional YAML
// file and environment variables (in increasing priority) using koanf.
package config

import (
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host zoneinfo
)

// Config is the complete runtime configuration.
type Config struct {
	Feed         FeedConfig         `koanf:"feed"`
	Ticketmaster TicketmasterConfig `koanf:"ticketmaster"`
	KOPIS        KOPISConfig        `koanf:"kopis"`
	Curated      CuratedConfig      `koanf:"curated"`
	Aggregator   AggregatorConfig   `koanf:"aggregator"`
	Cache        CacheConfig        `koanf:"cache"`
	Store        StoreConfig        `koanf:"store"`
	Server       ServerConfig       `koanf:"server"`
	API          APIConfig          `koanf:"api"`
	Security     SecurityConfig     `koanf:"security"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// FeedConfig configures the scrape-feed companion service.
type FeedConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// MaxAttempts bounds fetch attempts; HealthAttempts bounds /health probes.
	MaxAttempts    int `koanf:"max_attempts"`
	HealthAttempts int `koanf:"health_attempts"`

	// BaseDelay is multiplied by the attempt number between retries.
	BaseDelay time.Duration `koanf:"base_delay"`

	// The feed cold-starts slowly, so the first attempt gets a longer budget.
	FirstTimeout time.Duration `koanf:"first_timeout"`
	RetryTimeout time.Duration `koanf:"retry_timeout"`

	Popularity int `koanf:"popularity"`
}

// TicketmasterConfig configures the Ticketmaster Discovery API source.
type TicketmasterConfig struct {
	Enabled     bool          `koanf:"enabled"`
	URL         string        `koanf:"url"`
	APIKey      string        `koanf:"api_key"`
	CountryCode string        `koanf:"country_code"`
	PageSize    int           `koanf:"page_size"`
	Timeout     time.Duration `koanf:"timeout"`
	RateLimit   float64       `koanf:"rate_limit"` // requests per second
	Popularity  int           `koanf:"popularity"`
}

// KOPISConfig configures the KOPIS performing-arts API source.
type KOPISConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	APIKey        string        `koanf:"api_key"`
	Rows          int           `koanf:"rows"`
	LookaheadDays int           `koanf:"lookahead_days"`
	Timeout       time.Duration `koanf:"timeout"`
	RateLimit     float64       `koanf:"rate_limit"`
	Popularity    int           `koanf:"popularity"`
}

// CuratedConfig configures the curated source backed by the local document store.
type CuratedConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Collection string        `koanf:"collection"`
	Timeout    time.Duration `koanf:"timeout"`
	Popularity int           `koanf:"popularity"` // used when a document has none
}

// AggregatorConfig controls the fan-out, merge and cache pipeline.
type AggregatorConfig struct {
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	SourceOrder    []string      `koanf:"source_order"`
	Timezone       string        `koanf:"timezone"`
	HealthCheck    bool          `koanf:"health_check"`
	BreakerEnabled bool          `koanf:"breaker_enabled"`
}

// CacheConfig configures the optional Redis snapshot tier.
type CacheConfig struct {
	RedisURL     string        `koanf:"redis_url"`
	RedisPrefix  string        `koanf:"redis_prefix"`
	RedisTimeout time.Duration `koanf:"redis_timeout"`
}

// StoreConfig configures the badger document store.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	SeedFile   string        `koanf:"seed_file"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig holds pagination settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds CORS and inbound rate limiting.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Location returns the configured timezone, falling back to UTC.
func (a AggregatorConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
