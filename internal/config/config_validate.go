// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package config

import (
	"fmt"
	"net/url"
	"time"
)

// KnownSources are the source names accepted in aggregator.source_order.
var KnownSources = map[string]bool{
	"curated":      true,
	"feed":         true,
	"ticketmaster": true,
	"kopis":        true,
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{"json": true, "console": true}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateTicketmaster(); err != nil {
		return err
	}
	if err := c.validateKOPIS(); err != nil {
		return err
	}
	if err := c.validateAggregator(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFeed() error {
	if !c.Feed.Enabled {
		return nil
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("FEED_URL is required when FEED_ENABLED=true")
	}
	if err := validateHTTPURL(c.Feed.URL, "FEED_URL"); err != nil {
		return err
	}
	if c.Feed.MaxAttempts < 1 {
		return fmt.Errorf("FEED_MAX_ATTEMPTS must be at least 1")
	}
	if c.Feed.HealthAttempts < 1 {
		return fmt.Errorf("FEED_HEALTH_ATTEMPTS must be at least 1")
	}
	if c.Feed.BaseDelay < 0 {
		return fmt.Errorf("FEED_BASE_DELAY must not be negative")
	}
	if c.Feed.FirstTimeout <= 0 || c.Feed.RetryTimeout <= 0 {
		return fmt.Errorf("FEED_FIRST_TIMEOUT and FEED_RETRY_TIMEOUT must be positive")
	}
	return nil
}

// A missing API key is not a configuration error: the source logs it and
// contributes nothing, like any other unavailable source.
func (c *Config) validateTicketmaster() error {
	if !c.Ticketmaster.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.Ticketmaster.URL, "TICKETMASTER_URL"); err != nil {
		return err
	}
	if c.Ticketmaster.PageSize < 1 || c.Ticketmaster.PageSize > 200 {
		return fmt.Errorf("TICKETMASTER_PAGE_SIZE must be between 1 and 200")
	}
	if c.Ticketmaster.Timeout <= 0 {
		return fmt.Errorf("TICKETMASTER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateKOPIS() error {
	if !c.KOPIS.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.KOPIS.URL, "KOPIS_URL"); err != nil {
		return err
	}
	if c.KOPIS.Rows < 1 {
		return fmt.Errorf("KOPIS_ROWS must be at least 1")
	}
	if c.KOPIS.LookaheadDays < 1 {
		return fmt.Errorf("KOPIS_LOOKAHEAD_DAYS must be at least 1")
	}
	if c.KOPIS.Timeout <= 0 {
		return fmt.Errorf("KOPIS_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateAggregator() error {
	if c.Aggregator.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if len(c.Aggregator.SourceOrder) == 0 {
		return fmt.Errorf("SOURCE_ORDER must list at least one source")
	}
	seen := make(map[string]bool, len(c.Aggregator.SourceOrder))
	for _, name := range c.Aggregator.SourceOrder {
		if !KnownSources[name] {
			return fmt.Errorf("SOURCE_ORDER contains unknown source %q", name)
		}
		if seen[name] {
			return fmt.Errorf("SOURCE_ORDER lists %q more than once", name)
		}
		seen[name] = true
	}
	if _, err := time.LoadLocation(c.Aggregator.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.RedisURL == "" {
		return nil
	}
	u, err := url.Parse(c.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("REDIS_URL failed to parse: %w", err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return fmt.Errorf("REDIS_URL scheme must be redis or rediss, got: %s", u.Scheme)
	}
	if c.Cache.RedisTimeout <= 0 {
		return fmt.Errorf("REDIS_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.MaxPageSize < 1 {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be at least 1")
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be between 1 and API_MAX_PAGE_SIZE")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL requires an http(s) base URL with a host and no query.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}
