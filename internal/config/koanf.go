// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/encore/config.yaml",
	"/etc/encore/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			Enabled:        false,
			URL:            "",
			MaxAttempts:    3,
			HealthAttempts: 2,
			BaseDelay:      2 * time.Second,
			FirstTimeout:   20 * time.Second,
			RetryTimeout:   12 * time.Second,
			Popularity:     90,
		},
		Ticketmaster: TicketmasterConfig{
			Enabled:     false,
			URL:         "https://app.ticketmaster.com",
			CountryCode: "KR",
			PageSize:    50,
			Timeout:     15 * time.Second,
			RateLimit:   5,
			Popularity:  80,
		},
		KOPIS: KOPISConfig{
			Enabled:       false,
			URL:           "http://www.kopis.or.kr",
			Rows:          100,
			LookaheadDays: 90,
			Timeout:       15 * time.Second,
			RateLimit:     2,
			Popularity:    70,
		},
		Curated: CuratedConfig{
			Enabled:    true,
			Collection: "concerts",
			Timeout:    5 * time.Second,
			Popularity: 100,
		},
		Aggregator: AggregatorConfig{
			CacheTTL:       10 * time.Minute,
			SourceOrder:    []string{"curated", "feed", "ticketmaster", "kopis"},
			Timezone:       "Asia/Seoul",
			HealthCheck:    true,
			BreakerEnabled: true,
		},
		Cache: CacheConfig{
			RedisURL:     "",
			RedisPrefix:  "encore:events:",
			RedisTimeout: 2 * time.Second,
		},
		Store: StoreConfig{
			Path:       "/data/encore",
			InMemory:   false,
			SeedFile:   "",
			GCInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from three layers:
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are read from env as comma-separated strings.
var sliceConfigPaths = []string{
	"aggregator.source_order",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"feed_enabled":         "feed.enabled",
	"feed_url":             "feed.url",
	"feed_max_attempts":    "feed.max_attempts",
	"feed_health_attempts": "feed.health_attempts",
	"feed_base_delay":      "feed.base_delay",
	"feed_first_timeout":   "feed.first_timeout",
	"feed_retry_timeout":   "feed.retry_timeout",
	"feed_popularity":      "feed.popularity",

	"ticketmaster_enabled":      "ticketmaster.enabled",
	"ticketmaster_url":          "ticketmaster.url",
	"ticketmaster_api_key":      "ticketmaster.api_key",
	"ticketmaster_country_code": "ticketmaster.country_code",
	"ticketmaster_page_size":    "ticketmaster.page_size",
	"ticketmaster_timeout":      "ticketmaster.timeout",
	"ticketmaster_rate_limit":   "ticketmaster.rate_limit",

	"kopis_enabled":        "kopis.enabled",
	"kopis_url":            "kopis.url",
	"kopis_api_key":        "kopis.api_key",
	"kopis_rows":           "kopis.rows",
	"kopis_lookahead_days": "kopis.lookahead_days",
	"kopis_timeout":        "kopis.timeout",
	"kopis_rate_limit":     "kopis.rate_limit",

	"curated_enabled":    "curated.enabled",
	"curated_collection": "curated.collection",
	"curated_timeout":    "curated.timeout",

	"cache_ttl":               "aggregator.cache_ttl",
	"source_order":            "aggregator.source_order",
	"timezone":                "aggregator.timezone",
	"source_health_check":     "aggregator.health_check",
	"circuit_breaker_enabled": "aggregator.breaker_enabled",

	"redis_url":     "cache.redis_url",
	"redis_prefix":  "cache.redis_prefix",
	"redis_timeout": "cache.redis_timeout",

	"store_path":        "store.path",
	"store_in_memory":   "store.in_memory",
	"store_seed_file":   "store.seed_file",
	"store_gc_interval": "store.gc_interval",

	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps FEED_URL -> feed.url, HTTP_PORT -> server.port, etc.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
