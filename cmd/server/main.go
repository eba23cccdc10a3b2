// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/encore/internal/aggregator"
	"github.com/tomtom215/encore/internal/api"
	"github.com/tomtom215/encore/internal/cache"
	"github.com/tomtom215/encore/internal/config"
	_ "github.com/tomtom215/encore/internal/docs" // swagger document
	"github.com/tomtom215/encore/internal/docstore"
	"github.com/tomtom215/encore/internal/logging"
	"github.com/tomtom215/encore/internal/supervisor"
	"github.com/tomtom215/encore/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Encore stopped with an error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Strs("source_order", cfg.Aggregator.SourceOrder).
		Dur("cache_ttl", cfg.Aggregator.CacheTTL).
		Str("timezone", cfg.Aggregator.Timezone).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Encore")

	store, err := docstore.Open(docstore.Options{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory})
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()
	if cfg.Store.SeedFile != "" {
		n, err := store.SeedFile(context.Background(), cfg.Store.SeedFile)
		if err != nil {
			return fmt.Errorf("seed document store: %w", err)
		}
		logging.Info().Int("documents", n).Str("file", cfg.Store.SeedFile).Msg("Document store seeded")
	}

	checks := map[string]api.Pinger{"store": store}

	// Both cache tiers judge entry age by the same clock.
	clock := cache.SystemClock{}

	// The snapshot tier is optional; a nil interface disables it.
	var snapshots cache.SnapshotStore
	if cfg.Cache.RedisURL != "" {
		redisStore, err := cache.NewRedisSnapshotStore(cfg.Cache, cfg.Aggregator.CacheTTL)
		if err != nil {
			return fmt.Errorf("configure redis: %w", err)
		}
		defer redisStore.Close()
		if err := redisStore.Ping(context.Background()); err != nil {
			// Redis coming up later is fine: snapshot errors fall through to the sources.
			logging.Warn().Err(err).Msg("Redis not reachable at startup")
		}
		snapshots = redisStore.WithClock(clock)
		checks["redis"] = redisStore
	}

	eventCache := cache.New(cfg.Aggregator.CacheTTL, clock, snapshots)
	agg := aggregator.New(aggregator.Options{
		Sources:     aggregator.BuildSources(cfg, store),
		Cache:       eventCache,
		HealthCheck: cfg.Aggregator.HealthCheck,
		Location:    cfg.Aggregator.Location(),
	})

	handler := api.NewHandler(agg, cfg.API, checks)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)), cfg.Server.Timeout)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Leaves room for the request timeout to answer with 504 itself.
		WriteTimeout: cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddMaintenanceService(services.NewStoreGCService(store, cfg.Store.GCInterval))
	tree.AddMaintenanceService(services.NewCacheSweepService(eventCache, cfg.Aggregator.CacheTTL))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", serveErr)
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Encore stopped")
	return nil
}
