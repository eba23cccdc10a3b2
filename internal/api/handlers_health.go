// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package api

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// readinessTimeout bounds all dependency pings of one probe.
const readinessTimeout = 3 * time.Second

// HealthLive handles liveness probe requests (Kubernetes-style).
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 only when every configured dependency answers.
//
// @Summary Readiness probe
// @Description Pings the document store and, when configured, Redis. Returns 503 if any fails.
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is ready"
// @Failure 503 {object} APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	checks, ready := h.runChecks(r.Context())

	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", checks)
		return
	}
	rw.Success(map[string]interface{}{
		"ready":  true,
		"checks": checks,
	})
}

// Health returns the full status: dependencies, sources and cache.
//
// @Summary Detailed health
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks, ready := h.runChecks(r.Context())
	stats := h.events.CacheStats()

	status := "healthy"
	if !ready {
		status = "degraded"
	}
	reachable := 0
	srcs := h.events.Sources()
	for _, s := range srcs {
		if s.Reachable {
			reachable++
		}
	}
	if len(srcs) > 0 && reachable == 0 {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":  status,
		"uptime":  time.Since(h.startTime).Seconds(),
		"checks":  checks,
		"sources": srcs,
		"cache": map[string]interface{}{
			"stats":    stats,
			"hit_rate": stats.HitRate(),
		},
	})
}

// runChecks pings every dependency concurrently.
func (h *Handler) runChecks(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, p := range h.checks {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			status := "ok"
			if err := p.Ping(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			results[name] = status
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	ready := true
	for _, s := range results {
		if s != "ok" {
			ready = false
		}
	}
	return results, ready
}
