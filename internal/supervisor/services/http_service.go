// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/encore/internal/logging"
)

// HTTPServerService serves the listings API until the api layer stops, then
// drains in-flight requests for at most shutdownTimeout.
type HTTPServerService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	boundAddr       atomic.Pointer[string]
	logger          zerolog.Logger
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout means 10s.
func NewHTTPServerService(server *http.Server, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logging.WithComponent("http-server"),
	}
}

// Addr is the address the server is bound to, or "" while it is not
// listening. With a ":0" port this is where the kernel's pick shows up.
func (h *HTTPServerService) Addr() string {
	if p := h.boundAddr.Load(); p != nil {
		return *p
	}
	return ""
}

// Serve implements suture.Service. The socket is bound on every start, so a
// port still held by a previous process fails the service and suture retries
// it with backoff.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	addr := h.server.Addr
	if addr == "" {
		addr = ":http"
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	bound := ln.Addr().String()
	h.boundAddr.Store(&bound)
	defer h.boundAddr.Store(nil)
	h.logger.Info().Str("addr", bound).Msg("HTTP server listening")

	served := make(chan error, 1)
	go func() { served <- h.server.Serve(ln) }()

	select {
	case err := <-served:
		// Closed from outside; an *http.Server cannot serve again.
		if errors.Is(err, http.ErrServerClosed) {
			return suture.ErrDoNotRestart
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()
	start := time.Now()
	if err := h.server.Shutdown(drainCtx); err != nil {
		h.logger.Warn().Err(err).Dur("timeout", h.shutdownTimeout).Msg("Drain timed out, closing open connections")
		_ = h.server.Close()
		<-served
		return fmt.Errorf("drain http server: %w", err)
	}
	<-served
	h.logger.Info().Dur("drained_in", time.Since(start)).Msg("HTTP server stopped")
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in its events.
func (h *HTTPServerService) String() string {
	return "http-server"
}
