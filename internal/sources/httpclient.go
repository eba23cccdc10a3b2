// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/encore/internal/models"
)

const (
	// maxErrorBodySize limits how much of a failed response is kept for logs.
	maxErrorBodySize = 64 * 1024

	// maxResponseBodySize bounds successful payloads.
	maxResponseBodySize = 32 * 1024 * 1024

	userAgent = "encore-aggregator/1.0"
)

// httpGetter issues rate-limited GET requests for one source and classifies
// failures into *Error.
type httpGetter struct {
	source  models.SourceID
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// newHTTPGetter builds a getter. rps <= 0 disables outbound rate limiting.
// Deadlines come from the request context; timeout is a backstop for
// callers that pass none.
func newHTTPGetter(source models.SourceID, baseURL string, timeout time.Duration, rps float64) *httpGetter {
	g := &httpGetter{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return g
}

// get fetches baseURL+path with params and returns the body of a 2xx
// response.
func (g *httpGetter) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, newError(g.source, KindUnavailable, op, fmt.Errorf("rate limiter: %w", err))
		}
	}

	reqURL := g.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, newError(g.source, KindUnavailable, op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, newError(g.source, KindUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		return nil, newError(g.source, statusKind(resp.StatusCode), op,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, newError(g.source, KindUnavailable, op, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// readBodyForError reads at most maxErrorBodySize bytes of r for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
