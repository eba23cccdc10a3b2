// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/encore/internal/models"
)

// Kind classifies a source failure. It is used as a log field and as the
// outcome label of the fetch metrics.
type Kind string

const (
	KindUnavailable        Kind = "unavailable" // network failure, timeout, non-2xx
	KindRateLimited        Kind = "rate_limited"
	KindUnauthorized       Kind = "unauthorized"
	KindMissingCredentials Kind = "missing_credentials"
	KindMalformed          Kind = "malformed" // unexpected payload shape
)

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrUnavailable        = &Error{Kind: KindUnavailable}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrMissingCredentials = &Error{Kind: KindMissingCredentials}
	ErrMalformed          = &Error{Kind: KindMalformed}
)

// Error is a classified source failure. Fetchers return it; Adapter recovers
// it into an empty result.
type Error struct {
	Source models.SourceID
	Kind   Kind
	Op     string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Source, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(source models.SourceID, kind Kind, op string, err error) *Error {
	return &Error{Source: source, Kind: kind, Op: op, Err: err}
}

// statusKind maps a non-2xx HTTP status to a Kind.
func statusKind(code int) Kind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	default:
		return KindUnavailable
	}
}

// KindOf extracts the Kind of err. Unclassified errors, timeouts included,
// are KindUnavailable.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// isTimeout reports whether err came from a deadline rather than the caller
// going away.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
