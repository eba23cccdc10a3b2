// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

/*
Package middleware provides HTTP middleware shared by every API route.

Key Components:

  - RequestID: request and correlation ids for log tracing
  - PrometheusMetrics: request counts, durations and in-flight gauge
  - AccessLog: one structured log line per request

All three are plain func(http.Handler) http.Handler values and plug into a
chi router with r.Use:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)

Metrics are labelled with the chi route pattern ("/api/v1/events/{id}")
rather than the raw path, which keeps label cardinality bounded.
*/
package middleware
