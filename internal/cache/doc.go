// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

/*
Package cache memoizes aggregated event lists per (category, sort) key.

# Overview

Every key moves through the same states:

	EMPTY -> FETCHING -> FRESH -> (ttl elapsed) STALE -> FETCHING -> FRESH ...

A FRESH entry is served without touching any source. A STALE entry is never
served: the caller that finds it triggers a fetch and waits for the result.
An entry is fresh while now - fetchedAt < ttl.

# Concurrency

Only one fetch per key runs at a time (golang.org/x/sync/singleflight).
Callers arriving while a fetch is in flight wait for it and share its
result. The fetch itself runs on a context detached from the caller that
started it, so a caller giving up does not cancel work other callers are
waiting on, and the result still lands in the cache.

# Non-cacheable results

A FetchFunc returns a cacheable flag. The aggregator clears it when every
source failed, so an empty list is handed to the caller but never pinned
for a whole TTL window.

# Snapshot tier

An optional SnapshotStore (RedisSnapshotStore in production) sits behind the
in-memory map. On a memory miss the store is consulted, and a snapshot whose
own fetchedAt is still inside the TTL is promoted to memory without a fetch.
Store errors are logged and treated as misses.

# Time

The cache reads time only through its Clock, so TTL behaviour is testable
without sleeping.

Example:

	c := cache.New(10*time.Minute, cache.SystemClock{}, nil)
	events, err := c.GetOrFetch(ctx, cache.Key{Category: "all", Sort: "popularity"}, fetch)
*/
package cache
