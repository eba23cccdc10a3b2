// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

/*
Package services provides suture.Service wrappers for Encore components.

Each wrapper translates a component's lifecycle into suture's
Serve(ctx) error and names itself through fmt.Stringer.

HTTPServerService binds the listener on every start, serves the chi router
and drains in-flight requests with a bounded timeout when the api layer
stops. A server closed from outside is not restarted.

StoreGCService runs badger value log GC on the document store every
store.gc_interval and counts outcomes in encore_store_gc_runs_total.

CacheSweepService evicts expired aggregate listings once per cache TTL.

Wiring from cmd/server:

	tree.AddMaintenanceService(services.NewStoreGCService(store, cfg.Store.GCInterval))
	tree.AddMaintenanceService(services.NewCacheSweepService(eventCache, cfg.Aggregator.CacheTTL))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))
*/
package services
