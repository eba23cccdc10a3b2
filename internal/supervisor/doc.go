// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

/*
Package supervisor runs Encore's long-lived services under a suture v4 tree.

	RootSupervisor ("encore")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── StoreGCService
	│   └── CacheSweepService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's failure decay and backoff.
Canceling the context passed to Serve stops every service, each bounded by
TreeConfig.ShutdownTimeout. Supervisor events are logged through sutureslog
into the zerolog-backed slog handler:

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)

The service wrappers live in the services subpackage.
*/
package supervisor
