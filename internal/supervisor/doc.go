// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package supervisor provides process supervision using suture v4.

The supervisor tree manages the lifecycle of all long-running services and
provides Erlang/OTP-style supervision with automatic restart, failure
isolation, and graceful shutdown.

# Overview

Services are organized into three layers for failure isolation:

	RootSupervisor ("flowsentry")
	├── DataSupervisor ("data-layer")
	│   └── StoreMaintenanceService (BadgerDB GC, if badger backend)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   ├── DetectionDispatchService
	│   ├── SyncManagerService (if SYNC_ENABLED)
	│   └── IngestComponentsService (if NATS_ENABLED, build tag: nats)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A trainer sync failure doesn't affect WebSocket connections
  - Store maintenance failures don't impact API availability
  - Each layer restarts independently with its own failure counting

# Restart Behavior

Crashed services restart automatically with exponential backoff. The
failure threshold, decay rate, and backoff duration are configurable via
TreeConfig; zero values fall back to suture's documented defaults.

A service can opt out of restart by returning suture.ErrDoNotRestart, or
tear down the whole tree with suture.ErrTerminateSupervisorTree.

# Logging

Supervisor events (service start, failure, backoff) are emitted through
sutureslog, which bridges suture's EventHook to slog. The application
installs a zerolog-backed slog handler so supervision events land in the
same structured stream as everything else.

# Usage

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
