// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package services provides suture.Service wrappers for application components.

Each wrapper adapts a component's native lifecycle (RunWithContext,
ListenAndServe, Start/Shutdown) to suture's context-aware Serve pattern
and implements fmt.Stringer so supervision logs name the service.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server, converting ListenAndServe to Serve
  - Configurable shutdown timeout for draining connections

WebSocket Hub (WebSocketHubService):
  - Wraps websocket.Hub's RunWithContext loop
  - Closes all clients gracefully on shutdown

Detection Dispatch (DetectionService):
  - Wraps detector.Service's result dispatch loop
  - Restarts broadcasting and persistence if the loop crashes

Trainer Sync (SyncService):
  - Wraps sync.Manager's artifact polling loop
  - Detection keeps serving loaded models while sync restarts

Store Maintenance (StoreMaintenanceService):
  - Wraps the BadgerDB store's value-log GC loop
  - Only wired for the badger result store backend

NATS Ingest (IngestService):
  - Wraps the ingest pipeline's Start/Shutdown lifecycle
  - Only wired when NATS ingestion is enabled (build tag: nats)

# Design Principles

Wrappers depend on small local interfaces rather than concrete component
types, so they compile without importing the packages they supervise and
tests can substitute fakes.

Serve methods return ctx.Err() on orderly shutdown, which suture treats
as normal termination rather than a failure.
*/
package services
