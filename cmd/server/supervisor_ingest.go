// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

//go:build nats

// This file provides NATS ingestion integration with the supervisor tree.
// It is only compiled when the "nats" build tag is enabled.
//
// Build with NATS support:
//
//	go build -tags nats -o flowsentry ./cmd/server

package main

import (
	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/supervisor"
	"github.com/flowsentry/flowsentry/internal/supervisor/services"
)

// AddIngestToSupervisor adds the NATS ingestion pipeline to the supervisor
// tree's messaging layer for automatic lifecycle management.
//
// The ingestion components include:
//   - Embedded NATS server (if configured)
//   - JetStream publisher for detection results
//   - Durable queue-group subscriber for flow events
//   - Watermill Router running the flow-detection handler
//
// When added to the supervisor tree:
//   - Start() is called when the supervisor starts
//   - Shutdown() is called when the supervisor stops
//   - The service is automatically restarted on failure
//
// This function is a no-op if ingest is nil (NATS disabled via config).
func AddIngestToSupervisor(tree *supervisor.SupervisorTree, ingest *IngestComponents) {
	if ingest == nil {
		return
	}
	tree.AddMessagingService(services.NewIngestService(ingest))
	logging.Info().Msg("NATS ingestion added to supervisor tree (messaging layer)")
}
