// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

//go:build !nats

// This file provides a no-op stub for NATS supervisor integration.
// It is only compiled when the "nats" build tag is NOT enabled.
//
// Build without NATS support (default):
//
//	go build -o flowsentry ./cmd/server

package main

import (
	"github.com/flowsentry/flowsentry/internal/supervisor"
)

// AddIngestToSupervisor is a no-op stub for non-NATS builds.
//
// When NATS support is not compiled in (no -tags nats), this function
// does nothing. This allows main.go to call AddIngestToSupervisor
// unconditionally without build tag conditionals.
//
// The IngestComponents parameter will be nil from the stub InitIngest
// function in ingest_init_stub.go.
func AddIngestToSupervisor(_ *supervisor.SupervisorTree, _ *IngestComponents) {
	// No-op: NATS not compiled in
}
