// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

//go:build !nats

package main

import (
	"context"

	"github.com/flowsentry/flowsentry/internal/api"
	"github.com/flowsentry/flowsentry/internal/config"
	"github.com/flowsentry/flowsentry/internal/detector"
	"github.com/flowsentry/flowsentry/internal/eventstream"
	"github.com/flowsentry/flowsentry/internal/logging"
)

// IngestComponents is a stub for non-NATS builds.
type IngestComponents struct{}

// InitIngest is a no-op stub for non-NATS builds.
// Returns nil to indicate NATS ingestion is not available.
func InitIngest(cfg *config.Config, _ *detector.Service, _ *api.Handler) (*IngestComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Start is a no-op stub for non-NATS builds.
func (c *IngestComponents) Start(_ context.Context) error {
	return nil
}

// Shutdown is a no-op stub for non-NATS builds.
func (c *IngestComponents) Shutdown(_ context.Context) {}

// IsRunning returns false for non-NATS builds.
func (c *IngestComponents) IsRunning() bool {
	return false
}

// HandlerStats returns the zero value for non-NATS builds.
func (c *IngestComponents) HandlerStats() eventstream.FlowHandlerStats {
	return eventstream.FlowHandlerStats{}
}
