// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package services

import (
	"context"
	"fmt"
	"time"
)

// IngestRunner matches the NATS ingest components' lifecycle.
//
// Satisfied by *IngestComponents from cmd/server, which bundles the
// embedded NATS server, stream initializer, Watermill router, flow
// handler, and publisher behind a single Start/Shutdown pair.
type IngestRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// IngestService wraps the NATS ingest pipeline as a supervised service.
//
// It adapts the Start/Shutdown lifecycle to suture's Serve pattern:
//  1. Start(ctx) brings up the router and all registered handlers
//  2. Serve blocks until context cancellation
//  3. Shutdown(ctx) tears the pipeline down with a bounded timeout
type IngestService struct {
	components      IngestRunner
	shutdownTimeout time.Duration
	name            string
}

// NewIngestService creates a new ingest service wrapper with a 10 second
// shutdown timeout.
func NewIngestService(components IngestRunner) *IngestService {
	return NewIngestServiceWithTimeout(components, 10*time.Second)
}

// NewIngestServiceWithTimeout creates an ingest service with a custom
// shutdown timeout.
func NewIngestServiceWithTimeout(components IngestRunner, shutdownTimeout time.Duration) *IngestService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &IngestService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-ingest",
	}
}

// Serve implements suture.Service.
//
// If Start fails the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *IngestService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("ingest components start failed: %w", err)
	}

	<-ctx.Done()

	// Fresh context for shutdown since the original is already canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.components.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *IngestService) String() string {
	return s.name
}
