// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package services

import (
	"context"
)

// DetectionEngine matches the detection service's RunWithContext method.
//
// This interface allows the DetectionService wrapper to work without
// importing the detector package, avoiding circular dependencies.
//
// Satisfied by *detector.Service from internal/detector/service.go.
type DetectionEngine interface {
	// RunWithContext runs the detection dispatch loop, draining scored
	// records to the broadcaster and result store until ctx is canceled.
	RunWithContext(ctx context.Context) error
}

// DetectionService wraps the detection dispatch loop as a supervised
// service. The supervisor restarts the loop if it crashes, so a dispatch
// failure never silently stops broadcasts and persistence.
//
// Example usage:
//
//	svc := detector.NewService(registry, hub, resultStore, cfg)
//	tree.AddMessagingService(services.NewDetectionService(svc))
type DetectionService struct {
	engine DetectionEngine
	name   string
}

// NewDetectionService creates a new detection dispatch service wrapper.
func NewDetectionService(engine DetectionEngine) *DetectionService {
	return &DetectionService{
		engine: engine,
		name:   "detection-dispatch",
	}
}

// Serve implements suture.Service by delegating to RunWithContext.
// The method returns ctx.Err() on normal shutdown.
func (d *DetectionService) Serve(ctx context.Context) error {
	return d.engine.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (d *DetectionService) String() string {
	return d.name
}
