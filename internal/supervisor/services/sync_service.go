// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package services

import (
	"context"
)

// SyncRunner matches the trainer sync manager's RunWithContext method.
//
// Satisfied by *sync.Manager from internal/sync/manager.go, which runs
// an immediate sync cycle followed by a ticker loop.
type SyncRunner interface {
	RunWithContext(ctx context.Context) error
}

// SyncService wraps the trainer artifact sync manager as a supervised
// service. A crashed sync loop restarts with backoff; the detector keeps
// serving with its currently loaded models in the meantime.
//
// Example usage:
//
//	manager := sync.NewManager(client, registry, cfg)
//	tree.AddMessagingService(services.NewSyncService(manager))
type SyncService struct {
	manager SyncRunner
	name    string
}

// NewSyncService creates a new sync service wrapper.
func NewSyncService(manager SyncRunner) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "sync-manager",
	}
}

// Serve implements suture.Service by delegating to RunWithContext.
// The method returns ctx.Err() on normal shutdown.
func (s *SyncService) Serve(ctx context.Context) error {
	return s.manager.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *SyncService) String() string {
	return s.name
}
