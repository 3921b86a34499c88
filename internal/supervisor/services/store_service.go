// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package services

import (
	"context"
)

// StoreGC matches the BadgerDB store's value-log garbage collection loop.
//
// Satisfied by *store.BadgerStore from internal/store/badger.go.
type StoreGC interface {
	RunGC(ctx context.Context) error
}

// StoreMaintenanceService wraps the result store's GC loop as a supervised
// service in the data layer. Only needed for the badger backend; memory
// and redis stores reclaim space on their own.
type StoreMaintenanceService struct {
	store StoreGC
	name  string
}

// NewStoreMaintenanceService creates a new store maintenance wrapper.
func NewStoreMaintenanceService(store StoreGC) *StoreMaintenanceService {
	return &StoreMaintenanceService{
		store: store,
		name:  "store-maintenance",
	}
}

// Serve implements suture.Service by delegating to RunGC.
// The method returns ctx.Err() on normal shutdown.
func (s *StoreMaintenanceService) Serve(ctx context.Context) error {
	return s.store.RunGC(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *StoreMaintenanceService) String() string {
	return s.name
}
