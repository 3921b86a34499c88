// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockSyncManager simulates sync.Manager for testing.
type mockSyncManager struct {
	runCount atomic.Int32
	runErr   error
	started  chan struct{}
}

func newMockSyncManager() *mockSyncManager {
	return &mockSyncManager{started: make(chan struct{}, 1)}
}

func (m *mockSyncManager) RunWithContext(ctx context.Context) error {
	m.runCount.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSyncServiceInterface(t *testing.T) {
	t.Parallel()

	var _ suture.Service = (*SyncService)(nil)
}

func TestSyncService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("runs until context canceled", func(t *testing.T) {
		t.Parallel()

		mgr := newMockSyncManager()
		svc := NewSyncService(mgr)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		select {
		case <-mgr.started:
		case <-time.After(time.Second):
			t.Fatal("sync manager did not start")
		}

		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve() did not return after cancellation")
		}
	})

	t.Run("propagates manager error for restart", func(t *testing.T) {
		t.Parallel()

		mgr := newMockSyncManager()
		mgr.runErr = errors.New("trainer unreachable")
		svc := NewSyncService(mgr)

		if err := svc.Serve(context.Background()); !errors.Is(err, mgr.runErr) {
			t.Errorf("Serve() error = %v, want %v", err, mgr.runErr)
		}
	})
}

func TestSyncService_String(t *testing.T) {
	t.Parallel()

	svc := NewSyncService(newMockSyncManager())
	if svc.String() != "sync-manager" {
		t.Errorf("String() = %q, want sync-manager", svc.String())
	}
}

func TestSyncService_WithSupervisor(t *testing.T) {
	t.Parallel()

	mgr := newMockSyncManager()
	mgr.runErr = errors.New("transient failure")
	svc := NewSyncService(mgr)

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   5 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := sup.ServeBackground(ctx)
	<-errCh

	if mgr.runCount.Load() < 2 {
		t.Errorf("expected supervisor restarts, got %d runs", mgr.runCount.Load())
	}
}
