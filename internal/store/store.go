// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/flowsentry/flowsentry/internal/models"
)

// Backend identifiers accepted by New.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// defaultTTL matches the original retention window for cached results.
const defaultTTL = 300 * time.Second

// defaultMaxRecent bounds the recent-detections window.
const defaultMaxRecent = 1000

// ResultStore persists detection records for a short retention window so the
// recent-detections endpoint and sibling services can read them back. Writes
// are best effort: the detection pipeline logs store errors and moves on,
// a failing backend never fails a detection.
type ResultStore interface {
	// Put stores one detection record. Implementations apply the configured
	// TTL; expired records are not returned by Recent.
	Put(ctx context.Context, rec models.DetectionRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]models.DetectionRecord, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Backend returns the backend identifier for health reporting.
	Backend() string

	Close() error
}

// Options configures the result store factory.
type Options struct {
	// Backend selects the implementation: "badger", "redis", "memory",
	// or "none".
	Backend string

	// TTL is the retention window for stored records.
	TTL time.Duration

	// MaxRecent caps how many records the recent-detections window holds.
	MaxRecent int

	Badger BadgerOptions
	Redis  RedisOptions
}

// BadgerOptions configures the embedded BadgerDB backend.
type BadgerOptions struct {
	Dir      string
	InMemory bool
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// DefaultOptions returns the factory defaults: an in-memory store with the
// original 300s retention window.
func DefaultOptions() Options {
	return Options{
		Backend:   BackendMemory,
		TTL:       defaultTTL,
		MaxRecent: defaultMaxRecent,
	}
}

// New builds the result store selected by opts.Backend. Zero TTL and
// MaxRecent values fall back to the defaults.
func New(opts Options) (ResultStore, error) {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.MaxRecent <= 0 {
		opts.MaxRecent = defaultMaxRecent
	}

	switch opts.Backend {
	case BackendBadger:
		return newBadgerStore(opts)
	case BackendRedis:
		return newRedisStore(opts)
	case BackendMemory:
		return newMemoryStore(opts), nil
	case BackendNone, "":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown result store backend %q", opts.Backend)
	}
}

// NopStore discards every write. Selected with backend "none".
type NopStore struct{}

// Put discards the record.
func (NopStore) Put(ctx context.Context, rec models.DetectionRecord) error { return nil }

// Recent always returns an empty slice.
func (NopStore) Recent(ctx context.Context, limit int) ([]models.DetectionRecord, error) {
	return nil, nil
}

// Ping always succeeds.
func (NopStore) Ping(ctx context.Context) error { return nil }

// Backend returns "none".
func (NopStore) Backend() string { return BackendNone }

// Close is a no-op.
func (NopStore) Close() error { return nil }
