// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package store

import (
	"context"
	"sync"
	"time"

	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// memCacheType labels the cache metrics emitted by the memory backend.
const memCacheType = "results"

// memCleanupInterval is how often expired entries are compacted away.
const memCleanupInterval = time.Minute

type memEntry struct {
	rec       models.DetectionRecord
	expiresAt time.Time
}

// MemoryStore keeps detection records in a fixed-size ring. When the ring is
// full the oldest record is overwritten. A background pass compacts expired
// entries so the size gauge tracks live records.
type MemoryStore struct {
	mu     sync.RWMutex
	ring   []memEntry
	next   int // next write slot
	count  int // populated slots
	ttl    time.Duration
	closed bool

	done chan struct{}
}

func newMemoryStore(opts Options) *MemoryStore {
	if opts.MaxRecent <= 0 {
		opts.MaxRecent = defaultMaxRecent
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	s := &MemoryStore{
		ring: make([]memEntry, opts.MaxRecent),
		ttl:  opts.TTL,
		done: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Put stores the record, overwriting the oldest one when the ring is full.
func (s *MemoryStore) Put(ctx context.Context, rec models.DetectionRecord) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendMemory, "put", time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if s.count == len(s.ring) {
		metrics.CacheEvictions.WithLabelValues(memCacheType).Inc()
	} else {
		s.count++
	}
	s.ring[s.next] = memEntry{rec: rec, expiresAt: time.Now().Add(s.ttl)}
	s.next = (s.next + 1) % len(s.ring)

	metrics.CacheSize.WithLabelValues(memCacheType).Set(float64(s.count))
	return nil
}

// Recent returns up to limit live records, newest first. Expired entries are
// skipped and counted as misses; they stay in the ring until the cleanup
// pass or an overwrite removes them.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]models.DetectionRecord, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordStoreOperation(BackendMemory, "recent", time.Since(start), err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		err = ErrStoreClosed
		return nil, err
	}
	if limit <= 0 || limit > len(s.ring) {
		limit = len(s.ring)
	}

	now := time.Now()
	recs := make([]models.DetectionRecord, 0, limit)
	for i := 0; i < s.count && len(recs) < limit; i++ {
		// Walk backwards from the most recent write.
		idx := (s.next - 1 - i + len(s.ring)) % len(s.ring)
		e := s.ring[idx]
		if now.After(e.expiresAt) {
			metrics.CacheMisses.WithLabelValues(memCacheType).Inc()
			continue
		}
		metrics.CacheHits.WithLabelValues(memCacheType).Inc()
		recs = append(recs, e.rec)
	}
	return recs, nil
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Backend returns "memory".
func (s *MemoryStore) Backend() string { return BackendMemory }

// Close stops the cleanup loop. Subsequent operations return ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// cleanupLoop periodically compacts expired entries out of the ring.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(memCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup rebuilds the ring keeping only live entries in order.
func (s *MemoryStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	live := make([]memEntry, 0, s.count)
	for i := s.count - 1; i >= 0; i-- {
		// Oldest first so the rebuilt ring preserves insertion order.
		idx := (s.next - 1 - i + len(s.ring)) % len(s.ring)
		if now.After(s.ring[idx].expiresAt) {
			metrics.CacheEvictions.WithLabelValues(memCacheType).Inc()
			continue
		}
		live = append(live, s.ring[idx])
	}

	for i := range s.ring {
		s.ring[i] = memEntry{}
	}
	copy(s.ring, live)
	s.count = len(live)
	s.next = s.count % len(s.ring)

	metrics.CacheSize.WithLabelValues(memCacheType).Set(float64(s.count))
}
