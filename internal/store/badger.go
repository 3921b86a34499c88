// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// detectionKeyPrefix namespaces detection records in BadgerDB.
const detectionKeyPrefix = "detection:"

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("result store is closed")

// BadgerStore keeps detection records in an embedded BadgerDB with per-entry
// TTL. Keys embed the record timestamp zero-padded so a reverse prefix scan
// yields newest-first order.
type BadgerStore struct {
	db        *badger.DB
	ttl       time.Duration
	maxRecent int
}

func newBadgerStore(opts Options) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Badger.Dir)
	bopts.Logger = nil // Suppress BadgerDB internal logs
	if opts.Badger.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
		bopts.Logger = nil
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for results: %w", err)
	}

	return &BadgerStore{db: db, ttl: opts.TTL, maxRecent: opts.MaxRecent}, nil
}

// RunGC drives BadgerDB value-log garbage collection until ctx is
// cancelled. Badger does not reclaim value-log space on its own; an
// external loop must call RunValueLogGC periodically. Each tick keeps
// collecting until badger reports nothing left to rewrite.
func (s *BadgerStore) RunGC(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					// badger.ErrNoRewrite when there is nothing to collect
					break
				}
			}
		}
	}
}

// badgerKey builds "detection:<padded-nanos>:<id>". Zero-padding keeps byte
// order equal to time order; records without a timestamp take the write time.
func badgerKey(rec models.DetectionRecord) []byte {
	nanos := int64(rec.Timestamp * 1e9)
	if nanos <= 0 {
		nanos = time.Now().UnixNano()
	}
	return []byte(fmt.Sprintf("%s%020d:%s", detectionKeyPrefix, nanos, rec.ID))
}

// Put stores the record with the configured TTL.
func (s *BadgerStore) Put(ctx context.Context, rec models.DetectionRecord) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendBadger, "put", time.Since(start), err) }()

	if s.db.IsClosed() {
		return ErrStoreClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal detection record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(badgerKey(rec), data).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("store detection record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. Expired entries are
// hidden by BadgerDB itself; records that fail to decode are skipped.
func (s *BadgerStore) Recent(ctx context.Context, limit int) (recs []models.DetectionRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendBadger, "recent", time.Since(start), err) }()

	if s.db.IsClosed() {
		return nil, ErrStoreClosed
	}
	if limit <= 0 || limit > s.maxRecent {
		limit = s.maxRecent
	}

	prefix := []byte(detectionKeyPrefix)
	// Reverse iteration starts just past the prefix range.
	seek := append(append([]byte{}, prefix...), 0xFF)

	err = s.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Reverse = true
		iopts.PrefetchValues = true
		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix) && len(recs) < limit; it.Next() {
			item := it.Item()

			var rec models.DetectionRecord
			verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if verr != nil {
				continue
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan detection records: %w", err)
	}
	return recs, nil
}

// Ping verifies the database is open and readable.
func (s *BadgerStore) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendBadger, "ping", time.Since(start), err) }()

	if s.db.IsClosed() {
		return ErrStoreClosed
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Backend returns "badger".
func (s *BadgerStore) Backend() string { return BackendBadger }

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
