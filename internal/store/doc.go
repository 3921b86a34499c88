// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

// Package store persists detection results for a short retention window.
//
// The detection pipeline hands every dispatched record to a ResultStore; the
// recent-detections endpoint reads them back newest first. Storage is a side
// channel: a slow or failing backend is logged and skipped, it never delays
// or fails a detection.
//
// Supported backends:
//   - badger: embedded BadgerDB with per-entry TTL (default). Suited to
//     single-node deployments with no external dependencies.
//   - redis: shared Redis instance. Records are written per flow under
//     detection:<source_ip>:<unix> so sibling services can read them, plus a
//     capped list for the recent-detections query.
//   - memory: fixed-size in-process ring, oldest record overwritten first.
//   - none: discards everything.
//
// All backends apply the configured TTL (300s by default) and cap the
// recent-detections window at 1000 records.
package store
