// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

// Package sync pulls trained model artifacts from the training service into
// the local model directory and triggers registry reloads.
//
// The trainer exposes an artifact index of named, versioned model files.
// On each cycle the manager compares index versions against the local
// manifest, downloads anything newer into a temp file, verifies its SHA-256
// checksum, and moves it into place before asking the registry to reload.
// Version comparison is semantic: an artifact is fetched only when its index
// version is strictly greater than the locally recorded one, so re-publishing
// the same version never churns the ensemble.
//
// All trainer calls go through a circuit breaker. A flaky or down trainer
// degrades to "keep serving the current ensemble" rather than hammering the
// endpoint; the breaker state is exported via Prometheus.
//
// A file lock on the model directory serializes downloads across processes,
// so a sidecar or a second instance sharing the volume cannot interleave
// partial writes with the registry's directory scan.
package sync
