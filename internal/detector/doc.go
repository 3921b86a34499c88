// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

// Package detector implements the ensemble classification core: model
// artifact loading, feature sanitization, weighted voting, threat scoring,
// and running statistics.
//
// Detection Pipeline:
//
//	Features -> Sanitizer -> Model Votes -> Ensemble Verdict
//	              |              |               |
//	              v              v               v
//	        clamp/default   per-model      weighted vote +
//	                        label/conf     threat score
//
// The Registry owns the loaded models. Reads are lock-free against an
// atomically swapped catalog, so reloads never stall in-flight detections
// and a detection never observes a half-replaced model set.
//
// Failure policy:
//   - A corrupt artifact is skipped at load; the rest of the catalog loads.
//   - A model failing during inference votes "unknown" with confidence 0.0
//     and the ensemble proceeds with the remaining models.
//   - Malformed feature values (NaN, Infinity, out of range) are repaired
//     by the Sanitizer, never surfaced to the caller.
//   - Zero usable votes is a valid verdict: "unknown" with zero scores.
//
// The Service ties the pipeline together, enforces the advisory latency
// target, and hands finished results to the broadcast/persistence fanout
// without ever blocking the caller.
package detector
