// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import "sync"

// Stats accumulates running detection counters. All fields move together
// under one mutex so a snapshot never observes an incremented counter with
// a stale average.
type Stats struct {
	mu         sync.Mutex
	detections int64
	threats    int64
	totalMs    float64
	avgMs      float64
}

// StatsSnapshot is a consistent copy of the running counters.
type StatsSnapshot struct {
	DetectionsPerformed   int64
	ThreatsDetected       int64
	TotalProcessingTimeMs float64
	AvgProcessingTimeMs   float64
}

// NewStats returns a zeroed aggregator.
func NewStats() *Stats {
	return &Stats{}
}

// Record folds one completed detection into the counters. A detection
// counts as a threat when its score strictly exceeds 0.5.
func (s *Stats) Record(processingMs, threatScore float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detections++
	s.totalMs += processingMs
	s.avgMs = s.totalMs / float64(s.detections)
	if threatScore > 0.5 {
		s.threats++
	}
}

// Snapshot returns a consistent copy of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		DetectionsPerformed:   s.detections,
		ThreatsDetected:       s.threats,
		TotalProcessingTimeMs: s.totalMs,
		AvgProcessingTimeMs:   s.avgMs,
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detections = 0
	s.threats = 0
	s.totalMs = 0
	s.avgMs = 0
}
