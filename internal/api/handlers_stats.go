// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"net/http"

	"github.com/flowsentry/flowsentry/internal/middleware"
	"github.com/flowsentry/flowsentry/internal/models"
)

// Stats reports aggregate detection counters since process start.
//
// Method: GET
// Path: /api/v1/stats
//
// Response:
//   - 200: Current statistics snapshot
//   - 503: Detection service not available
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.requireService(w, r) {
		return
	}

	snap := h.svc.Snapshot()

	latencyTarget := 0
	if h.config != nil {
		latencyTarget = h.config.Detection.LatencyTargetMs
	}

	wsConnections := 0
	if h.wsHub != nil {
		wsConnections = h.wsHub.GetClientCount()
	}

	respondJSON(w, http.StatusOK, models.DetectionStats{
		DetectionsPerformed:        snap.DetectionsPerformed,
		AvgProcessingTimeMs:        snap.AvgProcessingTimeMs,
		ThreatsDetected:            snap.ThreatsDetected,
		ModelsLoaded:               h.svc.Registry().Len(),
		LatencyTargetMs:            latencyTarget,
		ActiveWebsocketConnections: wsConnections,
	})
}

// EndpointStats reports per-endpoint latency percentiles collected by the
// in-process performance monitor. Intended for operators chasing slow
// requests; not part of the stable contract.
//
// Method: GET
// Path: /api/v1/stats/endpoints
//
// Requires the admin role.
func (h *Handler) EndpointStats(w http.ResponseWriter, r *http.Request) {
	stats := h.perfMon.GetStats()
	if stats == nil {
		stats = []middleware.EndpointStats{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"endpoints": stats,
		"count":     len(stats),
	})
}
