// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"net/http"
	"time"

	"github.com/flowsentry/flowsentry/internal/models"
	"github.com/flowsentry/flowsentry/internal/store"
)

// Health reports overall service health for dashboards and uptime checks.
//
// Method: GET
// Path: /health
//
// Status is "degraded" when no models are loaded or a configured result
// store is unreachable; the endpoint still returns 200 so pollers can read
// the detail fields instead of guessing from the status code.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	modelsLoaded := 0
	if h.svc != nil {
		modelsLoaded = h.svc.Registry().Len()
	}

	storeStatus := h.storeStatus(r)

	status := "healthy"
	if modelsLoaded == 0 || storeStatus == "disconnected" {
		status = "degraded"
	}

	latencyTarget := 0
	if h.config != nil {
		latencyTarget = h.config.Detection.LatencyTargetMs
	}

	var lastSync *time.Time
	if h.syncReporter != nil {
		if t := h.syncReporter.LastSyncTime(); !t.IsZero() {
			lastSync = &t
		}
	}

	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:          status,
		Service:         "flowsentry",
		Version:         serviceVersion,
		ModelsLoaded:    modelsLoaded,
		StoreStatus:     storeStatus,
		NATSConnected:   h.natsConnected != nil && h.natsConnected(),
		LastSyncTime:    lastSync,
		LatencyTargetMs: latencyTarget,
		Uptime:          time.Since(h.startTime).Seconds(),
	})
}

// storeStatus probes the result store. "disabled" means no store is
// configured, which is a valid deployment, not a failure.
func (h *Handler) storeStatus(r *http.Request) string {
	if h.store == nil || h.store.Backend() == store.BackendNone {
		return "disabled"
	}
	if err := h.store.Ping(r.Context()); err != nil {
		return "disconnected"
	}
	return "connected"
}

// HealthLive is the Kubernetes liveness probe. It only proves the process
// is serving requests; restarting on a degraded ensemble would not fix it.
//
// Method: GET
// Path: /health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the Kubernetes readiness probe. An instance with no loaded
// models cannot classify anything, so it reports 503 to keep traffic away
// until a reload or artifact sync succeeds.
//
// Method: GET
// Path: /health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	modelsLoaded := 0
	if h.svc != nil {
		modelsLoaded = h.svc.Registry().Len()
	}
	ready := modelsLoaded > 0

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, map[string]interface{}{
		"ready_to_serve":  ready,
		"models_loaded":   modelsLoaded,
		"store_connected": h.storeStatus(r) == "connected",
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
	})
}

// Root describes the service and its endpoint map.
//
// Method: GET
// Path: /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	modelsLoaded := 0
	if h.svc != nil {
		modelsLoaded = h.svc.Registry().Len()
	}

	latencyTarget := 0
	if h.config != nil {
		latencyTarget = h.config.Detection.LatencyTargetMs
	}

	respondJSON(w, http.StatusOK, models.ServiceInfo{
		Service:         "flowsentry",
		Version:         serviceVersion,
		Description:     "Real-time ensemble network intrusion detection",
		LatencyTargetMs: latencyTarget,
		ModelsLoaded:    modelsLoaded,
		Endpoints: map[string]string{
			"detect":       "POST /api/v1/detect",
			"detect_batch": "POST /api/v1/detect/batch",
			"models":       "GET /api/v1/models",
			"reload":       "POST /api/v1/models/reload",
			"stats":        "GET /api/v1/stats",
			"recent":       "GET /api/v1/detections/recent",
			"login":        "POST /api/v1/auth/login",
			"health":       "GET /health",
			"metrics":      "GET /metrics",
			"websocket":    "GET /ws",
		},
	})
}
