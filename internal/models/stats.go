// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package models

import (
	"time"
)

// DetectionStats represents aggregate detection engine statistics.
// Counters are monotonic since process start; only Reset() on a reload
// of the owning aggregator clears them.
type DetectionStats struct {
	DetectionsPerformed        int64   `json:"detections_performed"`
	AvgProcessingTimeMs        float64 `json:"avg_processing_time_ms"`
	ThreatsDetected            int64   `json:"threats_detected"`
	ModelsLoaded               int     `json:"models_loaded"`
	LatencyTargetMs            int     `json:"latency_target_ms"`
	ActiveWebsocketConnections int     `json:"active_websocket_connections"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status          string     `json:"status"`
	Service         string     `json:"service"`
	Version         string     `json:"version"`
	ModelsLoaded    int        `json:"models_loaded"`
	StoreStatus     string     `json:"store_status"` // "connected", "disconnected", or "disabled"
	NATSConnected   bool       `json:"nats_connected"`
	LastSyncTime    *time.Time `json:"last_sync_time,omitempty"`
	LatencyTargetMs int        `json:"latency_target_ms"`
	Uptime          float64    `json:"uptime_seconds"`
}

// ServiceInfo is the root endpoint payload describing the service surface.
type ServiceInfo struct {
	Service         string            `json:"service"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	LatencyTargetMs int               `json:"latency_target_ms"`
	ModelsLoaded    int               `json:"models_loaded"`
	Endpoints       map[string]string `json:"endpoints"`
}
