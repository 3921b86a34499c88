// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flowsentry/flowsentry/internal/auth"
	"github.com/flowsentry/flowsentry/internal/config"
	"github.com/flowsentry/flowsentry/internal/detector"
	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/middleware"
	"github.com/flowsentry/flowsentry/internal/store"
	ws "github.com/flowsentry/flowsentry/internal/websocket"
)

// serviceVersion is reported by the root and health endpoints.
const serviceVersion = "1.0.0"

// SyncStatusReporter reports trainer sync state for health output.
// Implemented by the sync manager; nil when artifact sync is disabled.
type SyncStatusReporter interface {
	LastSyncTime() time.Time
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrader (this file)
//   - handlers_detection.go: Detection endpoints (single, batch, recent)
//   - handlers_models.go: Model catalog and reload endpoints
//   - handlers_stats.go: Statistics and endpoint diagnostics
//   - handlers_auth.go: JWT login
//   - handlers_health.go: Health/monitoring endpoints and service info
//   - handlers_websocket.go: Real-time WebSocket connection
type Handler struct {
	svc        *detector.Service
	store      store.ResultStore
	config     *config.Config
	jwtManager *auth.JWTManager
	admin      *auth.AdminVerifier
	wsHub      *ws.Hub
	startTime  time.Time
	perfMon    *middleware.PerformanceMonitor
	secLog     *logging.SecurityLogger

	// natsConnected probes broker connectivity for health output.
	// Nil when the event stream is disabled.
	natsConnected func() bool

	// syncReporter reports the last trainer sync; nil when sync is disabled.
	syncReporter SyncStatusReporter
}

// NewHandler creates a new API handler with all required dependencies.
//
// Dependencies:
//   - svc: Detection service for classification and statistics
//   - resultStore: Result store for the recent-detections endpoint (may be nil)
//   - cfg: Application configuration
//   - jwtManager: JWT token manager for login (nil when auth mode excludes jwt)
//   - admin: Admin credential verifier for login (nil when not configured)
//   - wsHub: WebSocket hub for real-time broadcasts (may be nil)
//
// The handler initializes with a performance monitor tracking the last
// 1000 requests; its slow-request threshold follows the detection latency
// target so overruns on the detect path surface in the endpoint stats.
func NewHandler(svc *detector.Service, resultStore store.ResultStore, cfg *config.Config, jwtManager *auth.JWTManager, admin *auth.AdminVerifier, wsHub *ws.Hub) *Handler {
	perfMon := middleware.NewPerformanceMonitor(1000)
	if cfg != nil && cfg.Detection.LatencyTargetMs > 0 {
		perfMon.SetSlowThreshold(int64(cfg.Detection.LatencyTargetMs))
	}

	return &Handler{
		svc:        svc,
		store:      resultStore,
		config:     cfg,
		jwtManager: jwtManager,
		admin:      admin,
		wsHub:      wsHub,
		startTime:  time.Now(),
		perfMon:    perfMon,
		secLog:     logging.NewSecurityLogger(),
	}
}

// SetNATSChecker wires a broker connectivity probe for health reporting.
// Called during startup when the event stream is enabled.
func (h *Handler) SetNATSChecker(fn func() bool) {
	h.natsConnected = fn
}

// SetSyncReporter wires the trainer sync manager for health reporting.
// Called during startup when artifact sync is enabled.
func (h *Handler) SetSyncReporter(sr SyncStatusReporter) {
	h.syncReporter = sr
}

// GetPerformanceStats returns per-endpoint latency statistics.
func (h *Handler) GetPerformanceStats() []middleware.EndpointStats {
	if h.perfMon != nil {
		return h.perfMon.GetStats()
	}
	return nil
}

// requireService checks detection service availability and returns true if
// available, false if an error was sent.
func (h *Handler) requireService(w http.ResponseWriter, r *http.Request) bool {
	if h.svc == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Detection service not available", nil)
		return false
	}
	return true
}

// getUpgrader creates a WebSocket upgrader with proper origin checking and
// a handshake timeout for protection against slow client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// No Origin header means a non-browser client (sensor agents, scripts).
	// Browser connections always carry one, so only those are origin-checked.
	if origin == "" {
		return true
	}

	// If config is nil, allow by default (fail open for tests/development)
	if h.config == nil {
		return true
	}

	// Check against allowed origins from config
	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	// Origin not in allowed list - sanitize origin to prevent log injection
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
