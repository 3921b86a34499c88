// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"net/http"

	"github.com/flowsentry/flowsentry/internal/logging"
	ws "github.com/flowsentry/flowsentry/internal/websocket"
)

// WebSocket upgrades the connection and registers the client with the
// detection fanout hub. Subscribers receive every verdict the service
// produces; clients may also submit flows for classification over the
// same connection.
//
// Method: GET
// Path: /ws
//
// Response:
//   - 101: Connection upgraded
//   - 503: Hub not available
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		logging.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
