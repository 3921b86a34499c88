// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
// This enables clear observability in logs and metrics.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DetectionHandler runs one inline classification for a detection_request
// frame. Inline detections answer only the requesting socket; they are not
// broadcast or persisted.
type DetectionHandler func(ctx context.Context, req models.DetectionRequest) (models.DetectionResponse, error)

// Hub maintains the set of active clients and broadcasts messages to the clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.WSOutMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// detect answers detection_request frames; nil until SetDetectionHandler.
	detect DetectionHandler

	maxMessageBytes int64
	sendBuffer      int
}

// NewHub creates a new Hub with default client limits.
func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan models.WSOutMessage, 256),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		clients:         make(map[*Client]bool),
		maxMessageBytes: maxMessageSize,
		sendBuffer:      defaultSendBuffer,
	}
}

// SetLimits overrides the inbound message size limit and the per-client send
// buffer. Zero values keep the defaults. Call before serving connections.
func (h *Hub) SetLimits(maxMessageBytes int64, sendBuffer int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if maxMessageBytes > 0 {
		h.maxMessageBytes = maxMessageBytes
	}
	if sendBuffer > 0 {
		h.sendBuffer = sendBuffer
	}
}

// SetDetectionHandler wires the detection pipeline for inline
// detection_request frames. Without a handler, requests get an error frame.
// The hub and the detection service are constructed in sequence, so this
// setter breaks the cycle between them.
func (h *Hub) SetDetectionHandler(fn DetectionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detect = fn
}

func (h *Hub) detectionHandler() DetectionHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detect
}

func (h *Hub) messageLimit() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxMessageBytes
}

func (h *Hub) clientSendBuffer() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sendBuffer
}

// Run starts the hub (blocks forever, no context support).
//
// Deprecated: Use RunWithContext for supervised operation.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Client lifecycle events (Register/Unregister)
// - Priority 2: Broadcast messages
// This ensures client state is always consistent before processing messages.
func (h *Hub) Run() {
	for {
		// Priority 1: Handle client lifecycle events first (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
			// No lifecycle events pending, proceed to broadcast
		}

		// Priority 2: Handle broadcast messages (blocking wait)
		select {
		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled:
//  1. All connected clients are gracefully closed
//  2. The method returns ctx.Err()
//
// This allows the hub to be restarted by a supervisor without leaving
// orphaned connections.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (Register/Unregister)
// - Priority 3: Broadcast messages
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: Handle broadcast messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateWebSocketConnections(total)
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateWebSocketConnections(total)
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is NOT logged as an error because context
// cancellation is expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()

	h.closeAllClients()

	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		// Fallback for any future context error types
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients in a
// deterministic order (sorted by client ID, assigned from an atomic counter).
//
// A client whose send buffer is full has its oldest queued message dropped in
// favor of the new one; the broadcast never blocks on a slow subscriber and
// never disconnects it here. A subscriber that stops reading entirely is torn
// down by its own write deadline.
func (h *Hub) broadcastToClients(message models.WSOutMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		// offer drops the client's oldest queued message when its buffer is
		// full; it only reports false for a client already shutting down.
		client.offer(message)
	}
}

// closeAllClients gracefully closes all connected WebSocket clients.
// Called during shutdown to ensure clean termination.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		client.close()
		delete(h.clients, client)
	}
	metrics.UpdateWebSocketConnections(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastDetection pushes a completed detection to all connected clients.
func (h *Hub) BroadcastDetection(resp models.DetectionResponse) {
	h.BroadcastJSON(models.WSTypeDetection, resp)
}

// BroadcastJSON sends a typed message to all connected clients. A full
// broadcast channel drops the message rather than blocking the caller.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := models.WSOutMessage{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg models.WSOutMessage) ([]byte, error) {
	return json.Marshal(msg)
}
