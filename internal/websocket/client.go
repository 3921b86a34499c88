// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
	"github.com/flowsentry/flowsentry/internal/validation"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 512 * 1024 // 512 KB
	defaultSendBuffer = 256
)

// clientIDCounter generates unique, monotonically increasing IDs for clients.
// DETERMINISM: This ensures clients can be sorted in a consistent order for
// broadcast operations, eliminating non-deterministic map iteration order.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub
type Client struct {
	// id is a unique identifier for this client, used for deterministic ordering.
	// DETERMINISM: Assigned from an atomic counter to ensure consistent sorting.
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSOutMessage

	// done signals both pumps to stop. The send channel is never closed:
	// readPump keeps queuing replies until the connection dies, so closing
	// send would race with those enqueues.
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new Client with a unique deterministic ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan models.WSOutMessage, hub.clientSendBuffer()),
		done: make(chan struct{}),
	}
}

// ID returns the client's unique identifier for deterministic ordering
func (c *Client) ID() uint64 {
	return c.id
}

// close signals both pumps to stop. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// offer enqueues a message without blocking. When the buffer is full the
// oldest queued message is discarded to make room for the new one; the
// discard is counted as a send_buffer_full error. A slow subscriber loses
// old frames instead of stalling the sender, and a subscriber that stops
// reading entirely is torn down by writePump's write deadline.
//
// Returns false when the client is already closed or the message still could
// not be queued.
func (c *Client) offer(message models.WSOutMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
	}

	// Buffer full: drop the oldest queued message.
	select {
	case <-c.send:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(c.hub.messageLimit())
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		metrics.WSMessagesReceived.Inc()

		switch msg.Type {
		case models.WSTypePing:
			c.offer(models.WSOutMessage{Type: models.WSTypePong})

		case models.WSTypeDetectionRequest:
			c.handleDetectionRequest(msg.Data)

		default:
			metrics.WSErrors.WithLabelValues("unknown_message_type").Inc()
			c.offer(models.NewWSError(fmt.Sprintf("unknown message type %q", msg.Type)))
		}
	}
}

// handleDetectionRequest classifies a flow submitted over the socket and
// answers on the same connection. Inline results are not broadcast to other
// clients and are not persisted.
func (c *Client) handleDetectionRequest(data json.RawMessage) {
	handler := c.hub.detectionHandler()
	if handler == nil {
		c.offer(models.NewWSError("detection is not available"))
		return
	}

	var req models.DetectionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		metrics.WSErrors.WithLabelValues("bad_detection_request").Inc()
		c.offer(models.NewWSError("invalid detection request: " + err.Error()))
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.WSErrors.WithLabelValues("bad_detection_request").Inc()
		c.offer(models.NewWSError(verr.Error()))
		return
	}

	resp, err := handler(context.Background(), req)
	if err != nil {
		metrics.WSErrors.WithLabelValues("detection_failed").Inc()
		c.offer(models.NewWSError(err.Error()))
		return
	}

	c.offer(models.WSOutMessage{
		Type: models.WSTypeDetectionResponse,
		Data: models.WSDetectionResult{
			Prediction:       resp.Prediction,
			Confidence:       resp.Confidence,
			ThreatScore:      resp.ThreatScore,
			ProcessingTimeMs: resp.ProcessingTimeMs,
			Timestamp:        resp.Timestamp,
		},
	})
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case <-c.done:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			}
			return

		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
