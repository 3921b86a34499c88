// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package websocket provides real-time bidirectional communication for detection events.

This package implements WebSocket support for broadcasting completed detections
to connected monitoring clients and for inline flow classification submitted
over the socket itself. It uses the gorilla/websocket library with a hub-client
architecture for efficient message fanout.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - DetectionHandler: Callback that classifies detection_request frames inline

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from WebSocket, handles pings and detection requests
  - writePump: Writes queued frames to WebSocket, sends protocol pings

Message Types:

The following message types are supported:

  - detection: Server-pushed broadcast of a completed detection
  - detection_request: Client-submitted flow for inline classification
  - detection_response: Reply to a detection_request on the same socket
  - ping / pong: Application-level liveness probe
  - error: Rejected or failed requests

Inline detection_request frames run the full scoring pipeline but answer only
the requesting socket; they are not broadcast to other clients and are not
persisted to the result store.

Backpressure:

Each client has a bounded send buffer. When a subscriber falls behind, its
oldest queued frame is dropped to make room for the newest one; the broadcast
path never blocks on a slow subscriber and never disconnects it for being
slow. Drops are counted under the send_buffer_full error metric. A subscriber
that stops reading entirely is torn down by the write deadline.

Usage Example - Server:

	import (
	    "github.com/flowsentry/flowsentry/internal/websocket"
	    "net/http"
	)

	// Create hub
	hub := websocket.NewHub()
	hub.SetLimits(cfg.WebSocket.MaxMessageBytes, cfg.WebSocket.SendBuffer)
	hub.SetDetectionHandler(svc.Detect)
	go hub.RunWithContext(ctx)

	// Broadcast a completed detection
	hub.BroadcastDetection(resp)

Usage Example - Client (JavaScript):

	// Connect to WebSocket
	const ws = new WebSocket('ws://localhost:8000/ws');

	ws.onmessage = (event) => {
	    const msg = JSON.parse(event.data);

	    if (msg.type === 'detection') {
	        appendToFeed(msg.data); // live detection feed
	    }

	    if (msg.type === 'detection_response') {
	        showResult(msg.data.prediction, msg.data.threat_score);
	    }
	};

	// Submit a flow for inline classification
	ws.send(JSON.stringify({
	    type: 'detection_request',
	    data: { features: { flow_duration: 1.5, packet_count: 40 } },
	}));

Connection Lifecycle:

1. Client connects via HTTP upgrade
2. Hub registers client
3. Client starts read/write goroutines
4. Hub broadcasts detections to all clients
5. Client disconnects (network error or explicit close)
6. Hub unregisters client and cleans up

Thread Safety:

The package is fully thread-safe:
  - Hub uses mutex for client map access
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines
  - No shared mutable state between clients

Error Handling:

The package handles:
  - Malformed frames: error reply, connection stays open
  - Unknown message types: error reply, connection stays open
  - Read errors: Closes connection gracefully
  - Write errors: Removes client from hub
  - Ping/pong timeout: Detects dead connections (60s timeout)

Configuration:

WebSocket settings:
  - writeWait: 10 seconds (time allowed to write message)
  - pongWait: 60 seconds (time allowed to read pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 512 KB default inbound frame limit (see SetLimits)
  - sendBuffer: 256 frames per client default (see SetLimits)

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/detector: Detection pipeline that feeds broadcasts
*/
package websocket
