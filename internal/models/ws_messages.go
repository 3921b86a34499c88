// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package models

import (
	"github.com/goccy/go-json"
)

// WebSocket message type constants. Every frame on /ws is a WSMessage whose
// Type selects the Data payload shape.
const (
	// WSTypeDetection is a server-pushed broadcast of a completed detection.
	// Data: DetectionResponse.
	WSTypeDetection = "detection"

	// WSTypeDetectionRequest is a client-submitted flow for classification.
	// Data: DetectionRequest.
	WSTypeDetectionRequest = "detection_request"

	// WSTypeDetectionResponse answers a detection_request on the same socket.
	// Data: WSDetectionResult.
	WSTypeDetectionResponse = "detection_response"

	// WSTypeError reports a failed detection_request.
	// Data: WSError.
	WSTypeError = "error"

	// WSTypePing and WSTypePong are the application-level liveness probe;
	// either side may also rely on protocol-level ping frames.
	WSTypePing = "ping"
	WSTypePong = "pong"
)

// WSMessage is the envelope for every WebSocket frame. Data stays raw until
// Type is known so unknown message types can be rejected without parsing.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WSOutMessage is the outbound counterpart of WSMessage with an already
// marshalable payload.
type WSOutMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSDetectionResult is the socket reply for an inline detection_request.
// It is the compact form of DetectionResponse without the per-model breakdown.
type WSDetectionResult struct {
	Prediction       string  `json:"prediction"`
	Confidence       float64 `json:"confidence"`
	ThreatScore      float64 `json:"threat_score"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	Timestamp        float64 `json:"timestamp"`
}

// WSError is the error payload for a rejected WebSocket request.
type WSError struct {
	Message string `json:"message"`
}

// NewWSError builds an outbound error frame.
func NewWSError(message string) WSOutMessage {
	return WSOutMessage{
		Type: WSTypeError,
		Data: WSError{Message: message},
	}
}
