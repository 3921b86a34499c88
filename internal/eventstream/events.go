// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package eventstream

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/flowsentry/flowsentry/internal/models"
)

// FlowEvent is the wire format capture agents publish to the flow subject.
// Features carry the raw extracted flow statistics; the detection pipeline
// sanitizes and orders them against the active feature schema.
type FlowEvent struct {
	EventID   string    `json:"event_id"`
	SensorID  string    `json:"sensor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	SourceIP string `json:"source_ip,omitempty"`
	DestIP   string `json:"dest_ip,omitempty"`

	Features map[string]float64 `json:"features"`
}

// NewFlowEvent creates a flow event with a generated ID and current timestamp.
func NewFlowEvent(sensorID string, features map[string]float64) *FlowEvent {
	return &FlowEvent{
		EventID:   uuid.New().String(),
		SensorID:  sensorID,
		Timestamp: time.Now().UTC(),
		Features:  features,
	}
}

// Validate checks the event carries the minimum fields for detection.
func (e *FlowEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: event_id required", ErrInvalidConfig)
	}
	if len(e.Features) == 0 {
		return fmt.Errorf("%w: features required", ErrInvalidConfig)
	}
	return nil
}

// ToDetectionRequest converts the event into the detection pipeline's
// request form. A zero timestamp is left at zero so the service stamps it
// with its own clock.
func (e *FlowEvent) ToDetectionRequest() models.DetectionRequest {
	req := models.DetectionRequest{
		Features: e.Features,
		SourceIP: e.SourceIP,
		DestIP:   e.DestIP,
	}
	if !e.Timestamp.IsZero() {
		req.Timestamp = float64(e.Timestamp.UnixNano()) / float64(time.Second)
	}
	return req
}

// Serializer handles flow event encoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts an event to JSON bytes, validating first.
func (s *Serializer) Marshal(event *FlowEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Unmarshal converts JSON bytes to an event.
func (s *Serializer) Unmarshal(data []byte) (*FlowEvent, error) {
	var event FlowEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	return &event, nil
}

// SerializeEvent is a convenience function that marshals an event to JSON.
func SerializeEvent(event *FlowEvent) ([]byte, error) {
	return NewSerializer().Marshal(event)
}

// DeserializeEvent is a convenience function that unmarshals JSON to an event.
func DeserializeEvent(data []byte) (*FlowEvent, error) {
	return NewSerializer().Unmarshal(data)
}
