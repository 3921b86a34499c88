// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package eventstream

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewFlowEvent(t *testing.T) {
	t.Parallel()

	features := map[string]float64{"duration": 1.5, "src_bytes": 100}
	event := NewFlowEvent("sensor-1", features)

	if event.EventID == "" {
		t.Error("EventID should be generated")
	}
	if event.SensorID != "sensor-1" {
		t.Errorf("SensorID = %q, want sensor-1", event.SensorID)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if len(event.Features) != 2 {
		t.Errorf("Features len = %d, want 2", len(event.Features))
	}
}

func TestFlowEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   FlowEvent
		wantErr bool
	}{
		{
			name: "valid event",
			event: FlowEvent{
				EventID:  "evt-1",
				Features: map[string]float64{"duration": 1},
			},
			wantErr: false,
		},
		{
			name: "missing event ID",
			event: FlowEvent{
				Features: map[string]float64{"duration": 1},
			},
			wantErr: true,
		},
		{
			name: "missing features",
			event: FlowEvent{
				EventID: "evt-1",
			},
			wantErr: true,
		},
		{
			name: "empty features map",
			event: FlowEvent{
				EventID:  "evt-1",
				Features: map[string]float64{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestFlowEvent_ToDetectionRequest(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 500000000, time.UTC)
	event := FlowEvent{
		EventID:   "evt-1",
		SensorID:  "sensor-1",
		Timestamp: ts,
		SourceIP:  "10.0.0.1",
		DestIP:    "10.0.0.2",
		Features:  map[string]float64{"duration": 2.5},
	}

	req := event.ToDetectionRequest()

	if req.SourceIP != "10.0.0.1" || req.DestIP != "10.0.0.2" {
		t.Errorf("IPs not carried over: %q -> %q", req.SourceIP, req.DestIP)
	}
	if req.Features["duration"] != 2.5 {
		t.Errorf("Features not carried over: %v", req.Features)
	}
	want := float64(ts.UnixNano()) / float64(time.Second)
	if math.Abs(req.Timestamp-want) > 1e-6 {
		t.Errorf("Timestamp = %f, want %f", req.Timestamp, want)
	}
}

func TestFlowEvent_ToDetectionRequest_ZeroTimestamp(t *testing.T) {
	t.Parallel()

	event := FlowEvent{
		EventID:  "evt-1",
		Features: map[string]float64{"duration": 1},
	}

	req := event.ToDetectionRequest()
	if req.Timestamp != 0 {
		t.Errorf("Timestamp = %f, want 0 for zero event time", req.Timestamp)
	}
}

func TestSerializer_Marshal(t *testing.T) {
	t.Parallel()

	s := NewSerializer()

	event := &FlowEvent{
		EventID:  "evt-1",
		SensorID: "sensor-1",
		Features: map[string]float64{"duration": 1.5},
	}

	data, err := s.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal() returned empty data")
	}
}

func TestSerializer_Marshal_InvalidEvent(t *testing.T) {
	t.Parallel()

	s := NewSerializer()

	_, err := s.Marshal(&FlowEvent{EventID: "evt-1"})
	if err == nil {
		t.Error("Marshal() should reject an event without features")
	}
}

func TestSerializer_Unmarshal(t *testing.T) {
	t.Parallel()

	s := NewSerializer()

	original := &FlowEvent{
		EventID:   "evt-1",
		SensorID:  "sensor-1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SourceIP:  "192.168.1.10",
		Features:  map[string]float64{"duration": 1.5, "src_bytes": 42},
	}

	data, err := s.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	decoded, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.EventID != original.EventID {
		t.Errorf("EventID = %q, want %q", decoded.EventID, original.EventID)
	}
	if decoded.SourceIP != original.SourceIP {
		t.Errorf("SourceIP = %q, want %q", decoded.SourceIP, original.SourceIP)
	}
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.Features["src_bytes"] != 42 {
		t.Errorf("Features = %v, want src_bytes=42", decoded.Features)
	}
}

func TestSerializer_Unmarshal_MalformedJSON(t *testing.T) {
	t.Parallel()

	s := NewSerializer()

	if _, err := s.Unmarshal([]byte("{not json")); err == nil {
		t.Error("Unmarshal() should fail on malformed JSON")
	}
}

func TestDeserializeEvent(t *testing.T) {
	t.Parallel()

	data, err := SerializeEvent(&FlowEvent{
		EventID:  "evt-9",
		Features: map[string]float64{"duration": 3},
	})
	if err != nil {
		t.Fatalf("SerializeEvent() error = %v", err)
	}

	event, err := DeserializeEvent(data)
	if err != nil {
		t.Fatalf("DeserializeEvent() error = %v", err)
	}
	if event.EventID != "evt-9" {
		t.Errorf("EventID = %q, want evt-9", event.EventID)
	}
}
