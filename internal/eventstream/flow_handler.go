// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

//go:build nats

package eventstream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// FlowProcessor is the interface the detection service implements. The
// abstraction keeps the handler testable without a loaded model registry.
type FlowProcessor interface {
	Process(ctx context.Context, req models.DetectionRequest) (models.DetectionResponse, error)
}

// FlowHandler consumes flow events and runs them through the detection
// pipeline. It is designed to sit inside the Router's middleware stack:
// Recoverer handles panics, Retry handles transient failures, PoisonQueue
// routes permanent failures.
//
// Malformed payloads and detection errors are acked rather than retried.
// A flow that cannot be parsed will never parse; a flow the ensemble
// cannot score (no models loaded) should not block the consumer group.
type FlowHandler struct {
	processor   FlowProcessor
	publisher   *Publisher
	resultTopic string
	logger      watermill.LoggerAdapter

	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	detectionErrors   atomic.Int64
	parseErrors       atomic.Int64
	resultsPublished  atomic.Int64
	lastMessageTime   atomic.Value // time.Time
}

// NewFlowHandler creates a handler that feeds flow events into the
// detection service. publisher and resultTopic are optional; when set,
// each verdict is also published to the result subject.
func NewFlowHandler(processor FlowProcessor, publisher *Publisher, resultTopic string, logger watermill.LoggerAdapter) (*FlowHandler, error) {
	if processor == nil {
		return nil, ErrNilDetector
	}
	if logger == nil {
		logger = NewWatermillLogger()
	}

	h := &FlowHandler{
		processor:   processor,
		publisher:   publisher,
		resultTopic: resultTopic,
		logger:      logger,
	}
	h.lastMessageTime.Store(time.Time{})

	return h, nil
}

// Handle processes a single flow event message. This is the function
// registered with Router.AddConsumerHandler.
func (h *FlowHandler) Handle(msg *message.Message) error {
	h.messagesReceived.Add(1)
	h.lastMessageTime.Store(time.Now())
	metrics.RecordNATSConsume()

	start := time.Now()

	var event FlowEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		h.logger.Error("Failed to parse flow event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil
	}

	if err := event.Validate(); err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		h.logger.Error("Invalid flow event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
			"event_id":     event.EventID,
		})
		return nil
	}

	ctx := context.Background()
	if msgCtx := msg.Context(); msgCtx != nil {
		ctx = msgCtx
	}

	resp, err := h.processor.Process(ctx, event.ToDetectionRequest())
	if err != nil {
		h.detectionErrors.Add(1)
		h.logger.Error("Detection processing error", err, watermill.LogFields{
			"event_id":  event.EventID,
			"sensor_id": event.SensorID,
		})
		return nil
	}

	h.messagesProcessed.Add(1)
	metrics.RecordNATSProcessed()
	metrics.RecordNATSProcessingDuration(time.Since(start))

	if h.publisher != nil && h.resultTopic != "" {
		rec := models.DetectionRecord{
			ID:                uuid.New().String(),
			SourceIP:          event.SourceIP,
			DestIP:            event.DestIP,
			DetectionResponse: resp,
		}
		if err := h.publisher.PublishResult(ctx, h.resultTopic, rec); err != nil {
			h.logger.Error("Failed to publish detection result", err, watermill.LogFields{
				"event_id": event.EventID,
			})
		} else {
			h.resultsPublished.Add(1)
		}
	}

	return nil
}

// Stats returns current handler statistics.
func (h *FlowHandler) Stats() FlowHandlerStats {
	var lastTime time.Time
	if t, ok := h.lastMessageTime.Load().(time.Time); ok {
		lastTime = t
	}

	return FlowHandlerStats{
		MessagesReceived:  h.messagesReceived.Load(),
		MessagesProcessed: h.messagesProcessed.Load(),
		DetectionErrors:   h.detectionErrors.Load(),
		ParseErrors:       h.parseErrors.Load(),
		ResultsPublished:  h.resultsPublished.Load(),
		LastMessageTime:   lastTime,
	}
}

// FlowHandlerStats holds runtime statistics.
type FlowHandlerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	DetectionErrors   int64
	ParseErrors       int64
	ResultsPublished  int64
	LastMessageTime   time.Time
}
