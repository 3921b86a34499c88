// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

//go:build !nats

package eventstream

import (
	"context"
	"time"

	"github.com/flowsentry/flowsentry/internal/models"
)

// Stubs for builds without the nats tag. Every constructor returns
// ErrNATSNotEnabled so callers fail fast instead of silently dropping
// flows.

// EmbeddedServer is a stub when NATS support is not compiled in.
type EmbeddedServer struct{}

// NewEmbeddedServer returns ErrNATSNotEnabled.
func NewEmbeddedServer(_ *ServerConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSNotEnabled
}

// ClientURL returns an empty string for the stub.
func (s *EmbeddedServer) ClientURL() string { return "" }

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(_ context.Context) error { return nil }

// IsRunning always returns false for the stub.
func (s *EmbeddedServer) IsRunning() bool { return false }

// JetStreamEnabled always returns false for the stub.
func (s *EmbeddedServer) JetStreamEnabled() bool { return false }

// Subscriber is a stub when NATS support is not compiled in.
type Subscriber struct{}

// NewSubscriber returns ErrNATSNotEnabled.
func NewSubscriber(_ *SubscriberConfig, _ interface{}) (*Subscriber, error) {
	return nil, ErrNATSNotEnabled
}

// Close is a no-op stub.
func (s *Subscriber) Close() error { return nil }

// Publisher is a stub when NATS support is not compiled in.
type Publisher struct{}

// NewPublisher returns ErrNATSNotEnabled.
func NewPublisher(_ PublisherConfig, _ interface{}) (*Publisher, error) {
	return nil, ErrNATSNotEnabled
}

// PublishFlowEvent returns ErrNATSNotEnabled.
func (p *Publisher) PublishFlowEvent(_ context.Context, _ string, _ *FlowEvent) error {
	return ErrNATSNotEnabled
}

// PublishResult returns ErrNATSNotEnabled.
func (p *Publisher) PublishResult(_ context.Context, _ string, _ models.DetectionRecord) error {
	return ErrNATSNotEnabled
}

// Close is a no-op stub.
func (p *Publisher) Close() error { return nil }

// Router is a stub when NATS support is not compiled in.
type Router struct{}

// NewRouter returns ErrNATSNotEnabled.
func NewRouter(_ *RouterConfig, _ interface{}, _ interface{}) (*Router, error) {
	return nil, ErrNATSNotEnabled
}

// Run returns ErrNATSNotEnabled.
func (r *Router) Run(_ context.Context) error { return ErrNATSNotEnabled }

// IsRunning always returns false for the stub.
func (r *Router) IsRunning() bool { return false }

// Close is a no-op stub.
func (r *Router) Close() error { return nil }

// FlowProcessor mirrors the detection service interface for non-NATS builds.
type FlowProcessor interface {
	Process(ctx context.Context, req models.DetectionRequest) (models.DetectionResponse, error)
}

// FlowHandler is a stub when NATS support is not compiled in.
type FlowHandler struct{}

// NewFlowHandler returns ErrNATSNotEnabled.
func NewFlowHandler(_ FlowProcessor, _ *Publisher, _ string, _ interface{}) (*FlowHandler, error) {
	return nil, ErrNATSNotEnabled
}

// Stats returns empty statistics for the stub.
func (h *FlowHandler) Stats() FlowHandlerStats { return FlowHandlerStats{} }

// FlowHandlerStats holds runtime statistics.
type FlowHandlerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	DetectionErrors   int64
	ParseErrors       int64
	ResultsPublished  int64
	LastMessageTime   time.Time
}
