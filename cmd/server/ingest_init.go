// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

//go:build nats

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/flowsentry/flowsentry/internal/api"
	"github.com/flowsentry/flowsentry/internal/config"
	"github.com/flowsentry/flowsentry/internal/detector"
	"github.com/flowsentry/flowsentry/internal/eventstream"
	"github.com/flowsentry/flowsentry/internal/logging"
)

// IngestComponents holds all NATS-related components for lifecycle management.
type IngestComponents struct {
	server            *eventstream.EmbeddedServer
	natsConn          *natsgo.Conn
	streamInitializer *eventstream.StreamInitializer
	publisher         *eventstream.Publisher

	// Router-based message processing
	router      *eventstream.Router
	flowHandler *eventstream.FlowHandler
	subscriber  *eventstream.Subscriber

	shutdownComplete chan struct{}
	mu               sync.Mutex
	running          bool
}

// InitIngest initializes all NATS ingestion components when NATS_ENABLED=true.
// The returned components are started by the supervisor tree, not here.
//
// Parameters:
//   - cfg: Application configuration with NATS settings
//   - detectorSvc: Detection service that scores consumed flow events
//   - handler: API handler for ingest health reporting (optional, can be nil)
//
//nolint:gocyclo // Multi-component initialization is inherently multi-step
func InitIngest(cfg *config.Config, detectorSvc *detector.Service, handler *api.Handler) (*IngestComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS flow ingestion disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	logging.Info().Msg("Initializing NATS flow ingestion...")

	components := &IngestComponents{
		shutdownComplete: make(chan struct{}),
	}

	var natsURL string

	// Step 1: Initialize embedded NATS server if enabled
	if cfg.NATS.EmbeddedServer {
		serverCfg := eventstream.DefaultServerConfig(cfg.NATS.StoreDir)
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}

		server, err := eventstream.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		natsURL = cfg.NATS.URL
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	// Step 2: Connect to NATS
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc
	logging.Info().Msg("NATS connection established")

	// Step 3: Initialize JetStream and ensure the flow stream exists
	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventstream.DefaultStreamConfig()
	if cfg.NATS.StreamRetentionDays > 0 {
		streamCfg.MaxAge = time.Duration(cfg.NATS.StreamRetentionDays) * 24 * time.Hour
	}

	streamInitializer, err := eventstream.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	components.streamInitializer = streamInitializer

	ctx := context.Background()
	stream, err := streamInitializer.EnsureStream(ctx)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	streamInfo := stream.CachedInfo()
	logging.Info().
		Str("name", streamInfo.Config.Name).
		Strs("subjects", streamInfo.Config.Subjects).
		Dur("max_age", streamInfo.Config.MaxAge).
		Msg("JetStream stream ready")

	// Step 4: Create publisher for detection results and the poison queue
	wmLogger := eventstream.NewWatermillLogger()
	publisherCfg := eventstream.DefaultPublisherConfig(natsURL)
	publisher, err := eventstream.NewPublisher(publisherCfg, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, err
	}
	components.publisher = publisher
	logging.Info().Msg("NATS publisher created")

	// Step 5: Create Router with middleware from config
	routerCfg := eventstream.DefaultRouterConfig()
	if cfg.NATS.RouterRetryCount > 0 {
		routerCfg.RetryMaxRetries = cfg.NATS.RouterRetryCount
	}
	if cfg.NATS.RouterRetryInitialInterval > 0 {
		routerCfg.RetryInitialInterval = cfg.NATS.RouterRetryInitialInterval
		routerCfg.RetryMaxInterval = cfg.NATS.RouterRetryInitialInterval * 10
	}
	if cfg.NATS.RouterCloseTimeout > 0 {
		routerCfg.CloseTimeout = cfg.NATS.RouterCloseTimeout
	}

	// Poison queue publisher routes permanently failing messages to a
	// dead-letter subject instead of redelivering them forever.
	var poisonPub message.Publisher
	if cfg.NATS.RouterPoisonQueueEnabled {
		routerCfg.PoisonQueueTopic = cfg.NATS.RouterPoisonQueueTopic
		poisonPub = publisher.WatermillPublisher()
	} else {
		routerCfg.PoisonQueueTopic = ""
	}

	router, err := eventstream.NewRouter(&routerCfg, poisonPub, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create router: %w", err)
	}
	components.router = router
	logging.Info().
		Int("retry", routerCfg.RetryMaxRetries).
		Bool("poison", cfg.NATS.RouterPoisonQueueEnabled).
		Msg("Watermill Router created")

	// Step 6: Create flow handler feeding the detection service
	flowHandler, err := eventstream.NewFlowHandler(detectorSvc, publisher, cfg.NATS.ResultSubject, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create flow handler: %w", err)
	}
	components.flowHandler = flowHandler

	// Step 7: Create the durable queue-group subscriber. Binding to the
	// pre-created stream avoids AutoProvision trying to derive a stream
	// from the wildcard subject (flows.>).
	subscriberCfg := eventstream.DefaultSubscriberConfig(natsURL)
	subscriberCfg.StreamName = streamCfg.Name
	if cfg.NATS.DurableName != "" {
		subscriberCfg.DurableName = cfg.NATS.DurableName
	}
	if cfg.NATS.QueueGroup != "" {
		subscriberCfg.QueueGroup = cfg.NATS.QueueGroup
	}
	if cfg.NATS.SubscribersCount > 0 {
		subscriberCfg.SubscribersCount = cfg.NATS.SubscribersCount
	}
	subscriber, err := eventstream.NewSubscriber(&subscriberCfg, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create flow subscriber: %w", err)
	}
	components.subscriber = subscriber

	// Step 8: Register flow handler with the Router (no output publishing;
	// results go out through the publisher inside the handler)
	router.AddConsumerHandler(
		"flow-detection-handler",
		cfg.NATS.FlowSubject,
		subscriber,
		flowHandler.Handle,
	)
	logging.Info().
		Str("subject", cfg.NATS.FlowSubject).
		Str("durable", subscriberCfg.DurableName).
		Str("queue_group", subscriberCfg.QueueGroup).
		Msg("Flow handler registered with Router")

	// Step 9: Wire ingest health into the API
	if handler != nil {
		handler.SetNATSChecker(components.IsRunning)
		logging.Info().Msg("Ingest health wired to API endpoints")
	}

	components.mu.Lock()
	components.running = true
	components.mu.Unlock()

	logging.Info().Msg("NATS flow ingestion initialized successfully")
	return components, nil
}

// Start begins the Router and all message processing.
// Called by the supervisor after InitIngest.
func (c *IngestComponents) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.router != nil {
		logging.Info().Msg("Starting Watermill Router...")
		running := c.router.RunAsync(ctx)
		select {
		case <-running:
			logging.Info().Msg("Watermill Router started successfully")
		case <-ctx.Done():
			return fmt.Errorf("context canceled while starting router: %w", ctx.Err())
		}
	}

	logging.Info().Msg("All ingestion components started")
	return nil
}

// Shutdown gracefully stops all ingestion components.
//
// Shutdown order is critical for clean termination:
//  1. Stop Router first (stops the flow handler)
//  2. Close subscriber (Watermill JetStream subscriber)
//  3. Close publisher
//  4. Close NATS connection
//  5. Shutdown embedded server last
func (c *IngestComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	logging.Info().Msg("Shutting down ingestion components...")

	c.shutdownRouter()
	c.shutdownSubscriber()
	c.shutdownPublisher()
	c.shutdownConnection(ctx)

	close(c.shutdownComplete)
	logging.Info().Msg("Ingestion shutdown complete")
}

// shutdownRouter stops the Watermill Router.
func (c *IngestComponents) shutdownRouter() {
	if c.router == nil {
		return
	}
	if err := c.router.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing Router")
	}
	logging.Info().Msg("Watermill Router stopped")
}

// shutdownSubscriber closes the JetStream subscriber.
func (c *IngestComponents) shutdownSubscriber() {
	if c.subscriber == nil {
		return
	}
	if err := c.subscriber.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing flow subscriber")
	}
	logging.Info().Msg("Flow subscriber closed")
}

// shutdownPublisher closes the NATS publisher.
func (c *IngestComponents) shutdownPublisher() {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing publisher")
	}
	logging.Info().Msg("Publisher closed")
}

// shutdownConnection closes the NATS connection and embedded server.
func (c *IngestComponents) shutdownConnection(ctx context.Context) {
	if c.natsConn != nil {
		c.natsConn.Close()
		logging.Info().Msg("NATS connection closed")
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down NATS server")
		}
		logging.Info().Msg("Embedded NATS server stopped")
	}
}

// IsRunning returns whether ingestion components are active.
func (c *IngestComponents) IsRunning() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// HandlerStats exposes flow handler counters for diagnostics.
// Returns the zero value when the handler is not initialized.
func (c *IngestComponents) HandlerStats() eventstream.FlowHandlerStats {
	if c == nil || c.flowHandler == nil {
		return eventstream.FlowHandlerStats{}
	}
	return c.flowHandler.Stats()
}
