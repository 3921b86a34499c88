// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowsentry/flowsentry/internal/api"
	"github.com/flowsentry/flowsentry/internal/auth"
	"github.com/flowsentry/flowsentry/internal/config"
	"github.com/flowsentry/flowsentry/internal/detector"
	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/store"
	"github.com/flowsentry/flowsentry/internal/supervisor"
	"github.com/flowsentry/flowsentry/internal/supervisor/services"
	intsync "github.com/flowsentry/flowsentry/internal/sync"
	ws "github.com/flowsentry/flowsentry/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Flowsentry with supervisor tree")
	logging.Info().
		Str("models_dir", cfg.Models.Dir).
		Str("store_backend", cfg.Store.Backend).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Msg("Configuration loaded")

	// Build the model registry and load whatever artifacts are on disk.
	// Individual corrupt artifacts are skipped by the loader; an empty
	// catalog is a valid (degraded) serving state unless RequireLoaded
	// is set, in which case the detection endpoints refuse requests.
	registry := detector.NewRegistry(detector.DefaultSchema(), detector.RegistryConfig{
		Dir:                cfg.Models.Dir,
		Manifest:           cfg.Models.Manifest,
		StrictFeatureOrder: cfg.Models.StrictFeatureOrder,
		DefaultWeight:      cfg.Models.DefaultWeight,
		Weights:            cfg.Models.Weights,
	})
	report, err := registry.Load()
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Models.Dir).Msg("Failed to load model catalog")
	}
	for name, reason := range report.Skipped {
		logging.Warn().Str("artifact", name).Str("reason", reason).Msg("Model artifact skipped")
	}
	if report.Total == 0 {
		logging.Warn().Str("dir", cfg.Models.Dir).Msg("No models loaded - detections will answer \"unknown\"")
	} else {
		logging.Info().
			Int("models", report.Total).
			Strs("loaded", report.Loaded).
			Msg("Model catalog loaded")
	}

	// Result store for the recent-detections API and sibling services.
	resultStore, err := store.New(store.Options{
		Backend:   cfg.Store.Backend,
		TTL:       cfg.Store.TTL,
		MaxRecent: cfg.API.MaxRecentLimit,
		Badger: store.BadgerOptions{
			Dir:      cfg.Store.Badger.Dir,
			InMemory: cfg.Store.Badger.InMemory,
		},
		Redis: store.RedisOptions{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		},
	})
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to initialize result store")
	}
	defer func() {
		if err := resultStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing result store")
		}
	}()
	logging.Info().Str("backend", resultStore.Backend()).Msg("Result store initialized")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// WebSocket hub for live detection streaming. Created before the
	// detection service so results can fan out from the first detection.
	wsHub := ws.NewHub()
	wsHub.SetLimits(cfg.WebSocket.MaxMessageBytes, cfg.WebSocket.SendBuffer)

	// Detection service: the core scoring pipeline.
	detectorSvc := detector.NewService(registry, wsHub, resultStore, detector.ServiceConfig{
		LatencyTarget:       time.Duration(cfg.Detection.LatencyTargetMs) * time.Millisecond,
		HighThreatThreshold: cfg.Detection.HighThreatThreshold,
		PositiveLabel:       cfg.Detection.PositiveLabel,
		MaxBatchSize:        cfg.Detection.MaxBatchSize,
		ResultsBuffer:       cfg.Detection.ResultsBuffer,
		RequireModels:       cfg.Models.RequireLoaded,
	})
	wsHub.SetDetectionHandler(detectorSvc.Detect)
	logging.Info().
		Int("latency_target_ms", cfg.Detection.LatencyTargetMs).
		Float64("high_threat_threshold", cfg.Detection.HighThreatThreshold).
		Msg("Detection service initialized")

	// Authentication. JWT manager only exists for token-issuing modes;
	// the API key verifier covers capture agents in apikey/multi modes.
	var jwtManager *auth.JWTManager
	var apiKeys *auth.APIKeyVerifier
	var admin *auth.AdminVerifier

	switch cfg.Security.AuthMode {
	case auth.AuthModeJWT, auth.AuthModeMulti:
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		admin, err = auth.NewAdminVerifier(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize admin credentials")
		}
		logging.Info().Str("mode", cfg.Security.AuthMode).Msg("JWT authentication enabled")
	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}
	if cfg.Security.AuthMode == auth.AuthModeAPIKey || cfg.Security.AuthMode == auth.AuthModeMulti {
		apiKeys, err = auth.NewAPIKeyVerifier(cfg.Security.APIKeyHashes)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize API key verifier")
		}
		logging.Info().Int("keys", len(cfg.Security.APIKeyHashes)).Msg("API key authentication enabled")
	}

	authMw := auth.NewMiddleware(&cfg.Security, jwtManager, apiKeys)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
		logging.Warn().Msg("This should only be used for load testing!")
	}

	handler := api.NewHandler(detectorSvc, resultStore, cfg, jwtManager, admin, wsHub)

	// Trainer artifact sync (optional): polls the training service for
	// newer model artifacts and reloads the catalog when any land.
	var syncManager *intsync.Manager
	if cfg.Sync.Enabled {
		trainerClient := intsync.NewTrainerClient(cfg.Sync.TrainerURL, cfg.Sync.TrainerAPIKey, cfg.Sync.Timeout)
		cbClient := intsync.NewCircuitBreakerClient(trainerClient)
		syncManager = intsync.NewManager(cbClient, registry, intsync.ManagerConfig{
			ModelsDir:    cfg.Models.Dir,
			ManifestName: cfg.Models.Manifest,
			Interval:     cfg.Sync.Interval,
		})
		handler.SetSyncReporter(syncManager)
		logging.Info().
			Str("trainer_url", cfg.Sync.TrainerURL).
			Dur("interval", cfg.Sync.Interval).
			Msg("Trainer artifact sync enabled")
	} else {
		logging.Info().Msg("Trainer artifact sync disabled (SYNC_ENABLED=false)")
	}

	// Initialize NATS flow ingestion (optional - requires build with -tags nats)
	// Capture agents publish flow events to JetStream; the router consumes
	// them through a durable queue group and feeds the detection service.
	ingest, err := InitIngest(cfg, detectorSvc, handler)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS ingestion")
	}

	// Add ingestion to supervisor tree (if enabled)
	AddIngestToSupervisor(tree, ingest)

	router := api.NewRouter(handler, authMw)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer services
	if badgerStore, ok := resultStore.(*store.BadgerStore); ok {
		tree.AddDataService(services.NewStoreMaintenanceService(badgerStore))
		logging.Info().Msg("Badger value-log maintenance added to supervisor tree")
	}

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewDetectionService(detectorSvc))
	if syncManager != nil {
		tree.AddMessagingService(services.NewSyncService(syncManager))
		logging.Info().Msg("Sync manager added to supervisor tree")
	}
	logging.Info().Msg("WebSocket hub and detection dispatch added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
