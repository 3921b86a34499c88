// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package config provides centralized configuration management for Flowsentry.

This package handles loading, validation, and parsing of configuration for
all application components. It ensures consistent configuration across the
detection pipeline and provides sensible defaults for optional settings.

# Configuration Sources

Configuration is loaded in three layers, each overriding the previous:

  - Struct defaults (baseline for every setting)
  - YAML config file (config.yaml, config.yml, or CONFIG_PATH)
  - Environment variables (highest precedence)

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - ModelsConfig: Model artifact directory, manifest, and ensemble weights
  - DetectionConfig: Latency target, threat threshold, batch limits
  - StoreConfig: Detection result persistence (badger, redis, memory, none)
  - NATSConfig: Flow event streaming (embedded or external JetStream)
  - SyncConfig: Trainer artifact synchronization
  - WebSocketConfig: Live detection feed limits
  - APIConfig: Query pagination limits
  - SecurityConfig: Authentication, rate limiting, CORS
  - LoggingConfig: Log level and output format

# Environment Variables

Common environment variables by component:

HTTP Server (ServerConfig):
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8080)
  - HTTP_TIMEOUT: Request read/write timeout (default: 30s)
  - SHUTDOWN_TIMEOUT: Graceful shutdown window (default: 10s)
  - ENVIRONMENT: deployment environment (development, production)

Models (ModelsConfig):
  - MODELS_DIR: Model artifact directory (default: ./models)
  - MODELS_MANIFEST: Manifest filename inside MODELS_DIR (default: models.yaml)

Detection (DetectionConfig):
  - LATENCY_TARGET_MS: Per-detection latency budget (default: 100)
  - HIGH_THREAT_THRESHOLD: Threat score that triggers alerting (default: 0.7)
  - MAX_BATCH_SIZE: Max flows per batch request (default: 100)

Result Store (StoreConfig):
  - STORE_BACKEND: badger, redis, memory, or none (default: badger)
  - STORE_TTL: Result retention (default: 5m)
  - BADGER_DIR: Badger data directory (default: /data/results)
  - REDIS_ADDR: Redis address (default: localhost:6379)

Event Streaming (NATSConfig):
  - NATS_ENABLED: Enable flow ingest via NATS (default: false)
  - NATS_URL: External server URL (ignored when embedded)
  - NATS_EMBEDDED_SERVER: Run embedded JetStream (default: true)
  - NATS_STORE_DIR: JetStream storage directory

Trainer Sync (SyncConfig):
  - SYNC_ENABLED: Enable periodic artifact sync (default: false)
  - TRAINER_URL: Trainer service base URL
  - TRAINER_API_KEY: Bearer token for the trainer API
  - SYNC_INTERVAL: Poll interval (default: 5m)

Security (SecurityConfig):
  - AUTH_MODE: none, apikey, jwt, or multi (default: none)
  - JWT_SECRET: JWT signing secret (min 32 chars, required for jwt mode)
  - ADMIN_USERNAME / ADMIN_PASSWORD: Admin login credentials
  - API_KEY_HASHES: Comma-separated bcrypt hashes of accepted API keys
  - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: Per-IP rate limit
  - CORS_ORIGINS: Comma-separated allowed origins (default: *)
  - TRUSTED_PROXIES: Comma-separated trusted proxy IPs/CIDRs

Logging (LoggingConfig):
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)

# Usage Example

Basic configuration loading:

	import "github.com/flowsentry/flowsentry/internal/config"

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Models: %s\n", cfg.Models.Dir)
	fmt.Printf("Latency target: %dms\n", cfg.Detection.LatencyTargetMs)

# Validation

The package performs comprehensive validation:

  - Required fields: MODELS_DIR, JWT_SECRET (if AUTH_MODE=jwt)
  - Numeric ranges: HTTP_PORT (1-65535), LATENCY_TARGET_MS (1-60000)
  - Threshold ranges: HIGH_THREAT_THRESHOLD within [0, 1]
  - Store backends: must be one of badger, redis, memory, none
  - URL formats: TRAINER_URL must be a valid HTTP(S) URL, NATS_URL a valid
    nats/tls/ws/wss URL
  - Production hardening: AUTH_MODE=none and wildcard CORS are rejected
    when ENVIRONMENT=production

# Security Best Practices

When configuring authentication:

 1. Use strong JWT secrets: minimum 32 characters, cryptographically random.
    Generate with: openssl rand -base64 48

 2. Store only bcrypt hashes in API_KEY_HASHES, never raw keys.

 3. Configure trusted proxies so client IPs survive reverse proxying:
    TRUSTED_PROXIES=127.0.0.1,10.0.0.0/8

 4. Set AUTH_MODE to jwt, apikey, or multi before exposing the API beyond
    localhost.

# Environment Files

For local development, create a config.yaml:

	server:
	  port: 8080
	models:
	  dir: ./models
	detection:
	  latency_target_ms: 100
	security:
	  auth_mode: none
	logging:
	  level: debug
	  format: console

# Thread Safety

The Config struct is immutable after Load() returns, making it safe for
concurrent access from multiple goroutines without synchronization.
*/
package config
