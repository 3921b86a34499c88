// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables
// and config files. Provides centralized configuration management for the
// detection engine, model registry, result store, transports, and security.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Models    ModelsConfig    `koanf:"models"`
	Detection DetectionConfig `koanf:"detection"`
	Store     StoreConfig     `koanf:"store"`
	NATS      NATSConfig      `koanf:"nats"`      // Optional: flow-event ingestion with Watermill/NATS JetStream
	Sync      SyncConfig      `koanf:"sync"`      // Optional: model artifact sync from the training service
	WebSocket WebSocketConfig `koanf:"websocket"` // Live detection streaming
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`          // Read/write timeout for HTTP requests
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // Grace period for in-flight requests on shutdown
	Environment     string        `koanf:"environment"`      // "development", "staging", "production"
}

// ModelsConfig holds model registry settings.
//
// The registry scans Dir for serialized model artifacts at startup and on
// explicit reload. A single corrupt artifact is skipped, never fatal. The
// optional manifest (YAML, resolved relative to Dir) assigns per-model weights
// and feature-order overrides on top of the artifact contents.
//
// Environment Variables:
//   - MODELS_DIR: Artifact directory (default: ./models)
//   - MODELS_STRICT_FEATURE_ORDER: Reject models without a declared feature
//     order at load time instead of falling back to the schema order
//   - MODELS_REQUIRE_LOADED: Refuse detection requests while zero models are
//     loaded instead of answering "unknown"
type ModelsConfig struct {
	Dir                string             `koanf:"dir"`
	Manifest           string             `koanf:"manifest"`
	StrictFeatureOrder bool               `koanf:"strict_feature_order"`
	RequireLoaded      bool               `koanf:"require_loaded"`
	DefaultWeight      float64            `koanf:"default_weight"`
	Weights            map[string]float64 `koanf:"weights"` // Per-model weight overrides keyed by model name
}

// DetectionConfig holds detection engine settings.
type DetectionConfig struct {
	// LatencyTargetMs is the advisory per-detection processing budget in
	// milliseconds. Overruns are logged as warnings, never enforced.
	LatencyTargetMs int `koanf:"latency_target_ms"`

	// HighThreatThreshold is the threat score above which a detection is
	// logged as a warning with source context.
	HighThreatThreshold float64 `koanf:"high_threat_threshold"`

	// PositiveLabel is the class label treated as an attack vote when
	// deriving the threat score.
	PositiveLabel string `koanf:"positive_label"`

	// MaxBatchSize bounds the number of requests accepted per batch call.
	MaxBatchSize int `koanf:"max_batch_size"`

	// ResultsBuffer sizes the internal channel between the request path and
	// the fanout loop. A full buffer drops the dispatch, never blocks.
	ResultsBuffer int `koanf:"results_buffer"`
}

// StoreConfig holds result store settings. Recent detection results are kept
// with a short TTL for the introspection API and for sibling services.
type StoreConfig struct {
	// Backend selects the store implementation: "badger", "redis", "memory",
	// or "none".
	Backend string            `koanf:"backend"`
	TTL     time.Duration     `koanf:"ttl"`
	Badger  BadgerStoreConfig `koanf:"badger"`
	Redis   RedisStoreConfig  `koanf:"redis"`
}

// BadgerStoreConfig holds embedded BadgerDB store settings.
type BadgerStoreConfig struct {
	Dir      string `koanf:"dir"`
	InMemory bool   `koanf:"in_memory"`
}

// RedisStoreConfig holds Redis store settings.
type RedisStoreConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// NATSConfig holds NATS JetStream ingestion settings. When enabled, capture
// agents publish flow events to JetStream and the detector consumes them
// through a durable queue-group subscriber.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	StreamRetentionDays int    `koanf:"stream_retention_days"`
	SubscribersCount    int    `koanf:"subscribers_count"`
	DurableName         string `koanf:"durable_name"`
	QueueGroup          string `koanf:"queue_group"`

	// FlowSubject carries inbound flow events; ResultSubject carries
	// published detection results.
	FlowSubject   string `koanf:"flow_subject"`
	ResultSubject string `koanf:"result_subject"`

	// Watermill router middleware settings.
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// SyncConfig holds model artifact sync settings. When enabled, a background
// manager polls the training service's artifact index, downloads newer
// versions, and triggers a registry reload.
type SyncConfig struct {
	Enabled       bool          `koanf:"enabled"`
	TrainerURL    string        `koanf:"trainer_url"`
	TrainerAPIKey string        `koanf:"trainer_api_key"`
	Interval      time.Duration `koanf:"interval"`
	Timeout       time.Duration `koanf:"timeout"`
}

// WebSocketConfig holds WebSocket hub settings.
type WebSocketConfig struct {
	// MaxMessageBytes bounds inbound client messages.
	MaxMessageBytes int64 `koanf:"max_message_bytes"`
	// SendBuffer is the per-client outbound buffer; a full buffer drops that
	// client's oldest queued message rather than blocking the broadcast.
	SendBuffer int `koanf:"send_buffer"`
}

// APIConfig holds API response limits.
type APIConfig struct {
	DefaultRecentLimit int `koanf:"default_recent_limit"`
	MaxRecentLimit     int `koanf:"max_recent_limit"`
}

// SecurityConfig holds authentication and transport security settings.
//
// AuthMode selects how protected endpoints authenticate callers:
//   - "none": no authentication (rejected in production)
//   - "apikey": bcrypt-hashed API keys for capture agents
//   - "jwt": admin login issues HS256 tokens
//   - "multi": accept either a valid API key or a valid JWT
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	APIKeyHashes      []string      `koanf:"api_key_hashes"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Load loads configuration from defaults, an optional config file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
