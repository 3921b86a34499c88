// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/flowsentry/config.yaml",
	"/etc/flowsentry/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development", // Set ENVIRONMENT=production for production checks
		},
		Models: ModelsConfig{
			Dir:                "./models",
			Manifest:           "models.yaml",
			StrictFeatureOrder: false,
			RequireLoaded:      false, // Degrade to "unknown" answers instead of refusing requests
			DefaultWeight:      1.0,
			// Trust weights for the standard trainer output. Unlisted models
			// fall back to DefaultWeight.
			Weights: map[string]float64{
				"decision_tree": 1.0,
				"knn":           0.8,
				"ensemble":      1.2,
			},
		},
		Detection: DetectionConfig{
			LatencyTargetMs:     100,
			HighThreatThreshold: 0.7,
			PositiveLabel:       "attack",
			MaxBatchSize:        100,
			ResultsBuffer:       256,
		},
		Store: StoreConfig{
			Backend: "badger",
			TTL:     5 * time.Minute,
			Badger: BadgerStoreConfig{
				Dir:      "/data/results",
				InMemory: false,
			},
			Redis: RedisStoreConfig{
				Addr:     "localhost:6379",
				Password: "",
				DB:       0,
			},
		},
		NATS: NATSConfig{
			Enabled:             false, // HTTP ingestion only by default
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamRetentionDays: 1,        // Flow events are high volume and transient
			SubscribersCount:    4,
			DurableName:         "flow-detector",
			QueueGroup:          "detectors",
			FlowSubject:         "flows.features",
			ResultSubject:       "flows.detections",

			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "flows.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Sync: SyncConfig{
			Enabled:       false,
			TrainerURL:    "",
			TrainerAPIKey: "",
			Interval:      5 * time.Minute,
			Timeout:       30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			MaxMessageBytes: 512 * 1024,
			SendBuffer:      256,
		},
		API: APIConfig{
			DefaultRecentLimit: 50,
			MaxRecentLimit:     500,
		},
		Security: SecurityConfig{
			AuthMode:          "none", // Opt-in; rejected when ENVIRONMENT=production
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			APIKeyHashes:      []string{},
			RateLimitReqs:     300,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// MODELS_DIR -> models.dir
	// LATENCY_TARGET_MS -> detection.latency_target_ms
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"security.api_key_hashes",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. This is necessary because env vars come in as strings, but the
// config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - MODELS_DIR -> models.dir
//   - LATENCY_TARGET_MS -> detection.latency_target_ms
//   - REDIS_ADDR -> store.redis.addr
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"environment":      "server.environment",

		// Model registry mappings
		"models_dir":                  "models.dir",
		"models_manifest":             "models.manifest",
		"models_strict_feature_order": "models.strict_feature_order",
		"models_require_loaded":       "models.require_loaded",
		"models_default_weight":       "models.default_weight",

		// Detection engine mappings
		"latency_target_ms":        "detection.latency_target_ms",
		"high_threat_threshold":    "detection.high_threat_threshold",
		"positive_label":           "detection.positive_label",
		"max_batch_size":           "detection.max_batch_size",
		"detection_results_buffer": "detection.results_buffer",

		// Result store mappings
		"store_backend":    "store.backend",
		"store_ttl":        "store.ttl",
		"badger_dir":       "store.badger.dir",
		"badger_in_memory": "store.badger.in_memory",
		"redis_addr":       "store.redis.addr",
		"redis_password":   "store.redis.password",
		"redis_db":         "store.redis.db",

		// NATS mappings
		"nats_enabled":         "nats.enabled",
		"nats_url":             "nats.url",
		"nats_embedded":        "nats.embedded_server",
		"nats_store_dir":       "nats.store_dir",
		"nats_max_memory":      "nats.max_memory",
		"nats_max_store":       "nats.max_store",
		"nats_retention_days":  "nats.stream_retention_days",
		"nats_subscribers":     "nats.subscribers_count",
		"nats_durable_name":    "nats.durable_name",
		"nats_queue_group":     "nats.queue_group",
		"nats_flow_subject":    "nats.flow_subject",
		"nats_result_subject":  "nats.result_subject",
		// Router configuration environment mappings
		"nats_router_retry_count":    "nats.router_retry_count",
		"nats_router_retry_interval": "nats.router_retry_initial_interval",
		"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
		"nats_router_poison_topic":   "nats.router_poison_queue_topic",
		"nats_router_close_timeout":  "nats.router_close_timeout",

		// Trainer sync mappings
		"sync_enabled":    "sync.enabled",
		"trainer_url":     "sync.trainer_url",
		"trainer_api_key": "sync.trainer_api_key",
		"sync_interval":   "sync.interval",
		"sync_timeout":    "sync.timeout",

		// WebSocket mappings
		"ws_max_message_bytes": "websocket.max_message_bytes",
		"ws_send_buffer":       "websocket.send_buffer",

		// API mappings
		"api_default_recent_limit": "api.default_recent_limit",
		"api_max_recent_limit":     "api.max_recent_limit",

		// Security mappings
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"api_key_hashes":      "security.api_key_hashes",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"trusted_proxies":     "security.trusted_proxies",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
// This is useful for hot-reload scenarios, custom configuration sources,
// and testing with mock configurations.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
