// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Detection throughput, latency, and threat scoring
// - Model registry health and per-model failures
// - Feature sanitization
// - API endpoint latency and throughput
// - Result store operations
// - WebSocket connections
// - Trainer sync and NATS ingest

var (
	// Detection Metrics
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detections_total",
			Help: "Total number of detections by ensemble verdict",
		},
		[]string{"prediction"}, // "attack", "normal", "unknown", ...
	)

	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_duration_seconds",
			Help:    "Duration of single-flow detections in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}, // Sub-100ms target
		},
	)

	ThreatScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_threat_score",
			Help:    "Distribution of ensemble threat scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	HighThreatDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_high_threat_total",
			Help: "Total number of detections above the high-threat threshold",
		},
	)

	LatencyOverruns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detection_latency_overruns_total",
			Help: "Total number of detections that exceeded the latency target",
		},
	)

	BatchDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_detections_total",
			Help: "Total number of batch detection requests",
		},
	)

	BatchDetectionSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_detection_size",
			Help:    "Number of flows in batch detection requests",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	DetectionDispatchDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detection_dispatch_drops_total",
			Help: "Total number of results dropped before fanout because the results channel was full",
		},
	)

	// Model Registry Metrics
	ModelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "models_loaded",
			Help: "Current number of models serving in the registry",
		},
	)

	ModelLoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_load_failures_total",
			Help: "Total number of model artifacts rejected at load time",
		},
		[]string{"reason"}, // "corrupt", "unsupported_version", "io_error"
	)

	ModelPredictionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_prediction_failures_total",
			Help: "Total number of per-model prediction failures during ensemble votes",
		},
		[]string{"model"},
	)

	RegistryReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_reloads_total",
			Help: "Total number of model registry reloads",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Feature Validation Metrics
	FeatureSanitizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_sanitizations_total",
			Help: "Total number of feature values repaired during validation",
		},
		[]string{"reason"}, // "missing", "non_finite", "clamped"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Result Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of result store operations",
		},
		[]string{"backend", "operation", "result"}, // operation: "put", "recent", "ping"; result: "success", "error"
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of result store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// Cache Metrics (in-memory result store backend)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Trainer Sync Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of trainer sync operations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120}, // Artifact downloads can take a while
		},
	)

	SyncArtifactsDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_artifacts_downloaded_total",
			Help: "Total number of model artifacts downloaded from the trainer",
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of trainer sync errors",
		},
		[]string{"error_type"}, // "trainer_api", "download", "verify", "reload"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of last successful trainer sync",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Event Processing Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages successfully processed",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NATSConsumerLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_consumer_lag",
			Help: "Number of pending messages in NATS consumer",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDetection records a single-flow detection outcome.
// latencyTarget is the configured per-detection budget; detections slower than
// it increment the overrun counter.
func RecordDetection(prediction string, threatScore float64, duration time.Duration, latencyTarget time.Duration, highThreat bool) {
	DetectionsTotal.WithLabelValues(prediction).Inc()
	DetectionDuration.Observe(duration.Seconds())
	ThreatScores.Observe(threatScore)
	if highThreat {
		HighThreatDetections.Inc()
	}
	if latencyTarget > 0 && duration > latencyTarget {
		LatencyOverruns.Inc()
	}
}

// RecordBatchDetection records a batch detection request.
func RecordBatchDetection(batchSize int) {
	BatchDetections.Inc()
	BatchDetectionSize.Observe(float64(batchSize))
}

// RecordModelLoadFailure records a rejected model artifact.
func RecordModelLoadFailure(reason string) {
	ModelLoadFailures.WithLabelValues(reason).Inc()
}

// RecordModelPredictionFailure records a per-model failure during an ensemble vote.
func RecordModelPredictionFailure(model string) {
	ModelPredictionFailures.WithLabelValues(model).Inc()
}

// RecordRegistryReload records a registry reload outcome and the new model count.
func RecordRegistryReload(modelCount int, err error) {
	if err != nil {
		RegistryReloads.WithLabelValues("failure").Inc()
		return
	}
	RegistryReloads.WithLabelValues("success").Inc()
	ModelsLoaded.Set(float64(modelCount))
}

// RecordFeatureSanitization records a repaired feature value.
func RecordFeatureSanitization(reason string) {
	FeatureSanitizations.WithLabelValues(reason).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation records a result store operation.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(backend, operation, result).Inc()
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordSyncOperation records a trainer sync metric
func RecordSyncOperation(duration time.Duration, artifactsDownloaded int, err error) {
	SyncDuration.Observe(duration.Seconds())
	SyncArtifactsDownloaded.Add(float64(artifactsDownloaded))
	if err != nil {
		errorType := "unknown"
		// Categorize error types
		errorMsg := err.Error()
		if len(errorMsg) > 0 {
			switch {
			case contains(errorMsg, "trainer"):
				errorType = "trainer_api"
			case contains(errorMsg, "download"):
				errorType = "download"
			case contains(errorMsg, "verify"), contains(errorMsg, "checksum"):
				errorType = "verify"
			case contains(errorMsg, "reload"):
				errorType = "reload"
			default:
				errorType = "other"
			}
		}
		SyncErrors.WithLabelValues(errorType).Inc()
	} else {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSProcessed records a message being successfully processed
func RecordNATSProcessed() {
	NATSMessagesProcessed.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// RecordNATSProcessingDuration records the duration of message processing
func RecordNATSProcessingDuration(duration time.Duration) {
	NATSProcessingDuration.Observe(duration.Seconds())
}

// UpdateNATSConsumerLag updates the NATS consumer lag gauge
func UpdateNATSConsumerLag(lag int64) {
	NATSConsumerLag.Set(float64(lag))
}

// UpdateWebSocketConnections sets the active connection gauge.
func UpdateWebSocketConnections(count int) {
	WSConnections.Set(float64(count))
}

// Helper function to check if a string contains a substring (prefix match,
// error messages put the failing stage first)
func contains(s, substr string) bool {
	return len(s) >= len(substr) && s[:len(substr)] == substr
}
