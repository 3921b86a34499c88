// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring detection performance, model health,
and system behavior.

# Overview

The package provides metrics for:
  - Detection throughput, latency, and threat score distribution
  - Model registry health and per-model prediction failures
  - Feature sanitization counts
  - API request latency and throughput
  - Result store operation performance
  - Trainer sync statistics
  - Circuit breaker state transitions
  - WebSocket connection counts
  - NATS ingest pipeline statistics

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Detection Metrics:
  - detections_total: Total detections (counter)
    Labels: prediction (attack, normal, unknown)
  - detection_duration_seconds: Per-flow detection latency (histogram)
    Buckets: .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5
  - detection_threat_score: Threat score distribution (histogram)
  - detections_high_threat_total: Detections above the high-threat threshold (counter)
  - detection_latency_overruns_total: Detections slower than the latency target (counter)
  - batch_detections_total: Batch requests (counter)
  - batch_detection_size: Flows per batch (histogram)
  - detection_dispatch_drops_total: Results dropped before fanout (counter)

Model Registry Metrics:
  - models_loaded: Models currently serving (gauge)
  - model_load_failures_total: Artifacts rejected at load time (counter)
    Labels: reason (corrupt, unsupported_version, io_error)
  - model_prediction_failures_total: Per-model vote failures (counter)
    Labels: model
  - registry_reloads_total: Registry reload outcomes (counter)
    Labels: result (success, failure)

Feature Validation Metrics:
  - feature_sanitizations_total: Repaired feature values (counter)
    Labels: reason (missing, non_finite, clamped)

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Result Store Metrics:
  - store_operations_total: Store operations (counter)
    Labels: backend, operation, result
  - store_operation_duration_seconds: Operation latency (histogram)
    Labels: backend, operation

Trainer Sync Metrics:
  - sync_duration_seconds: Sync operation duration (histogram)
    Buckets: .1, .5, 1, 5, 10, 30, 60, 120
  - sync_artifacts_downloaded_total: Artifacts fetched from the trainer (counter)
  - sync_errors_total: Failed syncs (counter)
    Labels: error_type (trainer_api, download, verify, reload, other)
  - sync_last_success_timestamp: Unix timestamp of last successful sync (gauge)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests by outcome (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures: Current failure streak (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total: Messages sent (counter)
  - websocket_messages_received_total: Messages received (counter)
  - websocket_errors_total: Errors (counter)
    Labels: error_type

NATS Metrics:
  - nats_messages_published_total: Detection results published (counter)
  - nats_messages_consumed_total: Flow events consumed (counter)
  - nats_messages_processed_total: Flow events processed (counter)
  - nats_messages_parse_failed_total: Malformed flow events (counter)
  - nats_processing_duration_seconds: Handler duration (histogram)
  - nats_consumer_lag: Pending messages in the consumer (gauge)

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/flowsentry/flowsentry/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    // Register metrics endpoint
	    http.Handle("/metrics", promhttp.Handler())

	    // Record metrics
	    metrics.RecordDetection("attack", 0.85, 2*time.Millisecond, 100*time.Millisecond, true)
	    metrics.RecordAPIRequest("POST", "/api/v1/detect", "200", 3*time.Millisecond)
	}

Recording detection metrics in the scorer:

	start := time.Now()
	result := engine.Detect(features)
	duration := time.Since(start)

	metrics.RecordDetection(result.Prediction, result.ThreatScore, duration,
	    latencyTarget, result.ThreatScore > highThreatThreshold)

Recording store metrics:

	start := time.Now()
	err := store.Put(ctx, record)
	metrics.RecordStoreOperation("badger", "put", time.Since(start), err)

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'flowsentry'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

# Grafana Dashboards

The metrics support Grafana dashboards with panels for:

  - Detection rate (flows per second) and verdict breakdown
  - Detection latency (p50, p95, p99 percentiles) against the latency target
  - Threat score heatmap
  - Model registry health (loaded count, per-model failure rates)
  - API request rate and error rate by endpoint
  - Trainer sync freshness
  - Circuit breaker state visualization

Example PromQL queries:

	# Detection rate
	rate(detections_total[5m])

	# Detection p99 latency
	histogram_quantile(0.99, rate(detection_duration_seconds_bucket[5m]))

	# Attack ratio
	sum(rate(detections_total{prediction="attack"}[5m])) / sum(rate(detections_total[5m]))

	# Latency target violations per minute
	rate(detection_latency_overruns_total[1m]) * 60

	# Sync staleness in seconds
	time() - sync_last_success_timestamp

# Performance Impact

Metrics collection overhead:
  - Counter increment: ~100ns per operation
  - Histogram observation: ~500ns per operation
  - Memory overhead: ~5KB per metric time series
  - Total overhead: <1% CPU, <10MB RAM for typical workloads

The detection hot path records one counter and two histogram observations per
flow, which is negligible next to the model inference itself.

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels are normalized (chi route patterns, no query parameters)
  - Prediction labels come from model class names, which are fixed per deployment
  - Error types are limited to predefined constants
  - Per-flow labels (source IP, flow ID) are never used

Maximum cardinality per metric:
  - detections_total: ~5 series (one per class label)
  - api_requests_total: ~300 series (5 methods × 12 endpoints × 5 statuses)
  - model_prediction_failures_total: one series per loaded model

# Alerting Rules

Example Prometheus alerting rules:

	groups:
	  - name: flowsentry
	    rules:
	      - alert: DetectionLatencyHigh
	        expr: |
	          histogram_quantile(0.95,
	            rate(detection_duration_seconds_bucket[5m]))
	          > 0.1
	        for: 5m
	        annotations:
	          summary: "p95 detection latency: {{ $value }}s"

	      - alert: NoModelsLoaded
	        expr: models_loaded == 0
	        for: 1m
	        annotations:
	          summary: "Detector has no models loaded"

	      - alert: TrainerSyncStale
	        expr: time() - sync_last_success_timestamp > 3600
	        for: 10m
	        annotations:
	          summary: "No successful trainer sync in the last hour"

	      - alert: CircuitBreakerOpen
	        expr: circuit_breaker_state > 1
	        for: 2m
	        annotations:
	          summary: "Circuit breaker open for {{ $labels.name }}"

# Debugging

Inspect the exposed metrics directly:

	# View all registered metrics
	curl http://localhost:8080/metrics | grep "# HELP"

	# Check specific metric
	curl http://localhost:8080/metrics | grep detections_total

	# Validate Prometheus format
	promtool check metrics http://localhost:8080/metrics

# Best Practices

When adding new metrics:

 1. Use appropriate metric types:
    - Counter: Monotonically increasing values (detections, errors)
    - Gauge: Point-in-time values (connections, models loaded)
    - Histogram: Distribution of values (latency, threat score)

 2. Choose descriptive names:
    - Use underscore separation: detection_duration_seconds
    - Include units: _seconds, _bytes, _total
    - Follow Prometheus naming conventions

 3. Add helpful documentation:
    - Include HELP text describing the metric
    - Document all label dimensions
    - Specify units in metric name

 4. Minimize cardinality:
    - Avoid high-cardinality labels (IPs, flow IDs, timestamps)
    - Normalize endpoint paths
    - Use fixed error type constants

 5. Test performance impact:
    - Benchmark metric recording overhead
    - Monitor memory usage with many time series
    - Validate scrape duration <1s

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/detector: Detection pipeline metrics recording
  - internal/sync: Trainer sync metrics
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
  - https://prometheus.io/docs/practices/instrumentation/: Instrumentation guide
*/
package metrics
