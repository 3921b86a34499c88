// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDetection tests detection metric recording
func TestRecordDetection(t *testing.T) {
	tests := []struct {
		name          string
		prediction    string
		threatScore   float64
		duration      time.Duration
		latencyTarget time.Duration
		highThreat    bool
	}{
		{
			name:          "normal verdict under target",
			prediction:    "normal",
			threatScore:   0.05,
			duration:      2 * time.Millisecond,
			latencyTarget: 100 * time.Millisecond,
			highThreat:    false,
		},
		{
			name:          "attack verdict with high threat",
			prediction:    "attack",
			threatScore:   0.92,
			duration:      5 * time.Millisecond,
			latencyTarget: 100 * time.Millisecond,
			highThreat:    true,
		},
		{
			name:          "unknown verdict when all models fail",
			prediction:    "unknown",
			threatScore:   0.0,
			duration:      1 * time.Millisecond,
			latencyTarget: 100 * time.Millisecond,
			highThreat:    false,
		},
		{
			name:          "slow detection exceeds latency target",
			prediction:    "attack",
			threatScore:   0.75,
			duration:      150 * time.Millisecond,
			latencyTarget: 100 * time.Millisecond,
			highThreat:    true,
		},
		{
			name:          "zero latency target disables overrun tracking",
			prediction:    "normal",
			threatScore:   0.1,
			duration:      500 * time.Millisecond,
			latencyTarget: 0,
			highThreat:    false,
		},
		{
			name:          "sub-millisecond detection",
			prediction:    "normal",
			threatScore:   0.0,
			duration:      300 * time.Microsecond,
			latencyTarget: 100 * time.Millisecond,
			highThreat:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the detection - should not panic
			RecordDetection(tt.prediction, tt.threatScore, tt.duration, tt.latencyTarget, tt.highThreat)
		})
	}
}

// TestRecordBatchDetection tests batch detection metric recording
func TestRecordBatchDetection(t *testing.T) {
	batchSizes := []int{1, 10, 50, 100, 500, 1000}

	for _, size := range batchSizes {
		RecordBatchDetection(size)
	}
}

// TestRecordModelLoadFailure tests model load failure recording
func TestRecordModelLoadFailure(t *testing.T) {
	reasons := []string{"corrupt", "unsupported_version", "io_error"}

	for _, reason := range reasons {
		t.Run("reason_"+reason, func(t *testing.T) {
			RecordModelLoadFailure(reason)
		})
	}
}

// TestRecordModelPredictionFailure tests per-model failure recording
func TestRecordModelPredictionFailure(t *testing.T) {
	models := []string{"decision_tree", "knn", "ensemble"}

	for _, model := range models {
		t.Run("model_"+model, func(t *testing.T) {
			RecordModelPredictionFailure(model)
		})
	}
}

// TestRecordRegistryReload tests registry reload recording
func TestRecordRegistryReload(t *testing.T) {
	tests := []struct {
		name       string
		modelCount int
		err        error
	}{
		{
			name:       "successful reload with three models",
			modelCount: 3,
			err:        nil,
		},
		{
			name:       "successful reload with zero models",
			modelCount: 0,
			err:        nil,
		},
		{
			name:       "failed reload keeps previous gauge",
			modelCount: 0,
			err:        errors.New("manifest parse failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordRegistryReload(tt.modelCount, tt.err)
		})
	}
}

// TestRecordFeatureSanitization tests sanitization counter recording
func TestRecordFeatureSanitization(t *testing.T) {
	reasons := []string{"missing", "non_finite", "clamped"}

	for _, reason := range reasons {
		t.Run("reason_"+reason, func(t *testing.T) {
			RecordFeatureSanitization(reason)
		})
	}
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{
			name:       "successful detect request",
			method:     "POST",
			endpoint:   "/api/v1/detect",
			statusCode: "200",
			duration:   3 * time.Millisecond,
		},
		{
			name:       "successful batch detect",
			method:     "POST",
			endpoint:   "/api/v1/detect/batch",
			statusCode: "200",
			duration:   45 * time.Millisecond,
		},
		{
			name:       "successful stats request",
			method:     "GET",
			endpoint:   "/api/v1/stats",
			statusCode: "200",
			duration:   1 * time.Millisecond,
		},
		{
			name:       "unauthorized reload request",
			method:     "POST",
			endpoint:   "/api/v1/models/reload",
			statusCode: "401",
			duration:   2 * time.Millisecond,
		},
		{
			name:       "validation failure",
			method:     "POST",
			endpoint:   "/api/v1/detect",
			statusCode: "400",
			duration:   1 * time.Millisecond,
		},
		{
			name:       "rate limited request",
			method:     "POST",
			endpoint:   "/api/v1/detect",
			statusCode: "429",
			duration:   500 * time.Microsecond,
		},
		{
			name:       "internal server error",
			method:     "GET",
			endpoint:   "/api/v1/models",
			statusCode: "500",
			duration:   10 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the request - should not panic
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
		})
	}
}

// TestRecordStoreOperation tests result store metric recording
func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		operation string
		duration  time.Duration
		err       error
	}{
		{
			name:      "successful badger put",
			backend:   "badger",
			operation: "put",
			duration:  500 * time.Microsecond,
			err:       nil,
		},
		{
			name:      "successful redis put",
			backend:   "redis",
			operation: "put",
			duration:  2 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "failed redis put",
			backend:   "redis",
			operation: "put",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
		},
		{
			name:      "successful memory recent scan",
			backend:   "memory",
			operation: "recent",
			duration:  100 * time.Microsecond,
			err:       nil,
		},
		{
			name:      "failed badger get",
			backend:   "badger",
			operation: "get",
			duration:  1 * time.Millisecond,
			err:       errors.New("key not found"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordStoreOperation(tt.backend, tt.operation, tt.duration, tt.err)
		})
	}
}

// TestRecordSyncOperation tests trainer sync metric recording
func TestRecordSyncOperation(t *testing.T) {
	tests := []struct {
		name                string
		duration            time.Duration
		artifactsDownloaded int
		err                 error
		expectedErrType     string // expected error type classification
	}{
		{
			name:                "successful sync - no new artifacts",
			duration:            1 * time.Second,
			artifactsDownloaded: 0,
			err:                 nil,
			expectedErrType:     "",
		},
		{
			name:                "successful sync - full refresh",
			duration:            30 * time.Second,
			artifactsDownloaded: 3,
			err:                 nil,
			expectedErrType:     "",
		},
		{
			name:                "trainer API error",
			duration:            5 * time.Second,
			artifactsDownloaded: 0,
			err:                 errors.New("trainer returned status 503"),
			expectedErrType:     "trainer_api",
		},
		{
			name:                "download error",
			duration:            10 * time.Second,
			artifactsDownloaded: 1,
			err:                 errors.New("download interrupted"),
			expectedErrType:     "download",
		},
		{
			name:                "checksum error",
			duration:            8 * time.Second,
			artifactsDownloaded: 2,
			err:                 errors.New("checksum mismatch for knn.model"),
			expectedErrType:     "verify",
		},
		{
			name:                "reload error",
			duration:            12 * time.Second,
			artifactsDownloaded: 3,
			err:                 errors.New("reload rejected: corrupt artifact"),
			expectedErrType:     "reload",
		},
		{
			name:                "unknown error type",
			duration:            2 * time.Second,
			artifactsDownloaded: 0,
			err:                 errors.New("something unexpected happened"),
			expectedErrType:     "other",
		},
		{
			name:                "empty error message",
			duration:            1 * time.Second,
			artifactsDownloaded: 0,
			err:                 errors.New(""),
			expectedErrType:     "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the sync operation - should not panic
			RecordSyncOperation(tt.duration, tt.artifactsDownloaded, tt.err)
		})
	}
}

// TestTrackActiveRequest tests active request tracking
func TestTrackActiveRequest(t *testing.T) {
	tests := []struct {
		name string
		inc  bool
	}{
		{
			name: "increment active request",
			inc:  true,
		},
		{
			name: "decrement active request",
			inc:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Track active request - should not panic
			TrackActiveRequest(tt.inc)
		})
	}
}

// TestTrackActiveRequest_RequestLifecycle simulates realistic request lifecycle
func TestTrackActiveRequest_RequestLifecycle(t *testing.T) {
	// Simulate multiple concurrent requests
	for i := 0; i < 10; i++ {
		TrackActiveRequest(true) // Request starts
	}

	// Some requests complete
	for i := 0; i < 5; i++ {
		TrackActiveRequest(false) // Request ends
	}

	// More requests start
	for i := 0; i < 3; i++ {
		TrackActiveRequest(true)
	}

	// All remaining complete
	for i := 0; i < 8; i++ {
		TrackActiveRequest(false)
	}
}

// TestContains tests the contains helper function
func TestContains(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		substr   string
		expected bool
	}{
		{
			name:     "substring at start",
			s:        "trainer returned status 503",
			substr:   "trainer",
			expected: true,
		},
		{
			name:     "substring not at start",
			s:        "error from trainer",
			substr:   "trainer",
			expected: false,
		},
		{
			name:     "empty substring - always true",
			s:        "any string",
			substr:   "",
			expected: true,
		},
		{
			name:     "empty string with empty substr",
			s:        "",
			substr:   "",
			expected: true,
		},
		{
			name:     "substring longer than string",
			s:        "hi",
			substr:   "hello",
			expected: false,
		},
		{
			name:     "exact match",
			s:        "download",
			substr:   "download",
			expected: true,
		},
		{
			name:     "case sensitive - no match",
			s:        "Download failed",
			substr:   "download",
			expected: false,
		},
		{
			name:     "checksum prefix match",
			s:        "checksum mismatch for model",
			substr:   "checksum",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := contains(tt.s, tt.substr)
			if result != tt.expected {
				t.Errorf("contains(%q, %q) = %v, want %v", tt.s, tt.substr, result, tt.expected)
			}
		})
	}
}

// TestConcurrentMetricRecording tests thread safety of metric recording
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 100
	operationsPerGoroutine := 50

	// Test concurrent detection recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordDetection("normal", 0.1, time.Duration(j)*time.Microsecond, 100*time.Millisecond, false)
			}
		}(i)
	}

	// Test concurrent API request recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordAPIRequest("POST", "/api/v1/detect", "200", time.Duration(j)*time.Millisecond)
			}
		}(i)
	}

	// Test concurrent active request tracking
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}(i)
	}

	// Test concurrent store operation recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordStoreOperation("memory", "put", time.Microsecond, nil)
			}
		}(i)
	}

	wg.Wait()
}

// TestMetricLabels verifies that metrics have proper labels configured
func TestMetricLabels(t *testing.T) {
	// Test DetectionsTotal has correct labels
	DetectionsTotal.WithLabelValues("attack").Inc()
	DetectionsTotal.WithLabelValues("normal").Inc()
	DetectionsTotal.WithLabelValues("unknown").Inc()

	// Test ModelLoadFailures has correct labels
	ModelLoadFailures.WithLabelValues("corrupt").Inc()

	// Test APIRequestsTotal has correct labels
	APIRequestsTotal.WithLabelValues("GET", "/api/test", "200").Inc()
	APIRequestsTotal.WithLabelValues("POST", "/api/test", "500").Inc()

	// Test SyncErrors has correct labels
	SyncErrors.WithLabelValues("trainer_api").Inc()
	SyncErrors.WithLabelValues("download").Inc()
	SyncErrors.WithLabelValues("verify").Inc()

	// Test StoreOperations has correct labels
	StoreOperations.WithLabelValues("badger", "put", "success").Inc()
	StoreOperations.WithLabelValues("redis", "get", "error").Inc()

	// Test CacheHits has correct labels
	CacheHits.WithLabelValues("detection_results").Inc()

	// Test WSErrors has correct labels
	WSErrors.WithLabelValues("connection_closed").Inc()
	WSErrors.WithLabelValues("write_failed").Inc()
}

// TestCircuitBreakerMetrics tests circuit breaker metric recording
func TestCircuitBreakerMetrics(t *testing.T) {
	cbName := "trainer_api"

	// Test state changes (0=closed, 1=half-open, 2=open)
	CircuitBreakerState.WithLabelValues(cbName).Set(0) // closed
	CircuitBreakerState.WithLabelValues(cbName).Set(2) // open
	CircuitBreakerState.WithLabelValues(cbName).Set(1) // half-open

	// Test request counts
	CircuitBreakerRequests.WithLabelValues(cbName, "success").Inc()
	CircuitBreakerRequests.WithLabelValues(cbName, "failure").Inc()
	CircuitBreakerRequests.WithLabelValues(cbName, "rejected").Inc()

	// Test consecutive failures
	CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(5)

	// Test state transitions
	CircuitBreakerTransitions.WithLabelValues(cbName, "closed", "open").Inc()
	CircuitBreakerTransitions.WithLabelValues(cbName, "open", "half-open").Inc()
	CircuitBreakerTransitions.WithLabelValues(cbName, "half-open", "closed").Inc()
}

// TestWebSocketMetrics tests WebSocket metric recording
func TestWebSocketMetrics(t *testing.T) {
	// Test connection gauge
	WSConnections.Set(10)
	WSConnections.Inc()
	WSConnections.Dec()
	UpdateWebSocketConnections(4)

	// Test message counters
	WSMessagesSent.Add(100)
	WSMessagesReceived.Add(50)

	// Test error counter with different types
	WSErrors.WithLabelValues("connection_closed").Inc()
	WSErrors.WithLabelValues("write_timeout").Inc()
	WSErrors.WithLabelValues("invalid_message").Inc()
}

// TestNATSMetrics tests NATS pipeline metric recording
func TestNATSMetrics(t *testing.T) {
	RecordNATSPublish()
	RecordNATSConsume()
	RecordNATSProcessed()
	RecordNATSParseFailed()
	RecordNATSProcessingDuration(5 * time.Millisecond)
	UpdateNATSConsumerLag(42)
	UpdateNATSConsumerLag(0)
}

// TestAppMetrics tests application-level metrics
func TestAppMetrics(t *testing.T) {
	// Test app info
	AppInfo.WithLabelValues("1.0.0", "go1.24.0").Set(1)

	// Test uptime
	AppUptime.Set(3600) // 1 hour
	AppUptime.Add(60)   // Add 1 minute
}

// TestAPIRateLimitHits tests rate limit hit counter
func TestAPIRateLimitHits(t *testing.T) {
	endpoints := []string{
		"/api/v1/detect",
		"/api/v1/detect/batch",
		"/api/v1/stats",
		"/api/v1/models/reload",
	}

	for _, endpoint := range endpoints {
		APIRateLimitHits.WithLabelValues(endpoint).Inc()
	}
}

// TestCacheMetrics tests general cache metrics
func TestCacheMetrics(t *testing.T) {
	cacheTypes := []string{"detection_results"}

	for _, cacheType := range cacheTypes {
		CacheHits.WithLabelValues(cacheType).Add(100)
		CacheMisses.WithLabelValues(cacheType).Add(20)
		CacheSize.WithLabelValues(cacheType).Set(50)
		CacheEvictions.WithLabelValues(cacheType).Add(5)
	}
}

// TestSyncLastSuccess tests sync timestamp recording
func TestSyncLastSuccess(t *testing.T) {
	// Simulate successful sync
	RecordSyncOperation(5*time.Second, 2, nil)

	// Get the current value - should be recent
	// Note: We can't easily get the value without more complex setup,
	// but we verify no panic occurs
}

// TestMetricsRegistration verifies all metrics are properly registered
func TestMetricsRegistration(t *testing.T) {
	// Test that all metrics can be collected without panic
	metrics := []prometheus.Collector{
		DetectionsTotal,
		DetectionDuration,
		ThreatScores,
		HighThreatDetections,
		LatencyOverruns,
		BatchDetections,
		BatchDetectionSize,
		DetectionDispatchDrops,
		ModelsLoaded,
		ModelLoadFailures,
		ModelPredictionFailures,
		RegistryReloads,
		FeatureSanitizations,
		APIRequestsTotal,
		APIRequestDuration,
		APIActiveRequests,
		APIRateLimitHits,
		StoreOperations,
		StoreOperationDuration,
		CacheHits,
		CacheMisses,
		CacheSize,
		CacheEvictions,
		WSConnections,
		WSMessagesSent,
		WSMessagesReceived,
		WSErrors,
		SyncDuration,
		SyncArtifactsDownloaded,
		SyncErrors,
		SyncLastSuccess,
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerConsecutiveFailures,
		CircuitBreakerTransitions,
		NATSMessagesPublished,
		NATSMessagesConsumed,
		NATSMessagesProcessed,
		NATSMessagesParseFailed,
		NATSProcessingDuration,
		NATSConsumerLag,
		AppInfo,
		AppUptime,
	}

	// Verify each metric can be described
	for _, m := range metrics {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		// Should have at least one descriptor
		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// Benchmark tests for metrics performance

func BenchmarkRecordDetection(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordDetection("normal", 0.1, 2*time.Millisecond, 100*time.Millisecond, false)
	}
}

func BenchmarkRecordAPIRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordAPIRequest("POST", "/api/v1/detect", "200", 3*time.Millisecond)
	}
}

func BenchmarkRecordStoreOperation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordStoreOperation("memory", "put", time.Microsecond, nil)
	}
}

func BenchmarkTrackActiveRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		TrackActiveRequest(true)
		TrackActiveRequest(false)
	}
}

func BenchmarkContains(b *testing.B) {
	s := "trainer returned status 503"
	substr := "trainer"
	for i := 0; i < b.N; i++ {
		contains(s, substr)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	// Record some metrics
	RecordDetection("normal", 0.2, time.Millisecond, 100*time.Millisecond, false)
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)

	// Verify we can lint the metrics (checks for consistency issues)
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}
