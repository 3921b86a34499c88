// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// dispatchTimeout bounds one result store write during dispatch.
const dispatchTimeout = 5 * time.Second

var (
	// ErrNoModels is returned when the deployment requires at least one
	// loaded model and the registry is empty.
	ErrNoModels = errors.New("no models loaded")

	// ErrEmptyBatch is returned for a batch request with no flows.
	ErrEmptyBatch = errors.New("batch contains no flows")

	// ErrBatchTooLarge is returned when a batch exceeds the configured
	// maximum size.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// Broadcaster pushes detection results to streaming subscribers.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// ResultSink persists detection records.
type ResultSink interface {
	Put(ctx context.Context, rec models.DetectionRecord) error
}

// ServiceConfig tunes the detection pipeline.
type ServiceConfig struct {
	// LatencyTarget is the advisory per-detection budget. Exceeding it
	// logs a warning; the result is still returned.
	LatencyTarget time.Duration

	// HighThreatThreshold marks detections worth an operator alert.
	HighThreatThreshold float64

	// PositiveLabel is the class label counted as an attack vote.
	PositiveLabel string

	// MaxBatchSize bounds one batch request.
	MaxBatchSize int

	// ResultsBuffer sizes the dispatch channel between detections and
	// the broadcast/store fanout.
	ResultsBuffer int

	// RequireModels rejects detection requests while the registry is
	// empty instead of answering "unknown".
	RequireModels bool
}

// DefaultServiceConfig returns the stock pipeline tuning.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		LatencyTarget:       100 * time.Millisecond,
		HighThreatThreshold: 0.7,
		PositiveLabel:       "attack",
		MaxBatchSize:        100,
		ResultsBuffer:       256,
	}
}

// Service orchestrates one detection: sanitize features, collect model
// votes, combine them, score the threat, record stats, then hand the result
// to the fanout goroutine. Scoring itself never blocks and never fails the
// request; only a malformed request or an empty registry (when required)
// surfaces an error.
//
// Detect and Process are safe for concurrent use. RunWithContext must be
// running for broadcast and persistence dispatch to drain.
type Service struct {
	registry    *Registry
	sanitizer   *Sanitizer
	stats       *Stats
	cfg         ServiceConfig
	broadcaster Broadcaster
	sink        ResultSink

	results chan models.DetectionRecord
}

// NewService wires the pipeline. The registry must not be nil; broadcaster
// and sink may be nil when streaming or persistence is disabled.
func NewService(registry *Registry, broadcaster Broadcaster, sink ResultSink, cfg ServiceConfig) *Service {
	if cfg.LatencyTarget <= 0 {
		cfg.LatencyTarget = 100 * time.Millisecond
	}
	if cfg.HighThreatThreshold <= 0 {
		cfg.HighThreatThreshold = 0.7
	}
	if cfg.PositiveLabel == "" {
		cfg.PositiveLabel = "attack"
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.ResultsBuffer <= 0 {
		cfg.ResultsBuffer = 256
	}

	return &Service{
		registry:    registry,
		sanitizer:   NewSanitizer(registry.Schema()),
		stats:       NewStats(),
		cfg:         cfg,
		broadcaster: broadcaster,
		sink:        sink,
		results:     make(chan models.DetectionRecord, cfg.ResultsBuffer),
	}
}

// Detect classifies one flow and returns the ensemble verdict. The whole
// scoring path is CPU-bound; ctx is accepted for interface symmetry with
// the blocking entry points but is not consulted mid-scoring.
func (s *Service) Detect(ctx context.Context, req models.DetectionRequest) (models.DetectionResponse, error) {
	start := time.Now()

	// One catalog generation per detection. A concurrent reload swaps the
	// catalog pointer; this detection keeps scoring against the set it
	// started with.
	mods := s.registry.All()
	if s.cfg.RequireModels && len(mods) == 0 {
		return models.DetectionResponse{}, ErrNoModels
	}

	features := s.sanitizer.Process(req.Features)
	preds, confs := collectVotes(mods, features)
	prediction, confidence := combineVotes(mods, preds, confs)
	threat := computeThreatScore(mods, preds, confs, features, s.cfg.PositiveLabel)

	elapsed := time.Since(start)
	processingMs := float64(elapsed.Microseconds()) / 1000.0

	s.stats.Record(processingMs, threat)
	metrics.RecordDetection(prediction, threat, elapsed, s.cfg.LatencyTarget, threat > s.cfg.HighThreatThreshold)

	if elapsed > s.cfg.LatencyTarget {
		logging.Warn().
			Float64("processing_time_ms", processingMs).
			Dur("latency_target", s.cfg.LatencyTarget).
			Msg("latency target exceeded")
	}

	return models.DetectionResponse{
		Prediction:       prediction,
		Confidence:       confidence,
		ThreatScore:      threat,
		ModelPredictions: models.ModelPredictions{Predictions: preds, Confidences: confs},
		ProcessingTimeMs: processingMs,
		Timestamp:        float64(time.Now().UnixNano()) / 1e9,
	}, nil
}

// Process runs Detect and then forwards the result to the broadcast and
// persistence fanout. Forwarding is fire-and-forget: a full dispatch
// channel drops the record rather than delaying the response.
func (s *Service) Process(ctx context.Context, req models.DetectionRequest) (models.DetectionResponse, error) {
	resp, err := s.Detect(ctx, req)
	if err != nil {
		return models.DetectionResponse{}, err
	}

	if resp.ThreatScore > s.cfg.HighThreatThreshold {
		logging.Warn().
			Str("prediction", resp.Prediction).
			Float64("confidence", resp.Confidence).
			Float64("threat_score", resp.ThreatScore).
			Str("source_ip", req.SourceIP).
			Str("dest_ip", req.DestIP).
			Msg("high threat detected")
	}

	rec := models.DetectionRecord{
		ID:                uuid.New().String(),
		SourceIP:          req.SourceIP,
		DestIP:            req.DestIP,
		DetectionResponse: resp,
	}

	select {
	case s.results <- rec:
	default:
		metrics.DetectionDispatchDrops.Inc()
		logging.Warn().Str("id", rec.ID).Msg("results channel full, dropping detection dispatch")
	}

	return resp, nil
}

// DetectBatch classifies a batch of flows in order and reports aggregate
// timing over the whole batch. Batch results echo the submitted features
// and skip the per-model breakdown; batch detections are not broadcast or
// persisted.
func (s *Service) DetectBatch(ctx context.Context, reqs []models.DetectionRequest) (models.BatchDetectionResponse, error) {
	if len(reqs) == 0 {
		return models.BatchDetectionResponse{}, ErrEmptyBatch
	}
	if len(reqs) > s.cfg.MaxBatchSize {
		return models.BatchDetectionResponse{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(reqs), s.cfg.MaxBatchSize)
	}

	start := time.Now()
	results := make([]models.BatchDetectionResult, 0, len(reqs))
	for _, req := range reqs {
		resp, err := s.Detect(ctx, req)
		if err != nil {
			return models.BatchDetectionResponse{}, err
		}
		results = append(results, models.BatchDetectionResult{
			Features:    req.Features,
			Prediction:  resp.Prediction,
			Confidence:  resp.Confidence,
			ThreatScore: resp.ThreatScore,
		})
	}

	totalMs := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.RecordBatchDetection(len(reqs))

	return models.BatchDetectionResponse{
		Results:               results,
		BatchSize:             len(reqs),
		TotalProcessingTimeMs: totalMs,
		AvgProcessingTimeMs:   totalMs / float64(len(reqs)),
	}, nil
}

// RunWithContext drains the results channel, broadcasting and persisting
// each record until the context is cancelled. Run it under the supervisor.
func (s *Service) RunWithContext(ctx context.Context) error {
	logging.Info().Int("models", s.registry.Len()).Msg("detection service started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("detection service stopped")
			return ctx.Err()
		case rec := <-s.results:
			s.dispatch(rec)
		}
	}
}

// dispatch pushes one record to streaming subscribers and the result store.
// Neither failure path affects the already-returned detection response.
func (s *Service) dispatch(rec models.DetectionRecord) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastJSON(models.WSTypeDetection, rec.DetectionResponse)
	}

	if s.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := s.sink.Put(ctx, rec); err != nil {
			logging.Debug().Err(err).Str("id", rec.ID).Msg("result store write failed")
		}
	}
}

// Snapshot returns the running stats counters.
func (s *Service) Snapshot() StatsSnapshot {
	return s.stats.Snapshot()
}

// Registry exposes the model registry for introspection and reload.
func (s *Service) Registry() *Registry {
	return s.registry
}
