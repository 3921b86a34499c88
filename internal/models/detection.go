// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package models

// DetectionRequest is a single flow feature vector submitted for classification.
// Features maps feature names to numeric values; missing required features are
// defaulted to 0.0 by the feature validator, unknown extras are passed through.
//
// Timestamp is optional Unix seconds (fractional) flow capture time; it is
// carried as metadata and does not affect scoring. SourceIP/DestIP are
// optional flow metadata used for result store keys and high-threat alert
// context.
//
// Example:
//
//	{
//	  "features": {"total_packets": 1200, "tcp_syn_ratio": 0.92, "packets_per_second": 340},
//	  "source_ip": "203.0.113.7",
//	  "dest_ip": "10.0.0.12"
//	}
type DetectionRequest struct {
	Features  map[string]float64 `json:"features" validate:"required,min=1"`
	Timestamp float64            `json:"timestamp,omitempty"`
	SourceIP  string             `json:"source_ip,omitempty" validate:"omitempty,ip"`
	DestIP    string             `json:"dest_ip,omitempty" validate:"omitempty,ip"`
}

// ModelPredictions carries the per-model breakdown of an ensemble decision.
// Predictions maps model name to its label; Confidences maps model name to its
// confidence. Failed models appear with label "unknown" and confidence 0.0 so
// operators can distinguish "voted normal" from "did not vote".
type ModelPredictions struct {
	Predictions map[string]string  `json:"predictions"`
	Confidences map[string]float64 `json:"confidences"`
}

// DetectionResponse is the ensemble verdict for a single flow.
//
// Fields:
//   - Prediction: winning label ("attack", "normal", ...; "unknown" when no
//     model produced a usable vote)
//   - Confidence: weighted share of the winning label in [0,1]
//   - ThreatScore: blended attack likelihood in [0,1]
//   - ModelPredictions: per-model breakdown
//   - ProcessingTimeMs: wall-clock detection time in milliseconds
//   - Timestamp: Unix seconds (fractional) when the verdict was produced
type DetectionResponse struct {
	Prediction       string           `json:"prediction"`
	Confidence       float64          `json:"confidence"`
	ThreatScore      float64          `json:"threat_score"`
	ModelPredictions ModelPredictions `json:"model_predictions"`
	ProcessingTimeMs float64          `json:"processing_time_ms"`
	Timestamp        float64          `json:"timestamp"`
}

// BatchDetectionRequest submits multiple flows for classification in one
// call. The wire shape is a bare JSON array of DetectionRequest objects;
// length is bounded by the configured max batch size.
type BatchDetectionRequest []DetectionRequest

// BatchDetectionResult pairs one flow's echoed features with its verdict.
// The per-model breakdown is omitted in batch mode to keep payloads small.
type BatchDetectionResult struct {
	Features    map[string]float64 `json:"features"`
	Prediction  string             `json:"prediction"`
	Confidence  float64            `json:"confidence"`
	ThreatScore float64            `json:"threat_score"`
}

// BatchDetectionResponse summarizes a batch classification run.
type BatchDetectionResponse struct {
	Results               []BatchDetectionResult `json:"results"`
	BatchSize             int                    `json:"batch_size"`
	TotalProcessingTimeMs float64                `json:"total_processing_time_ms"`
	AvgProcessingTimeMs   float64                `json:"avg_processing_time_ms"`
}

// DetectionRecord is a persisted detection result. It flattens the response
// together with flow metadata so the result store and the recent-detections
// endpoint serve one shape.
type DetectionRecord struct {
	ID       string `json:"id"`
	SourceIP string `json:"source_ip,omitempty"`
	DestIP   string `json:"dest_ip,omitempty"`
	DetectionResponse
}

// RecentDetectionsResponse wraps the recent-detections query result.
type RecentDetectionsResponse struct {
	Detections []DetectionRecord `json:"detections"`
	Count      int               `json:"count"`
	Limit      int               `json:"limit"`
}
