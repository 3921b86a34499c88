// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/flowsentry/flowsentry/internal/detector"
	"github.com/flowsentry/flowsentry/internal/models"
)

// Detect classifies a single flow feature vector.
//
// Method: POST
// Path: /api/v1/detect
//
// The request body is a DetectionRequest; the response is the bare
// DetectionResponse verdict. Results are also fanned out to WebSocket
// subscribers and the result store by the detection service.
//
// Response:
//   - 200: Verdict produced
//   - 400: Malformed body or invalid features
//   - 503: No models loaded (when the deployment requires models)
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	if !h.requireService(w, r) {
		return
	}

	var req models.DetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	resp, err := h.svc.Process(r.Context(), req)
	if err != nil {
		h.respondDetectionError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// DetectBatch classifies multiple flows in one call.
//
// Method: POST
// Path: /api/v1/detect/batch
//
// The request body is a bare JSON array of DetectionRequest objects. Batch
// results skip the per-model breakdown and are not broadcast or persisted;
// the endpoint exists for bulk re-scoring, not the live pipeline.
//
// Response:
//   - 200: Batch summary with per-flow verdicts
//   - 400: Malformed body, empty batch, or batch over the configured maximum
//   - 503: No models loaded (when the deployment requires models)
func (h *Handler) DetectBatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireService(w, r) {
		return
	}

	var reqs models.BatchDetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}

	resp, err := h.svc.DetectBatch(r.Context(), reqs)
	if err != nil {
		h.respondDetectionError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondDetectionError maps detection service errors to the error envelope.
func (h *Handler) respondDetectionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, detector.ErrNoModels):
		respondError(w, r, http.StatusServiceUnavailable, "MODELS_NOT_LOADED", "No detection models available", err)
	case errors.Is(err, detector.ErrEmptyBatch):
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Batch must contain at least one flow", err)
	case errors.Is(err, detector.ErrBatchTooLarge):
		respondError(w, r, http.StatusBadRequest, "BATCH_TOO_LARGE", err.Error(), err)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Detection failed", err)
	}
}

// RecentDetections returns recently persisted detection records, newest first.
//
// Method: GET
// Path: /api/v1/detections/recent?limit=N
//
// Response:
//   - 200: Records retrieved (empty list when none)
//   - 400: Limit outside the configured bounds
//   - 500: Result store query failed
//   - 503: Result store not available
func (h *Handler) RecentDetections(w http.ResponseWriter, r *http.Request) {
	defaultLimit, maxLimit := h.getRecentLimitConfig()

	limit := getIntParam(r, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR",
			"limit must be between 1 and "+strconv.Itoa(maxLimit), nil)
		return
	}

	if h.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Result store not available", nil)
		return
	}

	records, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to retrieve detections", err)
		return
	}

	if records == nil {
		records = []models.DetectionRecord{}
	}

	respondJSON(w, http.StatusOK, models.RecentDetectionsResponse{
		Detections: records,
		Count:      len(records),
		Limit:      limit,
	})
}

// getRecentLimitConfig returns recent-detections paging bounds with safe defaults.
func (h *Handler) getRecentLimitConfig() (defaultLimit, maxLimit int) {
	defaultLimit, maxLimit = 50, 1000
	if h.config != nil {
		if h.config.API.DefaultRecentLimit > 0 {
			defaultLimit = h.config.API.DefaultRecentLimit
		}
		if h.config.API.MaxRecentLimit > 0 {
			maxLimit = h.config.API.MaxRecentLimit
		}
	}
	return defaultLimit, maxLimit
}

