// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"net/http"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/models"
)

// Models lists the models currently loaded in the ensemble registry.
//
// Method: GET
// Path: /api/v1/models
//
// Response:
//   - 200: Model catalog (empty list when nothing is loaded)
//   - 503: Detection service not available
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	if !h.requireService(w, r) {
		return
	}

	infos := h.svc.Registry().Info()
	if infos == nil {
		infos = []models.ModelInfo{}
	}

	respondJSON(w, http.StatusOK, models.ModelsResponse{
		Models:      infos,
		TotalModels: len(infos),
	})
}

// ReloadModels re-scans the model directory and atomically swaps the
// ensemble. In-flight detections finish against the old ensemble.
//
// Method: POST
// Path: /api/v1/models/reload
//
// Requires the admin role.
//
// Response:
//   - 200: Reload report with loaded and skipped artifacts
//   - 500: Directory scan failed; the previous ensemble stays active
//   - 503: Detection service not available
func (h *Handler) ReloadModels(w http.ResponseWriter, r *http.Request) {
	if !h.requireService(w, r) {
		return
	}

	report, err := h.svc.Registry().Load()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "RELOAD_FAILED", "Model reload failed", err)
		return
	}

	logging.Info().
		Int("loaded", len(report.Loaded)).
		Int("skipped", len(report.Skipped)).
		Msg("Models reloaded via API")

	respondJSON(w, http.StatusOK, models.ReloadResponse{
		Loaded:      report.Loaded,
		Skipped:     report.Skipped,
		TotalModels: report.Total,
		ReloadedAt:  report.LoadedAt,
	})
}
