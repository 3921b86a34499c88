// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package models

import (
	"time"
)

// ModelInfo describes a loaded detection model for the catalog endpoint.
//
// Fields:
//   - Name: registry key derived from the artifact filename
//   - Algorithm: algorithm reported by the artifact ("decision_tree", "knn", ...)
//   - Filename: artifact file the model was loaded from
//   - SizeBytes: artifact size on disk
//   - Weight: ensemble vote weight assigned by configuration
//   - Version: artifact version from the manifest (empty when unmanaged)
//   - LoadedAt: when the registry loaded this artifact
type ModelInfo struct {
	Name      string    `json:"name"`
	Algorithm string    `json:"algorithm"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Weight    float64   `json:"weight"`
	Version   string    `json:"version,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// ModelsResponse is the model catalog endpoint payload.
type ModelsResponse struct {
	Models      []ModelInfo `json:"models"`
	TotalModels int         `json:"total_models"`
}

// ReloadResponse reports the outcome of a registry reload.
// Loaded lists the models now serving; Skipped maps artifact filenames to the
// reason they were rejected (corrupt envelope, unsupported version, ...).
type ReloadResponse struct {
	Loaded      []string          `json:"loaded"`
	Skipped     map[string]string `json:"skipped,omitempty"`
	TotalModels int               `json:"total_models"`
	ReloadedAt  time.Time         `json:"reloaded_at"`
}
