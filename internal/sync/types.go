// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package sync

// ArtifactDescriptor is one entry in the trainer's artifact index.
//
// Filename is the artifact file as served by the trainer and stored in the
// local model directory; Name is the registry model name it maps to. SHA256
// is the hex digest of the file contents, verified after download. Weight
// and FeatureOrder, when present, are carried into the local manifest so
// the registry applies them on reload.
type ArtifactDescriptor struct {
	Name         string   `json:"name"`
	Filename     string   `json:"filename"`
	Version      string   `json:"version"`
	SizeBytes    int64    `json:"size_bytes"`
	SHA256       string   `json:"sha256"`
	Weight       float64  `json:"weight,omitempty"`
	FeatureOrder []string `json:"feature_order,omitempty"`
}

// ArtifactIndex is the trainer's published catalog of current artifacts.
type ArtifactIndex struct {
	Artifacts []ArtifactDescriptor `json:"artifacts"`
}
