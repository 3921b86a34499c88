// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"fmt"
	"math"
	"time"

	"github.com/flowsentry/flowsentry/internal/models"
)

// LabelUnknown is the sentinel vote for a model that failed to predict. It
// is also the ensemble verdict when no model produced a usable vote.
const LabelUnknown = "unknown"

// defaultConfidence is the neutral vote weight for predictions without
// calibrated certainty: non-zero so the vote still counts, and centered so
// it neither dominates nor vanishes.
const defaultConfidence = 0.5

// Model is one loaded classifier plus the metadata fixed at load time: its
// registry name, algorithm kind, capability, ensemble weight, label list and
// feature order. Immutable for its lifetime and safe for unsynchronized
// concurrent use during inference.
type Model struct {
	name       string
	kind       AlgorithmKind
	capability Capability
	weight     float64
	classes    []string
	order      []string
	predictor  Predictor

	filename  string
	sizeBytes int64
	version   string
	loadedAt  time.Time
}

// newModel wraps a decoded artifact with its load-time metadata. The name
// comes from the envelope when declared, else from filename conventions; the
// kind and capability are derived here exactly once.
func newModel(a *Artifact, filename string, size int64, weight float64, order []string, version string, loadedAt time.Time) *Model {
	return &Model{
		name:       artifactModelName(a, filename),
		kind:       deriveKind(a, filename),
		capability: probeCapability(a.Predictor),
		weight:     weight,
		classes:    append([]string(nil), a.Classes...),
		order:      append([]string(nil), order...),
		predictor:  a.Predictor,
		filename:   filename,
		sizeBytes:  size,
		version:    version,
		loadedAt:   loadedAt,
	}
}

// Name returns the model's registry key.
func (m *Model) Name() string { return m.name }

// Kind returns the algorithm kind decided at load time.
func (m *Model) Kind() AlgorithmKind { return m.kind }

// Capability returns the probed prediction capability.
func (m *Model) Capability() Capability { return m.capability }

// Weight returns the ensemble vote weight. Always positive.
func (m *Model) Weight() float64 { return m.weight }

// FeatureOrder returns a copy of the feature order this model's vectors are
// assembled in.
func (m *Model) FeatureOrder() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Vector assembles the ordered numeric vector for this model from a
// sanitized feature mapping. Names absent from the mapping become 0.0.
func (m *Model) Vector(features map[string]float64) []float64 {
	v := make([]float64, len(m.order))
	for i, name := range m.order {
		v[i] = features[name]
	}
	return v
}

// PredictWithConfidence runs one inference. The label always comes from the
// predictor's hard decision; the confidence is the largest class probability
// for LabeledWithConfidence models and the neutral default otherwise. A
// probability failure on a model that normally has probabilities keeps the
// neutral default rather than failing the vote.
func (m *Model) PredictWithConfidence(vector []float64) (string, float64, error) {
	idx, err := m.predictor.Predict(vector)
	if err != nil {
		return "", 0, err
	}
	label, err := m.label(idx)
	if err != nil {
		return "", 0, err
	}

	confidence := defaultConfidence
	if m.capability == LabeledWithConfidence {
		if pp, ok := m.predictor.(ProbabilityPredictor); ok {
			if probs, perr := pp.PredictProba(vector); perr == nil && len(probs) > 0 {
				best := probs[0]
				for _, p := range probs[1:] {
					if p > best {
						best = p
					}
				}
				confidence = best
			}
		}
	}

	return label, clamp01(confidence), nil
}

// label maps a class index onto the artifact's label list.
func (m *Model) label(idx int) (string, error) {
	if idx < 0 || idx >= len(m.classes) {
		return "", fmt.Errorf("class index %d outside %d classes", idx, len(m.classes))
	}
	return m.classes[idx], nil
}

// Info returns the catalog entry for this model.
func (m *Model) Info() models.ModelInfo {
	return models.ModelInfo{
		Name:      m.name,
		Algorithm: string(m.kind),
		Filename:  m.filename,
		SizeBytes: m.sizeBytes,
		Weight:    m.weight,
		Version:   m.version,
		LoadedAt:  m.loadedAt,
	}
}

// clamp01 bounds a score into [0, 1]. NaN becomes 0 so a malformed artifact
// can never leak an out-of-range score into a result.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
