// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ArtifactFormatVersion is the envelope version this build reads and writes.
// Artifacts with a different version are rejected at load time.
const ArtifactFormatVersion = 1

// ArtifactExt is the file extension the registry scans for.
const ArtifactExt = ".model"

// ErrUnsupportedVersion marks artifacts written by an incompatible trainer.
var ErrUnsupportedVersion = errors.New("unsupported artifact format version")

func init() {
	// Concrete predictor types crossing the gob interface boundary.
	gob.Register(&DecisionTree{})
	gob.Register(&KNN{})
	gob.Register(&Forest{})
	gob.Register(&LinearMargin{})
	gob.Register(&ScalerPipeline{})
}

// AlgorithmKind classifies a loaded model. The kind is decided once at load
// time and cached in model metadata; unrecognized artifacts get KindUnknown
// rather than an open-ended type-name string.
type AlgorithmKind string

const (
	KindDecisionTree    AlgorithmKind = "decision_tree"
	KindNearestNeighbor AlgorithmKind = "knn"
	KindEnsemble        AlgorithmKind = "ensemble"
	KindLinear          AlgorithmKind = "linear"
	KindPipeline        AlgorithmKind = "pipeline"
	KindUnknown         AlgorithmKind = "unknown"
)

// ParseKind maps a declared algorithm string onto a known kind. The second
// return reports whether the string named one.
func ParseKind(s string) (AlgorithmKind, bool) {
	switch AlgorithmKind(s) {
	case KindDecisionTree, KindNearestNeighbor, KindEnsemble, KindLinear, KindPipeline:
		return AlgorithmKind(s), true
	}
	return KindUnknown, false
}

// Capability tags what a model can report, probed once when the artifact is
// loaded instead of re-checked on every inference.
type Capability uint8

const (
	// HardLabelOnly models produce a label without calibrated certainty;
	// their votes carry the neutral default confidence.
	HardLabelOnly Capability = iota

	// LabeledWithConfidence models expose per-class probabilities; their
	// confidence is the largest class probability.
	LabeledWithConfidence
)

// String returns the capability name for logs.
func (c Capability) String() string {
	if c == LabeledWithConfidence {
		return "labeled_with_confidence"
	}
	return "hard_label_only"
}

// Artifact is the serialized form of one trained model as produced by the
// trainer: a named predictor plus the label list its class indices refer to
// and the feature order its vectors were fitted in.
//
// The on-disk layout is a gob stream of the format version followed by each
// envelope field in declaration order, with the predictor last as a
// registered interface value.
type Artifact struct {
	Name         string
	Algorithm    string
	Classes      []string
	FeatureOrder []string
	Predictor    Predictor
}

// EncodeArtifact writes the artifact envelope to w.
func EncodeArtifact(w io.Writer, a *Artifact) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(ArtifactFormatVersion); err != nil {
		return fmt.Errorf("encode version: %w", err)
	}
	if err := enc.Encode(a.Name); err != nil {
		return fmt.Errorf("encode name: %w", err)
	}
	if err := enc.Encode(a.Algorithm); err != nil {
		return fmt.Errorf("encode algorithm: %w", err)
	}
	if err := enc.Encode(a.Classes); err != nil {
		return fmt.Errorf("encode classes: %w", err)
	}
	if err := enc.Encode(a.FeatureOrder); err != nil {
		return fmt.Errorf("encode feature order: %w", err)
	}
	if err := enc.Encode(&a.Predictor); err != nil {
		return fmt.Errorf("encode predictor: %w", err)
	}
	return nil
}

// DecodeArtifact reads an artifact envelope from r. Version mismatches
// return ErrUnsupportedVersion; any other failure means a corrupt artifact.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	dec := gob.NewDecoder(r)

	var version int
	if err := dec.Decode(&version); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}
	if version != ArtifactFormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	a := &Artifact{}
	if err := dec.Decode(&a.Name); err != nil {
		return nil, fmt.Errorf("decode name: %w", err)
	}
	if err := dec.Decode(&a.Algorithm); err != nil {
		return nil, fmt.Errorf("decode algorithm: %w", err)
	}
	if err := dec.Decode(&a.Classes); err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}
	if err := dec.Decode(&a.FeatureOrder); err != nil {
		return nil, fmt.Errorf("decode feature order: %w", err)
	}
	if err := dec.Decode(&a.Predictor); err != nil {
		return nil, fmt.Errorf("decode predictor: %w", err)
	}
	if a.Predictor == nil {
		return nil, errors.New("artifact has no predictor")
	}

	return a, nil
}

// kindOfPredictor derives the kind from the predictor's concrete type.
func kindOfPredictor(p Predictor) AlgorithmKind {
	switch p.(type) {
	case *DecisionTree:
		return KindDecisionTree
	case *KNN:
		return KindNearestNeighbor
	case *Forest:
		return KindEnsemble
	case *LinearMargin:
		return KindLinear
	case *ScalerPipeline:
		return KindPipeline
	}
	return KindUnknown
}

// deriveKind resolves an artifact's algorithm kind once at load time. The
// declared algorithm wins when it names a known kind, then the predictor's
// concrete type. A generic pipeline wrapper says nothing about the algorithm
// inside, so it falls back to filename conventions before settling on
// KindPipeline.
func deriveKind(a *Artifact, filename string) AlgorithmKind {
	declared, ok := ParseKind(a.Algorithm)
	if ok && declared != KindPipeline {
		return declared
	}

	typed := kindOfPredictor(a.Predictor)
	if typed != KindPipeline && typed != KindUnknown {
		return typed
	}

	if k := kindFromFilename(filename); k != KindUnknown {
		return k
	}

	if ok || typed == KindPipeline {
		return KindPipeline
	}
	return KindUnknown
}

// kindFromFilename matches the trainer's artifact naming conventions.
func kindFromFilename(filename string) AlgorithmKind {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.Contains(name, "decision_tree"):
		return KindDecisionTree
	case strings.Contains(name, "knn"):
		return KindNearestNeighbor
	case strings.Contains(name, "ensemble"):
		return KindEnsemble
	}
	return KindUnknown
}

// modelNameFromFilename derives a registry key from an artifact filename:
// the conventional algorithm name when the filename carries one, else the
// bare stem.
func modelNameFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	switch {
	case strings.Contains(name, "decision_tree"):
		return "decision_tree"
	case strings.Contains(name, "knn"):
		return "knn"
	case strings.Contains(name, "ensemble"):
		return "ensemble"
	}
	return name
}

// probeCapability fixes a model's capability once at load time. Pipelines
// report their inner predictor's capability, which is what the ensemble will
// actually get back at inference time.
func probeCapability(p Predictor) Capability {
	if sp, ok := p.(*ScalerPipeline); ok {
		if sp.Inner == nil {
			return HardLabelOnly
		}
		return probeCapability(sp.Inner)
	}
	if _, ok := p.(ProbabilityPredictor); ok {
		return LabeledWithConfidence
	}
	return HardLabelOnly
}
