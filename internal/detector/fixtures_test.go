// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// timeRef is a fixed reference instant for metadata assertions.
func timeRef() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

// leafTree builds a single-leaf tree that always predicts class. The counts
// back its probability output: leafTree(0, 9, 1) predicts class 0 with
// probability 0.9.
func leafTree(class int, counts ...float64) *DecisionTree {
	return &DecisionTree{
		NumClasses: len(counts),
		Nodes:      []TreeNode{{Feature: -1, Class: class, Counts: counts}},
	}
}

// testModel wraps a predictor in a Model with fixed metadata, bypassing the
// registry, for ensemble math tests.
func testModel(name string, weight float64, classes, order []string, p Predictor) *Model {
	a := &Artifact{Name: name, Classes: classes, FeatureOrder: order, Predictor: p}
	return newModel(a, name+ArtifactExt, 0, weight, order, "", time.Now())
}

// writeArtifact encodes an artifact into dir/filename and returns the path.
func writeArtifact(t *testing.T, dir, filename string, a *Artifact) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create artifact: %v", err)
	}
	defer f.Close()

	if err := EncodeArtifact(f, a); err != nil {
		t.Fatalf("encode artifact: %v", err)
	}
	return path
}

// scenarioDir writes a three-model voting scenario into a temp dir: alpha
// votes attack at 0.9 (weight 1.0), beta votes attack at 0.6 (weight 2.0 via
// the manifest), gamma votes normal at 0.8 (weight 1.0). Weighted totals:
// attack 2.1, normal 0.8.
func scenarioDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	classes := []string{"attack", "normal"}
	order := []string{"f1"}

	writeArtifact(t, dir, "alpha.model", &Artifact{
		Name: "alpha", Algorithm: "decision_tree",
		Classes: classes, FeatureOrder: order,
		Predictor: leafTree(0, 9, 1),
	})
	writeArtifact(t, dir, "beta.model", &Artifact{
		Name: "beta", Algorithm: "decision_tree",
		Classes: classes, FeatureOrder: order,
		Predictor: leafTree(0, 6, 4),
	})
	writeArtifact(t, dir, "gamma.model", &Artifact{
		Name: "gamma", Algorithm: "decision_tree",
		Classes: classes, FeatureOrder: order,
		Predictor: leafTree(1, 2, 8),
	})

	manifest := "models:\n  beta:\n    weight: 2.0\n"
	if err := os.WriteFile(filepath.Join(dir, "models.yaml"), []byte(manifest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

// loadedRegistry builds and loads a registry over dir.
func loadedRegistry(t *testing.T, dir string) *Registry {
	t.Helper()

	r := NewRegistry(DefaultSchema(), RegistryConfig{
		Dir:           dir,
		Manifest:      "models.yaml",
		DefaultWeight: 1.0,
	})
	if _, err := r.Load(); err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return r
}
