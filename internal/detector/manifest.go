// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Manifest is the optional models.yaml sidecar in the artifact directory. It
// carries trainer-assigned metadata the artifacts themselves do not: vote
// weights, semantic versions for sync gating, and feature-order overrides.
//
//	models:
//	  decision_tree:
//	    weight: 1.0
//	    version: 1.2.0
//	  knn:
//	    weight: 0.8
//	    feature_order: [total_packets, total_bytes]
type Manifest struct {
	Models map[string]ManifestEntry `koanf:"models"`
}

// ManifestEntry is the per-model manifest record, keyed by registry name.
type ManifestEntry struct {
	Weight       float64  `koanf:"weight"`
	Version      string   `koanf:"version"`
	FeatureOrder []string `koanf:"feature_order"`
}

// Entry looks up a model's manifest record.
func (m *Manifest) Entry(name string) (ManifestEntry, bool) {
	e, ok := m.Models[name]
	return e, ok
}

// LoadManifest reads a manifest file. A missing file is not an error: the
// manifest is optional and an empty one is returned.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{Models: map[string]ManifestEntry{}}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("stat manifest: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if err := k.Unmarshal("", m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Models == nil {
		m.Models = map[string]ManifestEntry{}
	}

	return m, nil
}

// SaveManifest writes a manifest file. The sync manager rewrites the
// manifest after downloading artifacts so versions survive restarts.
func SaveManifest(path string, m *Manifest) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(m, "koanf"), nil); err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	out, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
