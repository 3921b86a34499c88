// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// RegistryConfig configures artifact loading.
type RegistryConfig struct {
	// Dir is the artifact directory scanned for *.model files.
	Dir string

	// Manifest is the optional sidecar filename inside Dir.
	Manifest string

	// StrictFeatureOrder rejects artifacts that declare no feature order
	// (envelope or manifest) at load time instead of falling back to the
	// schema order.
	StrictFeatureOrder bool

	// DefaultWeight applies to models with no configured or manifest
	// weight. Zero or negative values fall back to 1.0.
	DefaultWeight float64

	// Weights overrides vote weights per model name. Overrides beat the
	// manifest; zero entries mean unset.
	Weights map[string]float64
}

// DefaultRegistryConfig returns sensible defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Dir:           "./models",
		Manifest:      "models.yaml",
		DefaultWeight: 1.0,
	}
}

// Registry owns the loaded model catalog. Reads are lock-free against an
// atomically swapped catalog pointer, so any number of in-flight detections
// can read while a reload builds its replacement: each detection sees an
// entirely old or entirely new catalog, never a mix. Load is serialized.
type Registry struct {
	cfg    RegistryConfig
	schema *FeatureSchema

	catalog atomic.Pointer[catalog]
	loadMu  sync.Mutex
}

// catalog is one immutable generation of loaded models.
type catalog struct {
	models   []*Model // sorted by name
	byName   map[string]*Model
	loadedAt time.Time
}

// LoadReport summarizes one registry load.
type LoadReport struct {
	// Loaded lists the model names now serving, sorted.
	Loaded []string

	// Skipped maps rejected artifact filenames to the rejection reason.
	Skipped map[string]string

	// Total is the number of models serving after the load.
	Total int

	// LoadedAt is when the catalog was swapped in.
	LoadedAt time.Time
}

// NewRegistry builds an empty registry. Call Load to scan the artifact
// directory.
func NewRegistry(schema *FeatureSchema, cfg RegistryConfig) *Registry {
	if schema == nil {
		schema = DefaultSchema()
	}
	r := &Registry{cfg: cfg, schema: schema}
	r.catalog.Store(&catalog{byName: map[string]*Model{}})
	return r
}

// Load scans the artifact directory, builds a complete new catalog and
// atomically swaps it in. One corrupt artifact never prevents the rest from
// loading: rejected files are logged, counted and reported in the returned
// LoadReport. Load doubles as the explicit reload operation and is
// serialized against itself.
func (r *Registry) Load() (*LoadReport, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	now := time.Now()
	skipped := make(map[string]string)
	byName := make(map[string]*Model)

	man := r.loadManifestBestEffort()

	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			// The trainer may not have published yet; serve with an
			// empty catalog until a sync or reload finds artifacts.
			logging.Warn().Str("dir", r.cfg.Dir).Msg("models directory not found")
			return r.swap(nil, skipped, now), nil
		}
		err = fmt.Errorf("read models directory: %w", err)
		metrics.RecordRegistryReload(0, err)
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ArtifactExt {
			continue
		}

		model, reason, skipErr := r.loadArtifact(entry, man, now)
		if skipErr != nil {
			skipped[entry.Name()] = skipErr.Error()
			metrics.RecordModelLoadFailure(reason)
			logging.Error().
				Err(skipErr).
				Str("file", entry.Name()).
				Str("reason", reason).
				Msg("skipping model artifact")
			continue
		}

		if prev, ok := byName[model.Name()]; ok {
			logging.Warn().
				Str("model", model.Name()).
				Str("file", model.filename).
				Str("replaces", prev.filename).
				Msg("duplicate model name, keeping later artifact")
		}
		byName[model.Name()] = model

		logging.Info().
			Str("model", model.Name()).
			Str("algorithm", string(model.Kind())).
			Str("capability", model.Capability().String()).
			Float64("weight", model.Weight()).
			Str("file", model.filename).
			Msg("loaded model")
	}

	if len(byName) == 0 {
		logging.Warn().Str("dir", r.cfg.Dir).Msg("no model artifacts found")
	}

	list := make([]*Model, 0, len(byName))
	for _, m := range byName {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })

	report := r.swap(list, skipped, now)
	logging.Info().
		Int("loaded", report.Total).
		Int("skipped", len(skipped)).
		Msg("model registry loaded")
	return report, nil
}

// loadArtifact decodes one artifact file into a Model. On failure it returns
// the metric reason alongside the error.
func (r *Registry) loadArtifact(entry os.DirEntry, man *Manifest, now time.Time) (*Model, string, error) {
	path := filepath.Join(r.cfg.Dir, entry.Name())

	f, err := os.Open(path)
	if err != nil {
		return nil, "io_error", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	a, err := DecodeArtifact(f)
	if err != nil {
		if errors.Is(err, ErrUnsupportedVersion) {
			return nil, "unsupported_version", err
		}
		return nil, "corrupt", err
	}

	name := artifactModelName(a, entry.Name())

	weight, err := r.resolveWeight(name, man)
	if err != nil {
		return nil, "invalid_weight", err
	}

	order := a.FeatureOrder
	if e, ok := man.Entry(name); ok && len(e.FeatureOrder) > 0 {
		order = e.FeatureOrder
	}
	if len(order) == 0 {
		if r.cfg.StrictFeatureOrder {
			return nil, "missing_feature_order", errors.New("artifact declares no feature order")
		}
		order = r.schema.Required()
	}

	version := ""
	if e, ok := man.Entry(name); ok {
		version = e.Version
	}

	var size int64
	if info, ierr := entry.Info(); ierr == nil {
		size = info.Size()
	}

	return newModel(a, entry.Name(), size, weight, order, version, now), "", nil
}

// resolveWeight applies the weight precedence: config override, then
// manifest, then the default. Zero entries mean unset; a negative weight
// anywhere rejects the artifact since weighted voting needs positive trust.
func (r *Registry) resolveWeight(name string, man *Manifest) (float64, error) {
	weight := r.cfg.DefaultWeight
	if weight <= 0 {
		weight = 1.0
	}
	if e, ok := man.Entry(name); ok && e.Weight != 0 {
		weight = e.Weight
	}
	if w, ok := r.cfg.Weights[name]; ok && w != 0 {
		weight = w
	}
	if weight <= 0 {
		return 0, fmt.Errorf("non-positive weight %v", weight)
	}
	return weight, nil
}

// loadManifestBestEffort never fails the load: a corrupt manifest costs its
// metadata, not the models.
func (r *Registry) loadManifestBestEffort() *Manifest {
	if r.cfg.Manifest == "" {
		return &Manifest{Models: map[string]ManifestEntry{}}
	}
	path := filepath.Join(r.cfg.Dir, r.cfg.Manifest)
	man, err := LoadManifest(path)
	if err != nil {
		logging.Error().Err(err).Str("path", path).Msg("ignoring unreadable model manifest")
		return &Manifest{Models: map[string]ManifestEntry{}}
	}
	return man
}

// swap installs a new catalog generation and records the reload.
func (r *Registry) swap(list []*Model, skipped map[string]string, now time.Time) *LoadReport {
	byName := make(map[string]*Model, len(list))
	names := make([]string, 0, len(list))
	for _, m := range list {
		byName[m.Name()] = m
		names = append(names, m.Name())
	}

	r.catalog.Store(&catalog{models: list, byName: byName, loadedAt: now})
	metrics.RecordRegistryReload(len(list), nil)

	return &LoadReport{Loaded: names, Skipped: skipped, Total: len(list), LoadedAt: now}
}

// Get returns a model by name.
func (r *Registry) Get(name string) (*Model, bool) {
	m, ok := r.catalog.Load().byName[name]
	return m, ok
}

// All returns the current catalog generation, sorted by model name. The
// returned slice is a copy; the models themselves are shared and immutable.
// Callers doing one detection should call All once and use that slice
// throughout so the whole detection sees a single generation.
func (r *Registry) All() []*Model {
	cat := r.catalog.Load()
	out := make([]*Model, len(cat.models))
	copy(out, cat.models)
	return out
}

// Len returns the number of models serving.
func (r *Registry) Len() int {
	return len(r.catalog.Load().models)
}

// Schema returns the global feature schema.
func (r *Registry) Schema() *FeatureSchema {
	return r.schema
}

// FeatureOrder returns the global schema order models fall back to when they
// declare none.
func (r *Registry) FeatureOrder() []string {
	return r.schema.Required()
}

// LoadedAt returns when the serving catalog was swapped in. Zero before the
// first Load.
func (r *Registry) LoadedAt() time.Time {
	return r.catalog.Load().loadedAt
}

// Info returns catalog entries for the models endpoint, sorted by name.
func (r *Registry) Info() []models.ModelInfo {
	cat := r.catalog.Load()
	out := make([]models.ModelInfo, 0, len(cat.models))
	for _, m := range cat.models {
		out = append(out, m.Info())
	}
	return out
}

// artifactModelName derives the registry key for an artifact: the declared
// envelope name when present, else filename conventions.
func artifactModelName(a *Artifact, filename string) string {
	if a.Name != "" {
		return a.Name
	}
	return modelNameFromFilename(filename)
}
