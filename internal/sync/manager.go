// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gofrs/flock"

	"github.com/flowsentry/flowsentry/internal/detector"
	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
)

// lockFilename guards the model directory against concurrent writers.
const lockFilename = ".sync.lock"

// trainerAPI is the client surface the manager needs; satisfied by both
// TrainerClient and CircuitBreakerClient.
type trainerAPI interface {
	Index(ctx context.Context) (*ArtifactIndex, error)
	Download(ctx context.Context, filename string) (io.ReadCloser, error)
}

// Reloader triggers a catalog reload after new artifacts land; satisfied by
// the detector registry.
type Reloader interface {
	Load() (*detector.LoadReport, error)
}

// ManagerConfig tunes the sync loop.
type ManagerConfig struct {
	// ModelsDir is the artifact directory shared with the registry.
	ModelsDir string

	// ManifestName is the manifest filename inside ModelsDir.
	ManifestName string

	// Interval between sync cycles.
	Interval time.Duration
}

// Manager polls the trainer for new artifacts and reloads the registry when
// any land. One manager runs per process; SyncOnce is also callable directly
// for an operator-triggered pull.
type Manager struct {
	client   trainerAPI
	reloader Reloader
	cfg      ManagerConfig

	mu       gosync.Mutex
	lastSync time.Time
}

// NewManager wires the sync loop. reloader may be nil in tests.
func NewManager(client trainerAPI, reloader Reloader, cfg ManagerConfig) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.ManifestName == "" {
		cfg.ManifestName = "models.yaml"
	}

	return &Manager{
		client:   client,
		reloader: reloader,
		cfg:      cfg,
	}
}

// LastSyncTime reports when the last successful sync finished; zero before
// the first success. Exposed on the health endpoint.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync
}

func (m *Manager) markSynced(t time.Time) {
	m.mu.Lock()
	m.lastSync = t
	m.mu.Unlock()
}

// RunWithContext runs the periodic sync loop until ctx is cancelled. An
// immediate first cycle runs on start so a fresh instance does not wait a
// full interval to pick up models.
func (m *Manager) RunWithContext(ctx context.Context) error {
	logging.Info().
		Dur("interval", m.cfg.Interval).
		Str("models_dir", m.cfg.ModelsDir).
		Msg("Starting trainer artifact sync")

	m.runCycle(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Trainer artifact sync stopped")
			return ctx.Err()
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// runCycle is one metered SyncOnce. Errors are logged, never fatal: the
// current ensemble keeps serving.
func (m *Manager) runCycle(ctx context.Context) {
	start := time.Now()
	downloaded, err := m.SyncOnce(ctx)
	metrics.RecordSyncOperation(time.Since(start), downloaded, err)

	if err != nil {
		logging.Warn().Err(err).Msg("Trainer sync cycle failed")
		return
	}

	m.markSynced(time.Now())
	if downloaded > 0 {
		logging.Info().Int("artifacts", downloaded).Msg("Trainer sync downloaded new artifacts")
	}
}

// SyncOnce performs one sync cycle: fetch the index, download anything newer
// than the local manifest records, verify checksums, update the manifest,
// and reload the registry. Returns the number of artifacts downloaded.
//
// A second process syncing into the same directory is excluded by a file
// lock; if the lock is held, the cycle is skipped rather than queued.
func (m *Manager) SyncOnce(ctx context.Context) (int, error) {
	index, err := m.client.Index(ctx)
	if err != nil {
		return 0, err
	}

	if len(index.Artifacts) == 0 {
		return 0, nil
	}

	lock := flock.New(filepath.Join(m.cfg.ModelsDir, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("lock model directory: %w", err)
	}
	if !locked {
		logging.Debug().Msg("Model directory locked by another syncer, skipping cycle")
		return 0, nil
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.Warn().Err(err).Msg("Failed to release model directory lock")
		}
	}()

	manifestPath := filepath.Join(m.cfg.ModelsDir, m.cfg.ManifestName)
	manifest, err := detector.LoadManifest(manifestPath)
	if err != nil {
		return 0, fmt.Errorf("load manifest: %w", err)
	}

	downloaded := 0
	for _, artifact := range index.Artifacts {
		entry, _ := manifest.Entry(artifact.Name)
		if !newerThan(artifact.Version, entry.Version) {
			continue
		}

		if err := m.fetchArtifact(ctx, artifact); err != nil {
			// One bad artifact must not block the rest of the index.
			logging.Warn().Err(err).
				Str("artifact", artifact.Filename).
				Str("version", artifact.Version).
				Msg("Artifact download failed, keeping current version")
			continue
		}

		entry.Version = artifact.Version
		if artifact.Weight > 0 {
			entry.Weight = artifact.Weight
		}
		if len(artifact.FeatureOrder) > 0 {
			entry.FeatureOrder = artifact.FeatureOrder
		}
		manifest.Models[artifact.Name] = entry
		downloaded++
	}

	if downloaded == 0 {
		return 0, nil
	}

	if err := detector.SaveManifest(manifestPath, manifest); err != nil {
		return downloaded, fmt.Errorf("save manifest: %w", err)
	}

	if m.reloader != nil {
		report, err := m.reloader.Load()
		if err != nil {
			return downloaded, fmt.Errorf("reload registry: %w", err)
		}
		logging.Info().
			Int("loaded", len(report.Loaded)).
			Int("skipped", len(report.Skipped)).
			Msg("Registry reloaded after artifact sync")
	}

	return downloaded, nil
}

// fetchArtifact downloads one artifact into a temp file, verifies its
// SHA-256 digest, and atomically renames it into the model directory.
func (m *Manager) fetchArtifact(ctx context.Context, artifact ArtifactDescriptor) error {
	body, err := m.client.Download(ctx, artifact.Filename)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(m.cfg.ModelsDir, artifact.Filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	closeErr := tmp.Close()
	if err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close artifact: %w", closeErr)
	}

	if artifact.SizeBytes > 0 && size != artifact.SizeBytes {
		return fmt.Errorf("artifact %s: size %d does not match index size %d",
			artifact.Filename, size, artifact.SizeBytes)
	}

	if artifact.SHA256 != "" {
		digest := hex.EncodeToString(hasher.Sum(nil))
		if digest != artifact.SHA256 {
			return fmt.Errorf("artifact %s: checksum mismatch", artifact.Filename)
		}
	}

	target := filepath.Join(m.cfg.ModelsDir, filepath.Base(artifact.Filename))
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("install artifact: %w", err)
	}

	return nil
}

// newerThan reports whether remote is a strictly newer version than local.
// Missing local means "never synced": download. Unparseable versions fall
// back to inequality so a trainer publishing ad hoc tags still syncs once
// per tag change.
func newerThan(remote, local string) bool {
	if remote == "" {
		return false
	}
	if local == "" {
		return true
	}

	rv, rErr := semver.NewVersion(remote)
	lv, lErr := semver.NewVersion(local)
	if rErr != nil || lErr != nil {
		return remote != local
	}

	return rv.GreaterThan(lv)
}
