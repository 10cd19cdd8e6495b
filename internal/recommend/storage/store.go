// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package storage persists collaborative model snapshots between restarts.
//
// Snapshots are serialized with Go's gob encoding, compressed with gzip and
// written as versioned files so the engine can reload the newest trained
// factorization on startup instead of waiting for the first training run.
//
// # Storage Format
//
// Each file holds a single gob-encoded envelope carrying metadata (version,
// training timestamp, SHA-256 checksum of the uncompressed payload) followed
// by the compressed snapshot. The checksum is verified on load, so a
// truncated or corrupted file fails loudly rather than installing a broken
// model.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes are serialized; reads
// may proceed in parallel.
package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/areyes-dev/lodestar/internal/recommend"
)

const (
	snapshotPrefix = "collaborative_v"
	snapshotSuffix = ".gob.gz"

	defaultKeep = 3
)

// SnapshotMetadata describes a persisted snapshot without decoding its
// factor matrices.
type SnapshotMetadata struct {
	// Version is the engine model version the snapshot was trained as.
	Version int `json:"version"`

	// TrainedAt is when the model finished training.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the snapshot was written to disk.
	SavedAt time.Time `json:"saved_at"`

	// StudentCount is the number of students in the factorization.
	StudentCount int `json:"student_count"`

	// ProgramCount is the number of programs in the factorization.
	ProgramCount int `json:"program_count"`

	// Factors is the latent dimensionality.
	Factors int `json:"factors"`

	// InteractionCount is the number of interactions used for training.
	InteractionCount int `json:"interaction_count"`

	// Checksum is the SHA-256 of the uncompressed gob payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk envelope for snapshot files.
type storedFile struct {
	Metadata       SnapshotMetadata
	CompressedData []byte
}

// SnapshotStore reads and writes model snapshots under a base directory.
// Files are named collaborative_v{version}.gob.gz; the highest version is
// considered current.
type SnapshotStore struct {
	baseDir string
	keep    int

	mu     sync.RWMutex
	latest int
}

var _ recommend.ModelStore = (*SnapshotStore)(nil)

// NewSnapshotStore opens a snapshot store rooted at baseDir, creating the
// directory if needed. keep bounds how many snapshot versions are retained
// after each save; values below 1 fall back to a small default.
func NewSnapshotStore(baseDir string, keep int) (*SnapshotStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if keep < 1 {
		keep = defaultKeep
	}

	s := &SnapshotStore{baseDir: baseDir, keep: keep}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan snapshot directory: %w", err)
	}
	return s, nil
}

// scan records the highest snapshot version present on disk.
func (s *SnapshotStore) scan() error {
	versions, err := s.diskVersions()
	if err != nil {
		return err
	}
	if len(versions) > 0 {
		s.latest = versions[0]
	}
	return nil
}

// diskVersions lists all snapshot versions on disk, newest first.
func (s *SnapshotStore) diskVersions() ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v, ok := parseSnapshotFilename(entry.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// parseSnapshotFilename extracts the version from a filename like
// "collaborative_v3.gob.gz".
func parseSnapshotFilename(name string) (int, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

func (s *SnapshotStore) path(version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s%d%s", snapshotPrefix, version, snapshotSuffix))
}

// Save persists a snapshot under the given model version and prunes
// retained versions beyond the configured limit.
func (s *SnapshotStore) Save(snap *recommend.ModelSnapshot, version int) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if version < 1 {
		return fmt.Errorf("invalid snapshot version %d", version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	sf := storedFile{
		Metadata: SnapshotMetadata{
			Version:          version,
			TrainedAt:        snap.TrainedAt,
			SavedAt:          time.Now().UTC(),
			StudentCount:     len(snap.StudentIDs),
			ProgramCount:     len(snap.ProgramIDs),
			Factors:          snap.Factors,
			InteractionCount: snap.InteractionCount,
			Checksum:         hex.EncodeToString(hash[:]),
			SizeBytes:        int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	f, err := os.Create(s.path(version))
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		_ = f.Close()
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}

	if version > s.latest {
		s.latest = version
	}
	s.pruneLocked()
	return nil
}

// pruneLocked removes snapshot files beyond the newest keep versions.
// Best effort; a failed removal is retried on the next save.
func (s *SnapshotStore) pruneLocked() {
	versions, err := s.diskVersions()
	if err != nil {
		return
	}
	for _, v := range versions[min(s.keep, len(versions)):] {
		_ = os.Remove(s.path(v))
	}
}

// LoadLatest returns the newest persisted snapshot and its version, or
// (nil, 0, nil) when no snapshot exists.
func (s *SnapshotStore) LoadLatest() (*recommend.ModelSnapshot, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == 0 {
		return nil, 0, nil
	}
	snap, _, err := s.readSnapshot(s.latest)
	if err != nil {
		return nil, 0, err
	}
	return snap, s.latest, nil
}

// Load returns a specific snapshot version with its metadata.
func (s *SnapshotStore) Load(version int) (*recommend.ModelSnapshot, *SnapshotMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readSnapshot(version)
}

func (s *SnapshotStore) readSnapshot(version int) (*recommend.ModelSnapshot, *SnapshotMetadata, error) {
	f, err := os.Open(s.path(version))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("snapshot version %d not found", version)
		}
		return nil, nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, nil, fmt.Errorf("read snapshot file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed snapshot: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("snapshot checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	var snap recommend.ModelSnapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, &sf.Metadata, nil
}

// LatestVersion returns the newest snapshot version on disk, 0 when none.
func (s *SnapshotStore) LatestVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// List returns metadata for all retained snapshots, newest first.
func (s *SnapshotStore) List() ([]SnapshotMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.diskVersions()
	if err != nil {
		return nil, fmt.Errorf("scan snapshot directory: %w", err)
	}

	metas := make([]SnapshotMetadata, 0, len(versions))
	for _, v := range versions {
		_, meta, err := s.readSnapshot(v)
		if err != nil {
			continue
		}
		metas = append(metas, *meta)
	}
	return metas, nil
}
