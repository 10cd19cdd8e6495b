// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/areyes-dev/lodestar/internal/recommend"
)

func testSnapshot(interactions int) *recommend.ModelSnapshot {
	return &recommend.ModelSnapshot{
		TrainedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Factors:    2,
		StudentIDs: []string{"stu-1", "stu-2"},
		ProgramIDs: []string{"prog-1", "prog-2", "prog-3"},
		UserFactors: [][]float64{
			{0.5, -0.25},
			{0.1, 0.9},
		},
		ItemFactors: [][]float64{
			{0.3, 0.2},
			{-0.4, 0.6},
			{0.05, -0.15},
		},
		InteractionCount: interactions,
	}
}

func TestNewSnapshotStore(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates directory if not exists",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "snapshots")
			},
		},
		{
			name: "uses existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewSnapshotStore(tt.setup(t), 0)
			if err != nil {
				t.Fatalf("NewSnapshotStore() error = %v", err)
			}
			if store == nil {
				t.Fatal("NewSnapshotStore() returned nil store without error")
			}
			if got := store.LatestVersion(); got != 0 {
				t.Errorf("LatestVersion() = %d, want 0 for empty store", got)
			}
		})
	}
}

func TestSnapshotStore_SaveAndLoadLatest(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	snap := testSnapshot(42)
	if err := store.Save(snap, 1); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, version, err := store.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if loaded == nil {
		t.Fatal("LoadLatest() returned nil snapshot")
	}
	if loaded.Factors != 2 {
		t.Errorf("Factors = %d, want 2", loaded.Factors)
	}
	if loaded.InteractionCount != 42 {
		t.Errorf("InteractionCount = %d, want 42", loaded.InteractionCount)
	}
	if len(loaded.StudentIDs) != 2 || loaded.StudentIDs[1] != "stu-2" {
		t.Errorf("StudentIDs = %v, want [stu-1 stu-2]", loaded.StudentIDs)
	}
	if len(loaded.ItemFactors) != 3 {
		t.Fatalf("len(ItemFactors) = %d, want 3", len(loaded.ItemFactors))
	}
	if loaded.ItemFactors[1][1] != 0.6 {
		t.Errorf("ItemFactors[1][1] = %f, want 0.6", loaded.ItemFactors[1][1])
	}
	if !loaded.TrainedAt.Equal(snap.TrainedAt) {
		t.Errorf("TrainedAt = %v, want %v", loaded.TrainedAt, snap.TrainedAt)
	}
}

func TestSnapshotStore_LoadLatestEmpty(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	snap, version, err := store.LoadLatest()
	if err != nil {
		t.Errorf("LoadLatest() error = %v, want nil for empty store", err)
	}
	if snap != nil {
		t.Errorf("snapshot = %v, want nil for empty store", snap)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0 for empty store", version)
	}
}

func TestSnapshotStore_RescanAfterRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := NewSnapshotStore(dir, 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	for v := 1; v <= 3; v++ {
		if err := store.Save(testSnapshot(v*10), v); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	// A fresh store over the same directory must rediscover the newest version.
	reopened, err := NewSnapshotStore(dir, 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() reopen error = %v", err)
	}
	if got := reopened.LatestVersion(); got != 3 {
		t.Errorf("LatestVersion() = %d, want 3 after reopen", got)
	}

	loaded, version, err := reopened.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}
	if loaded.InteractionCount != 30 {
		t.Errorf("InteractionCount = %d, want 30", loaded.InteractionCount)
	}
}

func TestSnapshotStore_PruneKeepsNewest(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	for v := 1; v <= 5; v++ {
		if err := store.Save(testSnapshot(v), v); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(metas) = %d, want 2 after pruning", len(metas))
	}
	if metas[0].Version != 5 || metas[1].Version != 4 {
		t.Errorf("retained versions = [%d %d], want [5 4]", metas[0].Version, metas[1].Version)
	}

	if _, _, err := store.Load(2); err == nil {
		t.Error("Load(2) should fail for a pruned version")
	}
	if _, _, err := store.Load(5); err != nil {
		t.Errorf("Load(5) error = %v, want nil for retained version", err)
	}
}

func TestSnapshotStore_ListMetadata(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	if err := store.Save(testSnapshot(7), 1); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("len(metas) = %d, want 1", len(metas))
	}

	meta := metas[0]
	if meta.Version != 1 {
		t.Errorf("Version = %d, want 1", meta.Version)
	}
	if meta.StudentCount != 2 {
		t.Errorf("StudentCount = %d, want 2", meta.StudentCount)
	}
	if meta.ProgramCount != 3 {
		t.Errorf("ProgramCount = %d, want 3", meta.ProgramCount)
	}
	if meta.Factors != 2 {
		t.Errorf("Factors = %d, want 2", meta.Factors)
	}
	if meta.InteractionCount != 7 {
		t.Errorf("InteractionCount = %d, want 7", meta.InteractionCount)
	}
	if meta.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
	if meta.SizeBytes == 0 {
		t.Error("SizeBytes should not be zero")
	}
	if meta.SavedAt.IsZero() {
		t.Error("SavedAt should be set")
	}
}

func TestSnapshotStore_ChecksumValidation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir, 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	if err := store.Save(testSnapshot(5), 1); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Flip bytes past the header so either decompression or the checksum
	// comparison trips.
	filename := filepath.Join(dir, "collaborative_v1.gob.gz")
	f, err := os.OpenFile(filename, os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open snapshot file: %v", err)
	}
	if _, err := f.Seek(120, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := f.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, _, err := store.LoadLatest(); err == nil {
		t.Error("LoadLatest() should fail with corrupted data")
	}
}

func TestSnapshotStore_RejectsInvalidInput(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	if err := store.Save(nil, 1); err == nil {
		t.Error("Save(nil) should fail")
	}
	if err := store.Save(testSnapshot(1), 0); err == nil {
		t.Error("Save() with version 0 should fail")
	}
}

func TestParseSnapshotFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion int
		wantOK      bool
	}{
		{name: "valid", filename: "collaborative_v3.gob.gz", wantVersion: 3, wantOK: true},
		{name: "large version", filename: "collaborative_v120.gob.gz", wantVersion: 120, wantOK: true},
		{name: "wrong prefix", filename: "content_v1.gob.gz", wantOK: false},
		{name: "missing suffix", filename: "collaborative_v1.gob", wantOK: false},
		{name: "non-numeric version", filename: "collaborative_vX.gob.gz", wantOK: false},
		{name: "zero version", filename: "collaborative_v0.gob.gz", wantOK: false},
		{name: "unrelated file", filename: "README.md", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, ok := parseSnapshotFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("parseSnapshotFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if ok && version != tt.wantVersion {
				t.Errorf("version = %d, want %d", version, tt.wantVersion)
			}
		})
	}
}
