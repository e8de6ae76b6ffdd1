package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nathan-eagle/MiM/internal/domain"
)

// ErrSnapshotMissing indicates no snapshot file exists on disk.
var ErrSnapshotMissing = errors.New("catalog: snapshot file missing")

// ErrSnapshotCorrupt indicates the snapshot file could not be parsed.
// Callers treat this as a cache miss rather than a fatal condition.
var ErrSnapshotCorrupt = errors.New("catalog: snapshot file corrupt")

// Snapshot is the on-disk representation of a fully loaded catalog.
// Variants are included when resolved, empty otherwise.
type Snapshot struct {
	LastUpdate time.Time              `json:"lastUpdate"`
	Products   map[int]domain.Product `json:"products"`
}

// SnapshotStore persists catalog snapshots as a single JSON document.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a store writing to the given file path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the backing file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot from disk. A missing file returns
// ErrSnapshotMissing; an unparseable file returns ErrSnapshotCorrupt.
func (s *SnapshotStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrSnapshotMissing
		}
		return Snapshot{}, fmt.Errorf("catalog: reading snapshot %s: %w", s.path, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if snapshot.Products == nil {
		return Snapshot{}, fmt.Errorf("%w: missing products", ErrSnapshotCorrupt)
	}
	return snapshot, nil
}

// Save writes the snapshot atomically via a temporary file rename.
func (s *SnapshotStore) Save(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("catalog: encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("catalog: creating snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("catalog: writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog: closing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog: replacing snapshot %s: %w", s.path, err)
	}
	return nil
}
