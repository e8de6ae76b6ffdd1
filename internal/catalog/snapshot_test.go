package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nathan-eagle/MiM/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(filepath.Join(dir, "cache.json"))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := Snapshot{
		LastUpdate: now,
		Products: map[int]domain.Product{
			6: {
				ID:       6,
				Title:    "Unisex Heavy Cotton Tee",
				Category: "shirt",
				Tags:     []string{"cotton", "heavy"},
				Variants: []domain.Variant{
					{ID: 4012, Title: "Navy / S", Color: "Navy", Size: "S", PrintProviderID: 99, Available: true},
				},
				PrintProviders: []domain.PrintProvider{{ID: 99, Title: "Printful"}},
				Images:         []string{"https://img.example/6.png"},
				CreatedAt:      now,
				Available:      true,
			},
		},
	}

	if err := store.Save(snapshot); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !loaded.LastUpdate.Equal(now) {
		t.Errorf("unexpected lastUpdate %s", loaded.LastUpdate)
	}
	product, ok := loaded.Products[6]
	if !ok {
		t.Fatal("expected product 6 in loaded snapshot")
	}
	if len(product.Variants) != 1 || product.Variants[0].Color != "Navy" {
		t.Errorf("variants did not round-trip: %+v", product.Variants)
	}
	if product.Variants[0].PrintProviderID != 99 {
		t.Errorf("provider id did not round-trip: %+v", product.Variants[0])
	}
}

func TestSnapshotMissingFile(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "absent.json"))
	_, err := store.Load()
	if !errors.Is(err, ErrSnapshotMissing) {
		t.Fatalf("expected ErrSnapshotMissing, got %v", err)
	}
}

func TestSnapshotCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed writing corrupt file: %v", err)
	}

	store := NewSnapshotStore(path)
	_, err := store.Load()
	if !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("expected ErrSnapshotCorrupt, got %v", err)
	}
}

func TestSnapshotMissingProductsIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := os.WriteFile(path, []byte(`{"lastUpdate": "2025-06-01T12:00:00Z"}`), 0o644); err != nil {
		t.Fatalf("failed writing file: %v", err)
	}

	store := NewSnapshotStore(path)
	_, err := store.Load()
	if !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("expected ErrSnapshotCorrupt, got %v", err)
	}
}
