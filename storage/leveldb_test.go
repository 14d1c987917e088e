package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLevelDBStore(t *testing.T) {
	store, err := NewLevelDBStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("Failed to open LevelDB store: %v", err)
	}
	defer store.Close()
	runStoreTests(t, store)
}

func TestLevelDBStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db")

	store, err := NewLevelDBStore(path)
	if err != nil {
		t.Fatalf("Failed to open LevelDB store: %v", err)
	}
	store.Set(ctx, "offline-actions", []byte(`[{"id":"a"}]`))
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err = NewLevelDBStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen LevelDB store: %v", err)
	}
	defer store.Close()

	got, err := store.Get(ctx, "offline-actions")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Fatalf("Value should survive a reopen, got %s", got)
	}
}
