package storage

import (
	"context"
	"errors"
	"testing"
)

// runStoreTests exercises the Store contract against any backend.
func runStoreTests(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for a missing key, got %v", err)
	}

	if err := store.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Expected v1, got %s", got)
	}

	// Overwrite wins.
	if err := store.Set(ctx, "k1", []byte("v2")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	got, _ = store.Get(ctx, "k1")
	if string(got) != "v2" {
		t.Fatalf("Expected v2 after overwrite, got %s", got)
	}

	// Prefix listing.
	store.Set(ctx, "space::a", []byte("1"))
	store.Set(ctx, "space::b", []byte("2"))
	store.Set(ctx, "other::c", []byte("3"))

	keys, err := store.Keys(ctx, "space::")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys with prefix, got %v", keys)
	}

	all, err := store.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 keys total, got %v", all)
	}

	// Delete, and delete of an absent key.
	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatal("Expected ErrNotFound after Delete")
	}
	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Deleting an absent key should not error: %v", err)
	}
}
