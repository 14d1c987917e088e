package cache

import (
	"context"
	"net/http"
	"testing"

	"github.com/glamflow/offline-sync/storage"
)

func testEntry(body string) Entry {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return Entry{Status: 200, Header: header, Body: []byte(body), StoredAt: 1700000000}
}

func TestSpacePutMatchDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	space, err := NewSpace("api-v1", store, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create space: %v", err)
	}

	url := "https://xyz.supabase.co/rest/v1/tasks"
	if _, ok := space.Match(ctx, url); ok {
		t.Fatal("Expected a miss before Put")
	}

	if err := space.Put(ctx, url, testEntry(`[{"id":"t-1"}]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ent, ok := space.Match(ctx, url)
	if !ok {
		t.Fatal("Expected a hit after Put")
	}
	if string(ent.Body) != `[{"id":"t-1"}]` {
		t.Errorf("Stored body should match byte for byte, got %s", ent.Body)
	}
	if ent.Status != 200 || ent.Header.Get("Content-Type") != "application/json" {
		t.Error("Status and headers should round-trip")
	}

	if err := space.Delete(ctx, url); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := space.Match(ctx, url); ok {
		t.Fatal("Expected a miss after Delete")
	}
}

func TestSpaceIsolation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a, _ := NewSpace("static-v1", store, nil, nil)
	b, _ := NewSpace("api-v1", store, nil, nil)

	url := "https://app.example.com/offline.html"
	a.Put(ctx, url, testEntry("<html>a</html>"))

	if _, ok := b.Match(ctx, url); ok {
		t.Fatal("Spaces over the same store must not see each other's entries")
	}
}

func TestSpacePurge(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	space, _ := NewSpace("api-v1", store, nil, nil)
	other, _ := NewSpace("static-v1", store, nil, nil)

	space.Put(ctx, "u1", testEntry("1"))
	space.Put(ctx, "u2", testEntry("2"))
	other.Put(ctx, "u3", testEntry("3"))
	store.Set(ctx, "offline-actions", []byte("[]"))

	if err := space.Purge(ctx); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if _, ok := space.Match(ctx, "u1"); ok {
		t.Fatal("Purge should remove the space's entries")
	}
	if _, ok := other.Match(ctx, "u3"); !ok {
		t.Fatal("Purge must not touch other spaces")
	}
	if _, err := store.Get(ctx, "offline-actions"); err != nil {
		t.Fatal("Purge must not touch non-space keys")
	}
}

func TestSpaceCorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	space, _ := NewSpace("api-v1", store, nil, nil)

	key := "api-v1::https://x/rest/v1/tasks"
	store.Set(ctx, key, []byte("{not json"))

	if _, ok := space.Match(ctx, "https://x/rest/v1/tasks"); ok {
		t.Fatal("Corrupt durable data should read as a miss")
	}
	// The unreadable entry is dropped on the way out.
	if _, err := store.Get(ctx, key); err == nil {
		t.Fatal("Corrupt entry should be deleted after the failed read")
	}
}

func TestSpaceLocalLayer(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	space, err := NewSpace("static-v1", store, NewLRUCacheFactory(8), nil)
	if err != nil {
		t.Fatalf("Failed to create space: %v", err)
	}
	defer space.Close()

	url := "https://app.example.com/main.js"
	space.Put(ctx, url, testEntry("console.log(1)"))

	// Remove the durable copy; the local layer still answers.
	store.Delete(ctx, "static-v1::"+url)
	if _, ok := space.Match(ctx, url); !ok {
		t.Fatal("Local layer should serve the entry after a durable delete")
	}
}

func TestNewSpaceRejectsBadNames(t *testing.T) {
	store := storage.NewMemoryStore()
	if _, err := NewSpace("", store, nil, nil); err == nil {
		t.Error("Empty name should be rejected")
	}
	if _, err := NewSpace("bad::name", store, nil, nil); err == nil {
		t.Error("Names containing the separator should be rejected")
	}
}
