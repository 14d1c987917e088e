package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key is not found in the store.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for durable local key/value storage.
// It stands in for the browser's localStorage/Cache API: cache space
// entries, the offline action queue, and the session mirror all live in a
// Store. Writes are atomic per key; last writer for a given key wins.
type Store interface {
	// Get retrieves a value from the store. Returns ErrNotFound for
	// absent keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the store, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a value from the store. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys with the given prefix. An empty prefix lists
	// every key.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close closes the store.
	Close() error
}
