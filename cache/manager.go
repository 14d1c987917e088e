package cache

import (
	"context"
	"strings"

	"github.com/glamflow/offline-sync/storage"
	"github.com/glamflow/offline-sync/types"
)

// Manager owns the set of current cache spaces and their shared durable
// store. Its activation sweep is the sole eviction mechanism for durable
// entries: there is no per-entry TTL.
type Manager struct {
	store  storage.Store
	spaces []*Space
	logger types.Logger
}

// NewManager creates a manager over store for the given spaces.
func NewManager(store storage.Store, logger types.Logger, spaces ...*Space) *Manager {
	if logger == nil {
		logger = types.NewNoOpLogger()
	}
	return &Manager{store: store, spaces: spaces, logger: logger}
}

// Space returns the space with the given name, or nil.
func (m *Manager) Space(name string) *Space {
	for _, s := range m.spaces {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// Activate deletes every stored entry whose space name is not one of the
// current versioned names. Runs once when a new version of the cache logic
// takes over; entries of the current spaces are left untouched.
func (m *Manager) Activate(ctx context.Context) error {
	current := make(map[string]struct{}, len(m.spaces))
	for _, s := range m.spaces {
		current[s.Name()] = struct{}{}
	}

	keys, err := m.store.Keys(ctx, "")
	if err != nil {
		return err
	}

	removed := 0
	for _, k := range keys {
		idx := strings.Index(k, keySeparator)
		if idx < 0 {
			// Not a space entry (action queue, session mirror, ...).
			continue
		}
		if _, ok := current[k[:idx]]; ok {
			continue
		}
		if err := m.store.Delete(ctx, k); err != nil {
			return err
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("cache: removed entries of stale space versions", "count", removed)
	}
	return nil
}

// Purge empties all current spaces. Used on sign-out so no per-user API
// data leaks into a later session on the same device.
func (m *Manager) Purge(ctx context.Context) error {
	for _, s := range m.spaces {
		if err := s.Purge(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the local read layers of all spaces.
func (m *Manager) Close() {
	for _, s := range m.spaces {
		s.Close()
	}
}
