package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/glamflow/offline-sync/storage"
	"github.com/glamflow/offline-sync/types"
)

// keySeparator joins a space name with a request URL in the durable store.
// Keys without it belong to other components (queue, session mirror) and
// are never touched by space maintenance.
const keySeparator = "::"

// Space is a named, versioned partition of stored request/response pairs.
// Durable entries live in the shared Store under the space's name prefix;
// an optional in-process LocalCache fronts them. Bump the version suffix in
// the name to invalidate the whole space on the next activation.
type Space struct {
	name       string
	store      storage.Store
	local      LocalCache
	serializer storage.Serializer
	logger     types.Logger
}

// NewSpace creates a space over store. factory may be nil, in which case
// every read goes to the durable store.
func NewSpace(name string, store storage.Store, factory LocalCacheFactory, logger types.Logger) (*Space, error) {
	if name == "" || strings.Contains(name, keySeparator) {
		return nil, errors.New("invalid cache space name")
	}
	if logger == nil {
		logger = types.NewNoOpLogger()
	}

	var local LocalCache
	if factory != nil {
		var err error
		local, err = factory.Create()
		if err != nil {
			return nil, err
		}
	}

	return &Space{
		name:       name,
		store:      store,
		local:      local,
		serializer: storage.NewJSONSerializer(),
		logger:     logger,
	}, nil
}

// Name returns the versioned space name.
func (s *Space) Name() string {
	return s.name
}

func (s *Space) key(url string) string {
	return s.name + keySeparator + url
}

// Match looks up the stored response for url.
func (s *Space) Match(ctx context.Context, url string) (Entry, bool) {
	key := s.key(url)

	if s.local != nil {
		if ent, ok := s.local.Get(key); ok {
			return ent, true
		}
	}

	data, err := s.store.Get(ctx, key)
	if err != nil {
		return Entry{}, false
	}

	var ent Entry
	if err := s.serializer.Unmarshal(data, &ent); err != nil {
		// Treat corrupt durable data as a miss; it is advisory cache.
		s.logger.Warn("space: dropping unreadable entry", "space", s.name, "url", url, "error", err)
		_ = s.store.Delete(ctx, key)
		return Entry{}, false
	}

	if s.local != nil {
		s.local.Set(key, ent, int64(len(ent.Body)))
	}
	return ent, true
}

// Put stores the response for url, overwriting any previous entry.
func (s *Space) Put(ctx context.Context, url string, ent Entry) error {
	data, err := s.serializer.Marshal(ent)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key(url), data); err != nil {
		return err
	}
	if s.local != nil {
		s.local.Set(s.key(url), ent, int64(len(ent.Body)))
	}
	return nil
}

// Delete removes the stored response for url.
func (s *Space) Delete(ctx context.Context, url string) error {
	if s.local != nil {
		s.local.Delete(s.key(url))
	}
	return s.store.Delete(ctx, s.key(url))
}

// Purge removes every entry in the space.
func (s *Space) Purge(ctx context.Context) error {
	if s.local != nil {
		s.local.Clear()
	}
	keys, err := s.store.Keys(ctx, s.name+keySeparator)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the local read layer.
func (s *Space) Close() {
	if s.local != nil {
		s.local.Close()
	}
}
