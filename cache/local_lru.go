package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCacheFactory creates LRU cache instances.
type LRUCacheFactory struct {
	maxSize int
}

// NewLRUCacheFactory creates a new LRU cache factory.
func NewLRUCacheFactory(maxSize int) LocalCacheFactory {
	return &LRUCacheFactory{maxSize: maxSize}
}

// Create creates a new LRU cache instance.
func (lcf *LRUCacheFactory) Create() (LocalCache, error) {
	return NewLRUCache(lcf.maxSize)
}

// LRUCache is a local read layer backed by golang-lru. Eviction is by entry
// count, which is a good fit for the static space where bodies are small
// and roughly uniform.
type LRUCache struct {
	cache   *lru.Cache[string, Entry]
	hits    int64
	misses  int64
	maxSize int64
}

// NewLRUCache creates a new LRU-based local cache.
func NewLRUCache(maxSize int) (*LRUCache, error) {
	cache, err := lru.New[string, Entry](maxSize)
	if err != nil {
		return nil, err
	}

	return &LRUCache{
		cache:   cache,
		maxSize: int64(maxSize),
	}, nil
}

// Get retrieves an entry from the local cache.
func (lc *LRUCache) Get(key string) (Entry, bool) {
	ent, found := lc.cache.Get(key)
	if found {
		atomic.AddInt64(&lc.hits, 1)
	} else {
		atomic.AddInt64(&lc.misses, 1)
	}
	return ent, found
}

// Set stores an entry in the local cache.
func (lc *LRUCache) Set(key string, ent Entry, cost int64) bool {
	lc.cache.Add(key, ent)
	return true
}

// Delete removes an entry from the local cache.
func (lc *LRUCache) Delete(key string) {
	lc.cache.Remove(key)
}

// Clear removes all entries from the local cache.
func (lc *LRUCache) Clear() {
	lc.cache.Purge()
}

// Close closes the local cache.
func (lc *LRUCache) Close() {
	lc.cache.Purge()
}

// Metrics returns cache metrics.
func (lc *LRUCache) Metrics() LocalCacheMetrics {
	return LocalCacheMetrics{
		Hits:   atomic.LoadInt64(&lc.hits),
		Misses: atomic.LoadInt64(&lc.misses),
		Size:   lc.maxSize,
	}
}
