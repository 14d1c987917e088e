package cache

import (
	"sync/atomic"

	lfu "github.com/dgraph-io/ristretto"
)

// LFUCacheFactory creates Ristretto cache instances.
type LFUCacheFactory struct {
	config LocalCacheConfig
}

// NewLFUCacheFactory creates a new Ristretto cache factory.
func NewLFUCacheFactory(config LocalCacheConfig) LocalCacheFactory {
	return &LFUCacheFactory{config: config}
}

// Create creates a new Ristretto cache instance.
func (rcf *LFUCacheFactory) Create() (LocalCache, error) {
	return NewLFUCache(rcf.config)
}

// NewLFUCache creates a new Ristretto-based local cache. Cost is the entry
// body size, so MaxCost bounds resident response bytes rather than entry
// count; that suits the API space where a handful of list responses can
// dominate memory.
func NewLFUCache(config LocalCacheConfig) (*LFUCache, error) {
	cache, err := lfu.NewCache(&lfu.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &LFUCache{cache: cache}, nil
}

// LFUCache is a local read layer backed by Ristretto.
type LFUCache struct {
	cache  *lfu.Cache
	hits   int64
	misses int64
}

// Get retrieves an entry from the local cache.
func (rc *LFUCache) Get(key string) (Entry, bool) {
	value, found := rc.cache.Get(key)
	if !found {
		atomic.AddInt64(&rc.misses, 1)
		return Entry{}, false
	}
	ent, ok := value.(Entry)
	if !ok {
		atomic.AddInt64(&rc.misses, 1)
		return Entry{}, false
	}
	atomic.AddInt64(&rc.hits, 1)
	return ent, true
}

// Set stores an entry in the local cache.
func (rc *LFUCache) Set(key string, ent Entry, cost int64) bool {
	return rc.cache.Set(key, ent, cost)
}

// Delete removes an entry from the local cache.
func (rc *LFUCache) Delete(key string) {
	rc.cache.Del(key)
}

// Clear removes all entries from the local cache.
func (rc *LFUCache) Clear() {
	rc.cache.Clear()
}

// Close closes the local cache.
func (rc *LFUCache) Close() {
	rc.cache.Close()
}

// Metrics returns cache metrics.
func (rc *LFUCache) Metrics() LocalCacheMetrics {
	return LocalCacheMetrics{
		Hits:   atomic.LoadInt64(&rc.hits),
		Misses: atomic.LoadInt64(&rc.misses),
		Size:   int64(rc.cache.MaxCost()),
	}
}
