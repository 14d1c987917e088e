package cache

// LocalCache defines the interface for the in-process read layer that sits
// in front of a space's durable store. Entries evicted from it are still
// present durably; it only saves a store round trip.
type LocalCache interface {
	// Get retrieves an entry from the local cache.
	Get(key string) (Entry, bool)

	// Set stores an entry in the local cache.
	Set(key string, ent Entry, cost int64) bool

	// Delete removes an entry from the local cache.
	Delete(key string)

	// Clear removes all entries from the local cache.
	Clear()

	// Close closes the local cache.
	Close()

	// Metrics returns cache metrics.
	Metrics() LocalCacheMetrics
}

// LocalCacheMetrics represents local cache metrics.
type LocalCacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// LocalCacheFactory defines the interface for creating local cache
// implementations.
type LocalCacheFactory interface {
	// Create creates a new local cache instance.
	Create() (LocalCache, error)
}

// LocalCacheConfig configures the local read layer of a space.
type LocalCacheConfig struct {
	// NumCounters is the number of counters for the cache (Ristretto only).
	// Recommended: 10 * the expected number of entries.
	NumCounters int64

	// MaxCost is the maximum total body size held locally (Ristretto only).
	MaxCost int64

	// BufferItems is the number of items to buffer before eviction
	// (Ristretto only). Recommended: 64.
	BufferItems int64

	// MaxSize is the maximum number of entries (LRU only).
	MaxSize int
}

// DefaultLocalCacheConfig returns default local cache configuration.
func DefaultLocalCacheConfig() LocalCacheConfig {
	return LocalCacheConfig{
		NumCounters: 1e5,
		MaxCost:     64 << 20, // 64MB of response bodies
		BufferItems: 64,
		MaxSize:     1024,
	}
}
