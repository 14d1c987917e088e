// Package offlinesync keeps the GlamFlow salon app usable without a
// network: cached reads through a strategy router, durably queued writes
// replayed on reconnect, and an offline-readable session mirror.
package offlinesync

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/glamflow/offline-sync/cache"
	"github.com/glamflow/offline-sync/connectivity"
	"github.com/glamflow/offline-sync/queue"
	"github.com/glamflow/offline-sync/remote"
	"github.com/glamflow/offline-sync/router"
	"github.com/glamflow/offline-sync/session"
	"github.com/glamflow/offline-sync/storage"
	"github.com/glamflow/offline-sync/types"
)

// Client wires the offline-sync components over one durable store. Build it
// once at startup and inject the parts where they are needed.
type Client struct {
	Connectivity *connectivity.Monitor
	Spaces       *cache.Manager
	Router       *router.Router
	Remote       *remote.Client
	Queue        *queue.Queue
	Session      *session.Store

	store      storage.Store
	httpClient *http.Client
}

// New creates a fully wired client: durable store, versioned cache spaces
// (activated, stale versions swept), strategy router, backend client, action
// queue and session store. The session is initialized against the auth
// service; an unreachable service leaves it unauthenticated.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NewNoOpLogger()
	}
	if !cfg.DebugMode {
		logger = types.WithoutDebug(logger)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	staticSpace, err := cache.NewSpace(cfg.Caches.StaticName, store,
		cache.NewLRUCacheFactory(cfg.Caches.MaxLocalEntries), logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	lfuCfg := cache.DefaultLocalCacheConfig()
	lfuCfg.MaxCost = cfg.Caches.MaxLocalBytes
	apiSpace, err := cache.NewSpace(cfg.Caches.APIName, store,
		cache.NewLFUCacheFactory(lfuCfg), logger)
	if err != nil {
		staticSpace.Close()
		store.Close()
		return nil, err
	}

	spaces := cache.NewManager(store, logger, staticSpace, apiSpace)
	if err := spaces.Activate(ctx); err != nil {
		spaces.Close()
		store.Close()
		return nil, fmt.Errorf("activate cache spaces: %w", err)
	}

	monitor := connectivity.NewMonitor(cfg.AssumeOnline)

	rt, err := router.New(router.Options{
		APIHost:        cfg.apiHost(),
		StaticSpace:    staticSpace,
		APISpace:       apiSpace,
		CacheablePaths: cfg.Caches.CacheablePaths,
		OfflinePage:    cfg.Caches.OfflinePage,
		Logger:         logger,
	})
	if err != nil {
		spaces.Close()
		store.Close()
		return nil, err
	}

	httpClient := &http.Client{Transport: rt}
	backend := remote.NewClient(cfg.API.BaseURL, cfg.API.Key, httpClient)

	var onReplay func(queue.ReplayResult)
	if cfg.OnReplay != nil {
		cb := cfg.OnReplay
		onReplay = func(r queue.ReplayResult) { cb(r.Attempted, r.Synced, r.Remaining) }
	}
	q, err := queue.New(ctx, queue.Options{
		Store:    store,
		Remote:   backend,
		Monitor:  monitor,
		Logger:   logger,
		OnReplay: onReplay,
	})
	if err != nil {
		spaces.Close()
		store.Close()
		return nil, err
	}

	sess, err := session.New(session.Options{
		Remote:  backend,
		Durable: store,
		Monitor: monitor,
		Spaces:  spaces,
		Queue:   q,
		Logger:  logger,
	})
	if err != nil {
		q.Close()
		spaces.Close()
		store.Close()
		return nil, err
	}

	c := &Client{
		Connectivity: monitor,
		Spaces:       spaces,
		Router:       rt,
		Remote:       backend,
		Queue:        q,
		Session:      sess,
		store:        store,
		httpClient:   httpClient,
	}

	if err := sess.Init(ctx); err != nil {
		logger.Warn("client: session init failed", "error", err)
	}

	if monitor.Online() && cfg.AppOrigin != "" && len(cfg.Caches.StaticManifest) > 0 {
		urls := make([]string, 0, len(cfg.Caches.StaticManifest))
		for _, p := range cfg.Caches.StaticManifest {
			urls = append(urls, strings.TrimRight(cfg.AppOrigin, "/")+p)
		}
		if err := rt.Precache(ctx, urls); err != nil {
			logger.Warn("client: precache failed", "error", err)
		}
	}

	return c, nil
}

// HTTPClient returns an *http.Client whose transport is the strategy
// router. Point the application's API reads at it.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close detaches the queue and releases the cache layers and the durable
// store. Pending offline actions stay durable for the next run.
func (c *Client) Close() error {
	c.Queue.Close()
	c.Spaces.Close()
	return c.store.Close()
}

// openStore builds the durable store named by cfg.Storage.Backend.
func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case BackendMemory:
		return storage.NewMemoryStore(), nil
	case BackendLevelDB:
		return storage.NewLevelDBStore(filepath.Join(cfg.Storage.Path, "leveldb"))
	case BackendSQLite:
		return storage.NewSQLiteStore(ctx, filepath.Join(cfg.Storage.Path, "offline.db"))
	case BackendRedis:
		return storage.NewRedisStore(cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
}
