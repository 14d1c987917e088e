package offlinesync

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glamflow/offline-sync/router"
	"github.com/glamflow/offline-sync/types"
)

// Storage backend names accepted in Config.Storage.Backend.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendSQLite  = "sqlite"
	BackendRedis   = "redis"
)

// Config configures an offline-sync Client. The zero value is not usable;
// start from DefaultConfig or a YAML file.
type Config struct {
	// API locates the hosted backend.
	API struct {
		// BaseURL is the backend origin, e.g. "https://xyz.supabase.co".
		BaseURL string `yaml:"baseURL"`

		// Key is the anon/service API key sent with every request.
		Key string `yaml:"key"`
	} `yaml:"api"`

	// AppOrigin is the origin the application shell is served from; the
	// static manifest paths are resolved against it for precaching.
	AppOrigin string `yaml:"appOrigin"`

	// Caches configures the two cache spaces. Bump a name's version
	// suffix to invalidate that space on the next activation.
	Caches struct {
		StaticName string `yaml:"staticName"`
		APIName    string `yaml:"apiName"`

		// CacheablePaths are the API path patterns stored in the API
		// space. Defaults to profile, task and appointment records.
		CacheablePaths []string `yaml:"cacheablePaths"`

		// StaticManifest lists the top-level routes and the offline
		// page precached into the static space on activation.
		StaticManifest []string `yaml:"staticManifest"`

		// OfflinePage is the navigation fallback within the manifest.
		OfflinePage string `yaml:"offlinePage"`

		// MaxLocalEntries bounds the static space's in-process LRU layer.
		MaxLocalEntries int `yaml:"maxLocalEntries"`

		// MaxLocalBytes bounds the API space's in-process LFU layer.
		MaxLocalBytes int64 `yaml:"maxLocalBytes"`
	} `yaml:"caches"`

	// Storage selects the durable store shared by the cache spaces, the
	// action queue and the session mirror.
	Storage struct {
		// Backend is one of "memory", "leveldb", "sqlite", "redis".
		Backend string `yaml:"backend"`

		// Path is the on-disk location for leveldb/sqlite backends.
		Path string `yaml:"path"`

		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	// AssumeOnline is the connectivity state before the first report.
	AssumeOnline bool `yaml:"assumeOnline"`

	// DebugMode enables debug logging.
	DebugMode bool `yaml:"debug"`

	// Logger is the logger for all components. If nil, defaults to no-op.
	Logger types.Logger `yaml:"-"`

	// OnReplay receives the result of every queue replay pass, for the
	// "N changes synced" affordance.
	OnReplay func(attempted, synced, remaining int) `yaml:"-"`
}

// DefaultConfig returns the stock configuration: LevelDB under ./data,
// versioned glamflow cache space names, and the fixed cacheable API paths.
func DefaultConfig() Config {
	var cfg Config
	cfg.Caches.StaticName = "glamflow-cache-v1"
	cfg.Caches.APIName = "glamflow-api-cache-v1"
	cfg.Caches.CacheablePaths = append([]string(nil), router.DefaultCacheablePaths...)
	cfg.Caches.StaticManifest = []string{
		"/", "/dashboard", "/booking", "/tasks", "/payments", router.DefaultOfflinePage,
	}
	cfg.Caches.OfflinePage = router.DefaultOfflinePage
	cfg.Caches.MaxLocalEntries = 512
	cfg.Caches.MaxLocalBytes = 32 << 20
	cfg.Storage.Backend = BackendLevelDB
	cfg.Storage.Path = "./data/offline-sync"
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.AssumeOnline = true
	return cfg
}

// LoadConfig reads a YAML config file and fills in defaults for anything
// left unset.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.baseURL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: api.baseURL %q is not a valid URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.Caches.StaticName == "" || c.Caches.APIName == "" {
		return fmt.Errorf("%w: both cache space names are required", ErrInvalidConfig)
	}
	if c.Caches.StaticName == c.Caches.APIName {
		return fmt.Errorf("%w: cache space names must differ", ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendLevelDB, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if (c.Storage.Backend == BackendLevelDB || c.Storage.Backend == BackendSQLite) && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required for %s", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}

// apiHost returns the backend host used for strategy selection.
func (c *Config) apiHost() string {
	u, _ := url.Parse(c.API.BaseURL)
	return u.Host
}
