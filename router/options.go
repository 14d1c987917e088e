package router

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/glamflow/offline-sync/cache"
	"github.com/glamflow/offline-sync/types"
)

// DefaultCacheablePaths are the API path patterns whose GET responses are
// stored in the API space: profile, task and appointment records.
var DefaultCacheablePaths = []string{
	`^/rest/v1/profiles`,
	`^/rest/v1/tasks`,
	`^/rest/v1/appointments`,
}

// DefaultOfflinePage is the pre-cached fallback served for navigation
// requests that fail with nothing cached.
const DefaultOfflinePage = "/offline.html"

// Options configures a Router.
type Options struct {
	// Base is the transport actual network fetches go through.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// APIHost is the backend host (e.g. "xyz.supabase.co"). Requests to it
	// use the Network-First strategy and are eligible for API-space caching.
	APIHost string

	// StaticSpace holds application shell assets and pre-cached routes.
	StaticSpace *cache.Space

	// APISpace holds dynamic data responses.
	APISpace *cache.Space

	// CacheablePaths are regexes matched against the request path of API
	// responses; only matches are stored. Defaults to DefaultCacheablePaths.
	CacheablePaths []string

	// OfflinePage is the static-space URL of the navigation fallback.
	// Defaults to DefaultOfflinePage.
	OfflinePage string

	// Logger is the logger for debug logging. If nil, defaults to no-op.
	Logger types.Logger
}

// Validate validates the options.
func (o *Options) Validate() error {
	if o.APIHost == "" {
		return errors.New("router: APIHost is required")
	}
	if o.StaticSpace == nil || o.APISpace == nil {
		return errors.New("router: both cache spaces are required")
	}
	for _, p := range o.CacheablePaths {
		if _, err := regexp.Compile(p); err != nil {
			return errors.New("router: invalid cacheable path pattern: " + p)
		}
	}
	return nil
}
