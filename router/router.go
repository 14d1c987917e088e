// Package router intercepts outgoing HTTP requests and applies one of three
// caching strategies, so reads keep working while the backend is
// unreachable. Non-GET requests always pass through untouched.
package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/glamflow/offline-sync/cache"
	"github.com/glamflow/offline-sync/types"
)

// offlineSentinelBody is the JSON returned for uncached API reads while
// offline, in place of a raw transport error.
const offlineSentinelBody = `{"error":"Offline","message":"This data is not available offline","offline":true}`

// Router is an http.RoundTripper implementing the cache strategy router.
// It is safe for concurrent use; in-flight strategies share nothing but the
// cache spaces, where the last writer for a key wins.
type Router struct {
	base        http.RoundTripper
	apiHost     string
	static      *cache.Space
	api         *cache.Space
	cacheable   []*regexp.Regexp
	offlinePage string
	logger      types.Logger
}

// New creates a Router from opts.
func New(opts Options) (*Router, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Base == nil {
		opts.Base = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = types.NewNoOpLogger()
	}
	if len(opts.CacheablePaths) == 0 {
		opts.CacheablePaths = DefaultCacheablePaths
	}
	if opts.OfflinePage == "" {
		opts.OfflinePage = DefaultOfflinePage
	}

	cacheable := make([]*regexp.Regexp, 0, len(opts.CacheablePaths))
	for _, p := range opts.CacheablePaths {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		cacheable = append(cacheable, re)
	}

	return &Router{
		base:        opts.Base,
		apiHost:     opts.APIHost,
		static:      opts.StaticSpace,
		api:         opts.APISpace,
		cacheable:   cacheable,
		offlinePage: opts.OfflinePage,
		logger:      opts.Logger,
	}, nil
}

// RoundTrip dispatches the request to the strategy its shape selects.
func (r *Router) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return r.base.RoundTrip(req)
	}

	switch r.classify(req) {
	case strategyCacheFirst:
		return r.cacheFirst(req)
	case strategyNavigation:
		return r.navigation(req)
	default:
		return r.networkFirst(req)
	}
}

// networkFirst fetches live and stores cacheable API responses. When the
// network fails it serves the cached copy, and for API requests with no
// cached copy it synthesizes the offline sentinel instead of surfacing the
// transport error.
func (r *Router) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err == nil {
		if r.shouldCacheAPI(req, resp) {
			r.storeResponse(req, resp, r.api)
		}
		return resp, nil
	}

	key := cacheKey(req)
	if ent, ok := r.api.Match(req.Context(), key); ok {
		r.logger.Debug("router: serving API response from cache", "url", key)
		return ent.Response(req), nil
	}
	if ent, ok := r.static.Match(req.Context(), key); ok {
		r.logger.Debug("router: serving response from static cache", "url", key)
		return ent.Response(req), nil
	}

	if req.URL.Host == r.apiHost {
		r.logger.Debug("router: offline with no cached copy", "url", key)
		return offlineSentinel(req), nil
	}
	return nil, err
}

// cacheFirst serves static assets from cache without a freshness check.
// Stale assets are acceptable; a redeploy bumps the space version and
// clears them wholesale.
func (r *Router) cacheFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req)
	if ent, ok := r.static.Match(req.Context(), key); ok {
		return ent.Response(req), nil
	}

	resp, err := r.base.RoundTrip(req)
	if err != nil {
		// Non-critical assets get no synthetic fallback.
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		r.storeResponse(req, resp, r.static)
	}
	return resp, nil
}

// navigation serves full-page requests. Successful responses are never
// cached, so a stale shell is never served while online; offline falls back
// to cache, then the pre-cached offline page, then a minimal 503.
func (r *Router) navigation(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if ent, ok := r.static.Match(req.Context(), cacheKey(req)); ok {
		return ent.Response(req), nil
	}

	if ent, ok := r.matchOfflinePage(req); ok {
		r.logger.Debug("router: serving offline page", "url", req.URL.String())
		return ent.Response(req), nil
	}

	return plainUnavailable(req), nil
}

// matchOfflinePage finds the pre-cached offline placeholder page. It may be
// stored under the bare path or under the requesting origin's full URL,
// depending on how the manifest was precached.
func (r *Router) matchOfflinePage(req *http.Request) (cache.Entry, bool) {
	ctx := req.Context()
	if ent, ok := r.static.Match(ctx, r.offlinePage); ok {
		return ent, true
	}
	full := req.URL.Scheme + "://" + req.URL.Host + r.offlinePage
	if ent, ok := r.static.Match(ctx, full); ok {
		return ent, true
	}
	return cache.Entry{}, false
}

// shouldCacheAPI reports whether the response should be stored in the API
// space: a successful response from the backend host on one of the fixed
// cacheable paths.
func (r *Router) shouldCacheAPI(req *http.Request, resp *http.Response) bool {
	if req.URL.Host != r.apiHost {
		return false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	for _, re := range r.cacheable {
		if re.MatchString(req.URL.Path) {
			return true
		}
	}
	return false
}

// storeResponse clones resp into space. Best-effort: a failed cache write
// never fails the in-flight request.
func (r *Router) storeResponse(req *http.Request, resp *http.Response, space *cache.Space) {
	ent, err := cache.NewEntry(resp)
	if err != nil {
		r.logger.Warn("router: could not snapshot response", "url", req.URL.String(), "error", err)
		return
	}
	if err := space.Put(req.Context(), cacheKey(req), ent); err != nil {
		r.logger.Warn("router: cache write failed", "space", space.Name(), "url", req.URL.String(), "error", err)
	}
}

// Precache fetches the static resource manifest into the static space.
// Called on activation with the top-level application routes and the
// offline fallback page. Individual fetch failures are logged and skipped.
func (r *Router) Precache(ctx context.Context, urls []string) error {
	for _, u := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := r.base.RoundTrip(req)
		if err != nil {
			r.logger.Warn("router: precache fetch failed", "url", u, "error", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			r.logger.Warn("router: precache skipped non-2xx", "url", u, "status", resp.StatusCode)
			continue
		}
		ent, err := cache.NewEntry(resp)
		resp.Body.Close()
		if err != nil {
			r.logger.Warn("router: precache read failed", "url", u, "error", err)
			continue
		}
		if err := r.static.Put(ctx, req.URL.String(), ent); err != nil {
			r.logger.Warn("router: precache write failed", "url", u, "error", err)
		}
	}
	return nil
}

// offlineSentinel builds the structured 503 for uncached API reads while
// offline.
func offlineSentinel(req *http.Request) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)),
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(offlineSentinelBody))),
		ContentLength: int64(len(offlineSentinelBody)),
		Request:       req,
	}
}

// plainUnavailable is the last-resort navigation response when even the
// offline page is absent.
func plainUnavailable(req *http.Request) *http.Response {
	const body = "offline"
	header := make(http.Header)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)),
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
