package router

import (
	"net/http"
	"path"
	"strings"
)

// strategy identifies how a GET request is served.
type strategy int

const (
	// strategyNetworkFirst fetches live, falls back to cache, and for API
	// requests synthesizes an offline sentinel when nothing is cached.
	strategyNetworkFirst strategy = iota

	// strategyCacheFirst serves the cache without a freshness check and
	// only touches the network on a miss.
	strategyCacheFirst

	// strategyNavigation fetches live, then tries the cache, then the
	// pre-cached offline page.
	strategyNavigation
)

var assetExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".svg": {},
	".ico": {}, ".css": {}, ".js": {}, ".mjs": {}, ".woff": {}, ".woff2": {},
	".ttf": {},
}

// classify picks the strategy for a GET request. Evaluated in order, first
// match wins; the default is Network-First.
func (r *Router) classify(req *http.Request) strategy {
	if req.URL.Host == r.apiHost {
		return strategyNetworkFirst
	}
	if isAsset(req) {
		return strategyCacheFirst
	}
	if isNavigation(req) {
		return strategyNavigation
	}
	return strategyNetworkFirst
}

// isAsset reports whether the request fetches an image, stylesheet or
// script.
func isAsset(req *http.Request) bool {
	switch req.Header.Get("Sec-Fetch-Dest") {
	case "image", "style", "script", "font":
		return true
	}
	ext := strings.ToLower(path.Ext(req.URL.Path))
	_, ok := assetExtensions[ext]
	return ok
}

// isNavigation reports whether the request is a full-page load.
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

// cacheKey is the identity of a stored response. Only GETs reach the cache,
// so the URL alone is enough.
func cacheKey(req *http.Request) string {
	return req.URL.String()
}
