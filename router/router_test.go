package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glamflow/offline-sync/cache"
	"github.com/glamflow/offline-sync/storage"
)

const apiHost = "xyz.supabase.co"

// fakeTransport serves canned responses while "online" and a transport
// error while not.
type fakeTransport struct {
	online   bool
	status   int
	body     string
	requests int64
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&f.requests, 1)
	if !f.online {
		return nil, errors.New("dial tcp: network is unreachable")
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
		Request:    req,
	}, nil
}

func newTestRouter(t *testing.T, base http.RoundTripper, store storage.Store) (*Router, *cache.Space, *cache.Space) {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStore()
	}
	static, err := cache.NewSpace("static-v1", store, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create static space: %v", err)
	}
	api, err := cache.NewSpace("api-v1", store, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create API space: %v", err)
	}
	rt, err := New(Options{
		Base:        base,
		APIHost:     apiHost,
		StaticSpace: static,
		APISpace:    api,
	})
	if err != nil {
		t.Fatalf("Failed to create router: %v", err)
	}
	return rt, static, api
}

func get(t *testing.T, rt *Router, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if header != nil {
		req.Header = header
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return string(b)
}

func TestNetworkFirstServesCachedCopyOffline(t *testing.T) {
	base := &fakeTransport{online: true, body: `[{"id":"a-1"}]`}
	rt, _, _ := newTestRouter(t, base, nil)

	url := "https://" + apiHost + "/rest/v1/appointments?select=*"
	live := get(t, rt, url, nil)
	if got := readBody(t, live); got != `[{"id":"a-1"}]` {
		t.Fatalf("Unexpected live body: %s", got)
	}

	base.online = false
	cached := get(t, rt, url, nil)
	if cached.StatusCode != http.StatusOK {
		t.Fatalf("Expected cached 200, got %d", cached.StatusCode)
	}
	if got := readBody(t, cached); got != `[{"id":"a-1"}]` {
		t.Fatalf("Cached body should match the live one byte for byte, got %s", got)
	}
	if cached.Header.Get("Content-Type") != "application/json" {
		t.Error("Cached response should keep its headers")
	}
}

func TestNetworkFirstOfflineSentinel(t *testing.T) {
	base := &fakeTransport{online: false}
	rt, _, _ := newTestRouter(t, base, nil)

	resp := get(t, rt, "https://"+apiHost+"/rest/v1/appointments", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Offline bool   `json:"offline"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &body); err != nil {
		t.Fatalf("Sentinel body should be JSON: %v", err)
	}
	if body.Error != "Offline" || !body.Offline {
		t.Errorf("Unexpected sentinel shape: %+v", body)
	}
	if body.Message == "" {
		t.Error("Sentinel should carry a human-readable message")
	}
}

func TestNetworkFirstNonAPIErrorPropagates(t *testing.T) {
	base := &fakeTransport{online: false}
	rt, _, _ := newTestRouter(t, base, nil)

	req, _ := http.NewRequest(http.MethodGet, "https://elsewhere.example.com/data", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("Non-backend hosts should surface the transport error, not a sentinel")
	}
}

func TestNonCacheablePathNotStored(t *testing.T) {
	base := &fakeTransport{online: true, body: `{"secret":true}`}
	rt, _, api := newTestRouter(t, base, nil)

	url := "https://" + apiHost + "/rest/v1/payments"
	resp := get(t, rt, url, nil)
	readBody(t, resp)

	if _, ok := api.Match(context.Background(), url); ok {
		t.Fatal("Paths outside the cacheable set must not be stored")
	}
}

func TestNonGETNeverTouchesCache(t *testing.T) {
	store := storage.NewMemoryStore()
	base := &fakeTransport{online: true, body: "{}"}
	rt, _, _ := newTestRouter(t, base, store)

	req, _ := http.NewRequest(http.MethodPost, "https://"+apiHost+"/rest/v1/appointments", strings.NewReader("{}"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	readBody(t, resp)

	keys, err := store.Keys(context.Background(), "")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("POST must not write to the cache, found keys %v", keys)
	}
}

func TestCacheFirstPrefersCache(t *testing.T) {
	base := &fakeTransport{online: true, body: "body{}"}
	rt, _, _ := newTestRouter(t, base, nil)

	url := "https://app.example.com/assets/main.css"
	first := get(t, rt, url, nil)
	readBody(t, first)
	if atomic.LoadInt64(&base.requests) != 1 {
		t.Fatalf("Miss should hit the network once, got %d", base.requests)
	}

	second := get(t, rt, url, nil)
	if got := readBody(t, second); got != "body{}" {
		t.Fatalf("Unexpected cached asset body: %s", got)
	}
	if atomic.LoadInt64(&base.requests) != 1 {
		t.Fatal("Cached asset must be served without a network request")
	}
}

func TestCacheFirstMissOfflinePropagates(t *testing.T) {
	base := &fakeTransport{online: false}
	rt, _, _ := newTestRouter(t, base, nil)

	req, _ := http.NewRequest(http.MethodGet, "https://app.example.com/assets/logo.png", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("Uncached asset while offline should surface the error")
	}
}

func TestNavigationFallsBackToOfflinePage(t *testing.T) {
	base := &fakeTransport{online: true, body: "<html>offline page</html>"}
	rt, _, _ := newTestRouter(t, base, nil)

	if err := rt.Precache(context.Background(), []string{"https://app.example.com/offline.html"}); err != nil {
		t.Fatalf("Precache failed: %v", err)
	}

	base.online = false
	header := make(http.Header)
	header.Set("Sec-Fetch-Mode", "navigate")
	resp := get(t, rt, "https://app.example.com/dashboard", header)
	if got := readBody(t, resp); got != "<html>offline page</html>" {
		t.Fatalf("Expected the offline page, got %s", got)
	}
}

func TestNavigationLastResort503(t *testing.T) {
	base := &fakeTransport{online: false}
	rt, _, _ := newTestRouter(t, base, nil)

	header := make(http.Header)
	header.Set("Accept", "text/html,application/xhtml+xml")
	resp := get(t, rt, "https://app.example.com/dashboard", header)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", resp.StatusCode)
	}
	readBody(t, resp)
}

func TestNavigationSuccessNotCached(t *testing.T) {
	store := storage.NewMemoryStore()
	base := &fakeTransport{online: true, body: "<html>live</html>"}
	rt, _, _ := newTestRouter(t, base, store)

	header := make(http.Header)
	header.Set("Sec-Fetch-Mode", "navigate")
	resp := get(t, rt, "https://app.example.com/dashboard", header)
	readBody(t, resp)

	keys, _ := store.Keys(context.Background(), "")
	if len(keys) != 0 {
		t.Fatalf("Navigations must not be cached, found keys %v", keys)
	}
}

func TestPrecacheSkipsFailures(t *testing.T) {
	base := &fakeTransport{online: true, status: http.StatusNotFound}
	rt, static, _ := newTestRouter(t, base, nil)

	url := "https://app.example.com/missing"
	if err := rt.Precache(context.Background(), []string{url}); err != nil {
		t.Fatalf("Precache should tolerate per-URL failures: %v", err)
	}
	if _, ok := static.Match(context.Background(), url); ok {
		t.Fatal("Non-2xx responses must not be precached")
	}
}

func TestClassify(t *testing.T) {
	rt, _, _ := newTestRouter(t, &fakeTransport{online: true}, nil)

	cases := []struct {
		url    string
		header map[string]string
		want   strategy
	}{
		{url: "https://" + apiHost + "/rest/v1/tasks", want: strategyNetworkFirst},
		{url: "https://app.example.com/app.js", want: strategyCacheFirst},
		{url: "https://app.example.com/hero", header: map[string]string{"Sec-Fetch-Dest": "image"}, want: strategyCacheFirst},
		{url: "https://app.example.com/dashboard", header: map[string]string{"Sec-Fetch-Mode": "navigate"}, want: strategyNavigation},
		{url: "https://app.example.com/dashboard", header: map[string]string{"Accept": "text/html"}, want: strategyNavigation},
		{url: "https://app.example.com/api/data", want: strategyNetworkFirst},
	}
	for _, c := range cases {
		req, _ := http.NewRequest(http.MethodGet, c.url, nil)
		for k, v := range c.header {
			req.Header.Set(k, v)
		}
		if got := rt.classify(req); got != c.want {
			t.Errorf("classify(%s %v) = %v, want %v", c.url, c.header, got, c.want)
		}
	}
}
