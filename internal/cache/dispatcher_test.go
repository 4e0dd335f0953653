package cache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeFetcher serves canned responses per path and counts fetches.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]Entry
	fails     map[string]bool
	calls     map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: map[string]Entry{},
		fails:     map[string]bool{},
		calls:     map[string]int{},
	}
}

func (f *fakeFetcher) serve(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/plain"}},
		Body:   []byte(body),
	}
	f.fails[path] = false
}

func (f *fakeFetcher) fail(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[path] = true
}

func (f *fakeFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeFetcher) Fetch(_ context.Context, r *http.Request) (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := r.URL.Path
	f.calls[p]++
	if f.fails[p] {
		return Entry{}, errors.New("connection refused")
	}
	e, ok := f.responses[p]
	if !ok {
		return Entry{Status: http.StatusNotFound, Body: []byte("not found")}, nil
	}
	return e, nil
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.Precache = []string{"/index.html", "/css/main.css", "/offline.html"}
	return p
}

func testDispatcher(t *testing.T) (*Dispatcher, *fakeFetcher, *MemoryStore) {
	t.Helper()
	f := newFakeFetcher()
	store := NewMemoryStore()
	return NewDispatcher(testPolicy(), store, f, testLogger()), f, store
}

func do(d *Dispatcher, method, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)
	return w
}

func TestCacheFirstServesFromCache(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/css/main.css", "body{}")

	if w := do(d, http.MethodGet, "/css/main.css"); w.Body.String() != "body{}" {
		t.Fatalf("first hit body = %q", w.Body.String())
	}
	// second hit must not touch the network
	f.fail("/css/main.css")
	if w := do(d, http.MethodGet, "/css/main.css"); w.Body.String() != "body{}" {
		t.Fatalf("cached hit body = %q", w.Body.String())
	}
	if n := f.count("/css/main.css"); n != 1 {
		t.Fatalf("upstream fetched %d times, want 1", n)
	}
}

func TestCacheFirstSkipsCachingErrors(t *testing.T) {
	d, f, _ := testDispatcher(t)
	// 404 is returned to the client but never cached
	if w := do(d, http.MethodGet, "/css/gone.css"); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	f.serve("/css/gone.css", "recovered")
	if w := do(d, http.MethodGet, "/css/gone.css"); w.Body.String() != "recovered" {
		t.Fatalf("body = %q, the 404 was cached", w.Body.String())
	}
}

func TestStaleWhileRevalidate(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/api/courses", `{"v":1}`)

	// miss populates the cache synchronously
	if w := do(d, http.MethodGet, "/api/courses"); w.Body.String() != `{"v":1}` {
		t.Fatalf("miss body = %q", w.Body.String())
	}

	// hit returns the stale copy and refreshes in the background
	f.serve("/api/courses", `{"v":2}`)
	if w := do(d, http.MethodGet, "/api/courses"); w.Body.String() != `{"v":1}` {
		t.Fatalf("stale body = %q, want the cached v1", w.Body.String())
	}
	d.reval.Wait()
	if w := do(d, http.MethodGet, "/api/courses"); w.Body.String() != `{"v":2}` {
		t.Fatalf("post-refresh body = %q, want v2", w.Body.String())
	}
	// the third hit spawns its own refresh; settle before counting
	d.reval.Wait()
	if n := f.count("/api/courses"); n != 3 {
		t.Fatalf("upstream fetched %d times, want 3", n)
	}
}

func TestStaleWhileRevalidateSurvivesRefreshFailure(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/api/trainers", "cached")
	do(d, http.MethodGet, "/api/trainers")

	f.fail("/api/trainers")
	if w := do(d, http.MethodGet, "/api/trainers"); w.Body.String() != "cached" {
		t.Fatalf("body = %q, want cached copy", w.Body.String())
	}
	d.reval.Wait()
	if w := do(d, http.MethodGet, "/api/trainers"); w.Body.String() != "cached" {
		t.Fatalf("failed refresh clobbered the cache: %q", w.Body.String())
	}
	d.reval.Wait()
}

func TestNetworkFirstFallsBackToCache(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/data/export.csv", "a,b,c")
	do(d, http.MethodGet, "/data/export.csv")

	f.fail("/data/export.csv")
	w := do(d, http.MethodGet, "/data/export.csv")
	if w.Body.String() != "a,b,c" {
		t.Fatalf("offline body = %q, want cached copy", w.Body.String())
	}
}

func TestNetworkFirstPrefersNetwork(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/data/export.csv", "old")
	do(d, http.MethodGet, "/data/export.csv")

	f.serve("/data/export.csv", "new")
	if w := do(d, http.MethodGet, "/data/export.csv"); w.Body.String() != "new" {
		t.Fatalf("body = %q, want the fresh network copy", w.Body.String())
	}
}

func TestNavigationOfflineFallback(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.fail("/courses.html")

	w := do(d, http.MethodGet, "/courses.html")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 offline page", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Offline") {
		t.Fatalf("body = %q, want the offline page", w.Body.String())
	}
}

func TestNavigationPrefersCachedOfflinePage(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/index.html", "<html>home</html>")
	f.serve("/css/main.css", "body{}")
	f.serve("/offline.html", "<html>custom offline</html>")
	if err := d.Install(context.Background()); err != nil {
		t.Fatalf("install: %v", err)
	}

	f.fail("/courses.html")
	w := do(d, http.MethodGet, "/courses.html")
	if got := w.Body.String(); got != "<html>custom offline</html>" {
		t.Fatalf("body = %q, want the precached offline page", got)
	}
}

func TestNonNavigationFailureIs408(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.fail("/data/export.csv")

	w := do(d, http.MethodGet, "/data/export.csv")
	if w.Code != http.StatusRequestTimeout {
		t.Fatalf("status = %d, want 408", w.Code)
	}
}

func TestNonGETPassesThrough(t *testing.T) {
	d, f, store := testDispatcher(t)
	f.serve("/api/progress", "ok")

	if w := do(d, http.MethodPost, "/api/progress"); w.Body.String() != "ok" {
		t.Fatalf("body = %q", w.Body.String())
	}
	parts, _ := store.Partitions(context.Background())
	if len(parts) != 0 {
		t.Fatalf("POST was cached into %v", parts)
	}
}

func TestQueryStringsCacheSeparately(t *testing.T) {
	d, f, _ := testDispatcher(t)
	f.serve("/api/courses", "all")
	do(d, http.MethodGet, "/api/courses")

	// a query variant is a distinct key, so this is a miss, not the
	// cached unfiltered entry
	f.serve("/api/courses", "level two")
	w := do(d, http.MethodGet, "/api/courses?level=2")
	if w.Body.String() != "level two" {
		t.Fatalf("query variant served %q from the unfiltered entry", w.Body.String())
	}
	d.reval.Wait()
}

func TestInstallFailsAtomically(t *testing.T) {
	d, f, store := testDispatcher(t)
	ctx := context.Background()
	f.serve("/index.html", "<html>home</html>")
	f.serve("/offline.html", "<html>offline</html>")
	f.fail("/css/main.css")

	if err := d.Install(ctx); err == nil {
		t.Fatal("install succeeded with a failing asset")
	}

	f.serve("/css/main.css", "body{}")
	if err := d.Install(ctx); err != nil {
		t.Fatalf("retry install: %v", err)
	}
	p := testPolicy()
	for _, asset := range p.Precache {
		key := http.MethodGet + " " + asset
		if _, ok, _ := store.Match(ctx, p.StaticPartition(), key); !ok {
			t.Fatalf("asset %s missing after install", asset)
		}
	}
}

func TestActivateSweepsStalePartitions(t *testing.T) {
	d, _, store := testDispatcher(t)
	ctx := context.Background()
	p := testPolicy()
	seed := Entry{Status: 200, Body: []byte("x")}
	_ = store.Put(ctx, "static-v0.9.0", "GET /old", seed)
	_ = store.Put(ctx, p.StaticPartition(), "GET /keep", seed)
	_ = store.Put(ctx, p.APIPartition(), "GET /keep", seed)

	if err := d.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	parts, _ := store.Partitions(ctx)
	if len(parts) != 2 {
		t.Fatalf("partitions after activate = %v", parts)
	}
	if _, ok, _ := store.Match(ctx, p.StaticPartition(), "GET /keep"); !ok {
		t.Fatal("current partition was swept")
	}
}
