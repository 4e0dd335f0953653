package cache

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
)

const offlineHTML = `<!DOCTYPE html>
<html>
<head>
<title>TVET Platform - Offline</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
<h1>You're Offline</h1>
<p>It looks like you're not connected to the internet. Some features may not be
available, but you can still access cached content.</p>
</body>
</html>
`

// Dispatcher classifies each GET request and applies one of the caching
// strategies; everything else is passed through to the upstream untouched.
// It is mounted as the router's fallthrough handler.
type Dispatcher struct {
	policy     Policy
	classifier *Classifier
	store      Store
	fetcher    Fetcher
	log        logrus.FieldLogger

	// in-flight background revalidations; tests wait on this
	reval sync.WaitGroup
}

func NewDispatcher(p Policy, store Store, fetcher Fetcher, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		policy:     p,
		classifier: NewClassifier(p),
		store:      store,
		fetcher:    fetcher,
		log:        log,
	}
}

// cacheKey identifies an entry. Only GETs are cached.
func cacheKey(r *http.Request) string {
	return r.Method + " " + r.URL.RequestURI()
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !isHTTPScheme(r) {
		d.passThrough(w, r)
		return
	}

	class := d.classifier.Classify(r)
	var (
		entry Entry
		err   error
	)
	switch class {
	case ClassStatic:
		entry, err = d.cacheFirst(r, d.policy.StaticPartition())
	case ClassAPI:
		entry, err = d.staleWhileRevalidate(r, d.policy.APIPartition())
	case ClassMedia:
		entry, err = d.cacheFirst(r, d.policy.DynamicPartition())
	default: // navigation and everything else
		entry, err = d.networkFirst(r, d.policy.DynamicPartition())
	}
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"class": class.String(),
		}).Debug("fetch failed, serving fallback")
		d.writeFallback(w, r, class)
		return
	}
	writeEntry(w, entry)
}

func isHTTPScheme(r *http.Request) bool {
	return r.URL.Scheme == "" || r.URL.Scheme == "http" || r.URL.Scheme == "https"
}

// passThrough forwards without touching any cache partition.
func (d *Dispatcher) passThrough(w http.ResponseWriter, r *http.Request) {
	entry, err := d.fetcher.Fetch(r.Context(), r)
	if err != nil {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	writeEntry(w, entry)
}

// --- strategies ---

// cacheFirst returns the cached copy when present; otherwise fetches, stores
// a copy on success, and returns the network response.
func (d *Dispatcher) cacheFirst(r *http.Request, partition string) (Entry, error) {
	key := cacheKey(r)
	if e, ok, err := d.store.Match(r.Context(), partition, key); err == nil && ok {
		return e, nil
	}
	e, err := d.fetcher.Fetch(r.Context(), r)
	if err != nil {
		return Entry{}, err
	}
	if isOK(e) {
		d.put(r.Context(), partition, key, e)
	}
	return e, nil
}

// networkFirst tries the network, storing successes, and falls back to the
// cached copy only when the network fails outright.
func (d *Dispatcher) networkFirst(r *http.Request, partition string) (Entry, error) {
	key := cacheKey(r)
	e, err := d.fetcher.Fetch(r.Context(), r)
	if err == nil {
		if isOK(e) {
			d.put(r.Context(), partition, key, e)
		}
		return e, nil
	}
	if cached, ok, merr := d.store.Match(r.Context(), partition, key); merr == nil && ok {
		return cached, nil
	}
	return Entry{}, err
}

// staleWhileRevalidate returns the cached copy immediately and refreshes it
// in the background; the caller only waits on the network for a cache miss.
// The refresh is deliberately detached from the request context: it may
// complete and overwrite the entry after the caller has gone away.
func (d *Dispatcher) staleWhileRevalidate(r *http.Request, partition string) (Entry, error) {
	key := cacheKey(r)
	if cached, ok, err := d.store.Match(r.Context(), partition, key); err == nil && ok {
		req := r.Clone(context.WithoutCancel(r.Context()))
		d.reval.Add(1)
		go func() {
			defer d.reval.Done()
			e, err := d.fetcher.Fetch(req.Context(), req)
			if err != nil {
				d.log.WithError(err).WithField("path", req.URL.Path).Debug("background revalidation failed")
				return
			}
			if isOK(e) {
				d.put(req.Context(), partition, key, e)
			}
		}()
		return cached, nil
	}
	e, err := d.fetcher.Fetch(r.Context(), r)
	if err != nil {
		return Entry{}, err
	}
	if isOK(e) {
		d.put(r.Context(), partition, key, e)
	}
	return e, nil
}

func isOK(e Entry) bool { return e.Status >= 200 && e.Status < 300 }

func (d *Dispatcher) put(ctx context.Context, partition, key string, e Entry) {
	if err := d.store.Put(ctx, partition, key, e); err != nil {
		d.log.WithError(err).WithField("partition", partition).Warn("cache write failed")
	}
}

// writeFallback handles irrecoverable failures: the offline page for
// navigations, a synthetic timeout response for anything else.
func (d *Dispatcher) writeFallback(w http.ResponseWriter, r *http.Request, class Class) {
	if class == ClassNavigation {
		offKey := http.MethodGet + " " + d.policy.OfflinePath
		if e, ok, err := d.store.Match(r.Context(), d.policy.StaticPartition(), offKey); err == nil && ok {
			writeEntry(w, e)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(offlineHTML))
		return
	}
	http.Error(w, "Network error", http.StatusRequestTimeout)
}

func writeEntry(w http.ResponseWriter, e Entry) {
	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(e.Status)
	_, _ = w.Write(e.Body)
}

// --- lifecycle ---

// Install pre-populates the static partition from the precache manifest.
// Any asset failing to cache fails the install; the host runtime retries.
func (d *Dispatcher) Install(ctx context.Context) error {
	partition := d.policy.StaticPartition()
	for _, asset := range d.policy.Precache {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset, nil)
		if err != nil {
			return fmt.Errorf("precache %s: %w", asset, err)
		}
		e, err := d.fetcher.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", asset, err)
		}
		if !isOK(e) {
			return fmt.Errorf("precache %s: upstream returned %d", asset, e.Status)
		}
		if err := d.store.Put(ctx, partition, cacheKey(req), e); err != nil {
			return fmt.Errorf("precache %s: %w", asset, err)
		}
	}
	d.log.WithField("assets", len(d.policy.Precache)).Info("static assets precached")
	return nil
}

// Activate deletes any partition outside the recognized set, sweeping caches
// left behind by earlier policy versions.
func (d *Dispatcher) Activate(ctx context.Context) error {
	current, err := d.store.Partitions(ctx)
	if err != nil {
		return err
	}
	recognized := map[string]struct{}{}
	for _, name := range d.policy.Recognized() {
		recognized[name] = struct{}{}
	}
	for _, name := range current {
		if _, ok := recognized[name]; ok {
			continue
		}
		d.log.WithField("partition", name).Info("deleting stale cache partition")
		if err := d.store.DeletePartition(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
