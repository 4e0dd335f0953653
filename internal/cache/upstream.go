package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetcher performs the network leg of a caching strategy, returning the
// buffered response as an Entry.
type Fetcher interface {
	Fetch(ctx context.Context, r *http.Request) (Entry, error)
}

// Upstream proxies requests to the origin the gateway fronts.
type Upstream struct {
	base   *url.URL
	client *http.Client
}

func NewUpstream(base string, client *http.Client) (*Upstream, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q: scheme must be http(s)", base)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Upstream{base: u, client: client}, nil
}

func (u *Upstream) Fetch(ctx context.Context, r *http.Request) (Entry, error) {
	target := *u.base
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), body)
	if err != nil {
		return Entry{}, err
	}
	req.Header = r.Header.Clone()

	resp, err := u.client.Do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     buf,
		StoredAt: time.Now(),
	}, nil
}
