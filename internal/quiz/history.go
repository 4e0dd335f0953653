package quiz

import (
	"context"
	"sync"
)

// DefaultHistoryCap bounds the stored result history; the oldest entries are
// evicted first.
const DefaultHistoryCap = 50

// History stores completed quiz results, newest first.
// Reads never fail the caller: corrupt or missing data reads as empty.
type History interface {
	Append(ctx context.Context, r Result) error
	Load(ctx context.Context) ([]Result, error)
	Clear(ctx context.Context) error
}

// MemoryHistory is a mutex-guarded bounded list.
type MemoryHistory struct {
	mu      sync.Mutex
	cap     int
	results []Result
}

func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &MemoryHistory{cap: capacity}
}

func (h *MemoryHistory) Append(_ context.Context, r Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append([]Result{r}, h.results...)
	if len(h.results) > h.cap {
		h.results = h.results[:h.cap]
	}
	return nil
}

func (h *MemoryHistory) Load(_ context.Context) ([]Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Result, len(h.results))
	copy(out, h.results)
	return out, nil
}

func (h *MemoryHistory) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = nil
	return nil
}
