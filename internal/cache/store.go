package cache

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Entry is one stored response: status, headers, body. Entries have no TTL;
// they are replaced on each matching network success.
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Store is a set of named, isolated cache partitions with no
// cross-partition lookup.
type Store interface {
	Match(ctx context.Context, partition, key string) (Entry, bool, error)
	Put(ctx context.Context, partition, key string, e Entry) error
	Delete(ctx context.Context, partition, key string) error
	DeletePartition(ctx context.Context, partition string) error
	Partitions(ctx context.Context) ([]string, error)
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: map[string]map[string]Entry{}}
}

func (s *MemoryStore) Match(_ context.Context, partition, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.partitions[partition][key]
	return e, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, partition, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partitions[partition]
	if !ok {
		p = map[string]Entry{}
		s.partitions[partition] = p
	}
	p[key] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partitions[partition], key)
	return nil
}

func (s *MemoryStore) DeletePartition(_ context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partitions, partition)
	return nil
}

func (s *MemoryStore) Partitions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.partitions))
	for name := range s.partitions {
		out = append(out, name)
	}
	return out, nil
}
