package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore persists cache entries under <base>/<partition>/<sha256(key)>.json
// so cached content survives restarts.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data/cache"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) path(partition, key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:]) + ".json"
	return filepath.Join(s.base, filepath.Clean(partition), name)
}

func (s *FSStore) Match(_ context.Context, partition, key string) (Entry, bool, error) {
	raw, err := os.ReadFile(s.path(partition, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// corrupt entry reads as a miss
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *FSStore) Put(_ context.Context, partition, key string, e Entry) error {
	dst := s.path(partition, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	buf, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, buf, 0o644)
}

func (s *FSStore) Delete(_ context.Context, partition, key string) error {
	err := os.Remove(s.path(partition, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FSStore) DeletePartition(_ context.Context, partition string) error {
	return os.RemoveAll(filepath.Join(s.base, filepath.Clean(partition)))
}

func (s *FSStore) Partitions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			out = append(out, ent.Name())
		}
	}
	return out, nil
}
