package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/metadata"
)

// LocalStore keeps content in memory under ids derived from the content
// itself. With a non-empty basePath every blob is also written to disk and
// read back on a cache miss.
type LocalStore struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	basePath string
}

// NewLocalStore creates a memory-only LocalStore.
func NewLocalStore() *LocalStore {
	return &LocalStore{blobs: make(map[string][]byte)}
}

// NewLocalStoreWithPath creates a LocalStore persisting under basePath.
func NewLocalStoreWithPath(basePath string) (*LocalStore, error) {
	s := NewLocalStore()
	s.basePath = strings.TrimSuffix(basePath, string(os.PathSeparator))
	if s.basePath != "" {
		if err := os.MkdirAll(s.basePath, 0755); err != nil {
			return nil, fmt.Errorf("content: create %s: %w", s.basePath, err)
		}
	}
	return s, nil
}

// Put stores data under metadata.FallbackID(data).
func (s *LocalStore) Put(ctx context.Context, data []byte) (string, error) {
	id := metadata.FallbackID(data)
	cp := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = cp
	if s.basePath != "" {
		if err := os.WriteFile(s.path(id), cp, 0644); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Get returns the bytes stored under id.
func (s *LocalStore) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if ok {
		return append([]byte(nil), b...), nil
	}
	if s.basePath == "" || strings.ContainsAny(id, `/\`) {
		return nil, ErrNotFound
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.mu.Lock()
	s.blobs[id] = b
	s.mu.Unlock()
	return append([]byte(nil), b...), nil
}

// Has reports whether id is known locally.
func (s *LocalStore) Has(id string) bool {
	s.mu.RLock()
	_, ok := s.blobs[id]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if s.basePath == "" {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.basePath, id+".json")
}
