package analysis

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ImageStore persists uploaded site images
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// MemoryImageStore keeps uploads in memory. Used by tests and the
// simulated composition.
type MemoryImageStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryImageStore creates an empty in-memory image store
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{objects: make(map[string][]byte)}
}

func (s *MemoryImageStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read image body: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

// Get returns a stored object, for tests
func (s *MemoryImageStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
