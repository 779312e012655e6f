package storage

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe in-memory key-value store. State is lost when
// the process exits; it exists for tests and ephemeral carts.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns the blob stored under key, or (nil, nil) when absent.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Set stores a copy of blob under key.
func (s *MemoryStore) Set(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.data[key] = stored
	return nil
}

// Delete removes the blob under key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
