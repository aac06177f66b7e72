package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps every key in a map. It is the store used by tests and by the
// "memory" driver.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
	size   int
}

// NewMemoryStore returns an empty store without a quota.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// NewMemoryStoreWithQuota returns a store that refuses writes once the total size of
// keys and values would exceed quota bytes. A quota of zero disables the limit.
func NewMemoryStoreWithQuota(quota int) *MemoryStore {
	s := NewMemoryStore()
	s.quota = quota
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.size + len(value)
	if old, ok := s.values[key]; ok {
		size -= len(old)
	} else {
		size += len(key)
	}
	if s.quota > 0 && size > s.quota {
		return ErrQuotaExceeded
	}

	s.values[key] = value
	s.size = size
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok {
		s.size -= len(key) + len(old)
		delete(s.values, key)
	}
	return nil
}

// Keys returns the keys currently present, in no particular order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
