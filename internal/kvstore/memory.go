package kvstore

import (
	"context"
	"sync"
	"time"

	appErr "inkpost/internal/pkg/errors"
)

type memoryEntry struct {
	value    string
	deadline time.Time
}

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryEntry{value: value, deadline: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok {
		return "", appErr.ErrNotFound
	}
	if !s.now().Before(entry.deadline) {
		delete(s.items, key)
		return "", appErr.ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
