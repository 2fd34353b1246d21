package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps conversation ids in process memory. Used when MongoDB is disabled.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (s *MemoryStore) GetConversation(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[key], nil
}

func (s *MemoryStore) SaveConversation(_ context.Context, key, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = conversationID
	return nil
}
