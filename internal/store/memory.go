package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by deployments that
// accept losing sessions on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, matchID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.records[matchID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	return copied, nil
}

func (s *MemoryStore) Save(_ context.Context, matchID string, payload []byte) error {
	copied := make([]byte, len(payload))
	copy(copied, payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[matchID] = copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, matchID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
