package cursor

import (
	"context"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu        sync.Mutex
	positions map[string]int64
}

// NewMemoryStore creates an in-memory cursor store. It honors the same
// monotonicity contract as the database-backed store and is intended for
// tests and local development.
func NewMemoryStore() Store {
	return &memoryStore{positions: make(map[string]int64)}
}

func (s *memoryStore) Load(_ context.Context, domain string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, found := s.positions[domain]
	return position, found, nil
}

func (s *memoryStore) Advance(_ context.Context, domain string, position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, found := s.positions[domain]; found && current >= position {
		return fmt.Errorf("cursor for domain %s at or past %d: %w", domain, position, ErrRegression)
	}
	s.positions[domain] = position
	return nil
}

func (s *memoryStore) Seed(_ context.Context, domain string, position int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.positions[domain]; found {
		return false, nil
	}
	s.positions[domain] = position
	return true, nil
}
