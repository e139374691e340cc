package credits

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.Mutex
	starting int
	data     map[string]int
}

func newMemoryStore(starting int) *memoryStore {
	if starting < 0 {
		starting = 0
	}
	return &memoryStore{starting: starting, data: make(map[string]int)}
}

func (s *memoryStore) Balance(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(userID), nil
}

func (s *memoryStore) Apply(ctx context.Context, userID string, delta int, _ string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := s.ensure(userID)
	if balance+delta < 0 {
		return balance, ErrInsufficient
	}
	balance += delta
	s.data[userID] = balance
	return balance, nil
}

// ensure must be called with mu held.
func (s *memoryStore) ensure(userID string) int {
	balance, ok := s.data[userID]
	if !ok {
		balance = s.starting
		s.data[userID] = balance
	}
	return balance
}
