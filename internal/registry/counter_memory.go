package registry

import (
	"context"
	"sync"
)

// MemoryCounterStore keeps counters in process memory.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int64)}
}

func (s *MemoryCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.counters[key]
	if !ok {
		return 0, ErrCounterMissing
	}
	v++
	s.counters[key] = v
	return v, nil
}

func (s *MemoryCounterStore) Seed(ctx context.Context, key string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[key]; !ok {
		s.counters[key] = value
	}
	return nil
}

func (s *MemoryCounterStore) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.counters[key]
	if !ok {
		return 0, ErrCounterMissing
	}
	return v, nil
}

func (s *MemoryCounterStore) Set(ctx context.Context, key string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.counters[key] = value
	s.mu.Unlock()
	return nil
}

var _ CounterStore = (*MemoryCounterStore)(nil)
