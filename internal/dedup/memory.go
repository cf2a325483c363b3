package dedup

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Its contents are lost on restart and
// are not shared between instances.
type MemoryStore struct {
	mu    sync.Mutex
	fired map[TriggerKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fired: make(map[TriggerKey]struct{})}
}

func (s *MemoryStore) HasFired(_ context.Context, scheduleID, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fired[TriggerKey{ScheduleID: scheduleID, Day: day}]
	return ok, nil
}

func (s *MemoryStore) MarkFired(_ context.Context, scheduleID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired[TriggerKey{ScheduleID: scheduleID, Day: day}] = struct{}{}
	return nil
}

func (s *MemoryStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired = make(map[TriggerKey]struct{})
	return nil
}

// Len reports the number of recorded firings.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fired)
}

var _ Store = (*MemoryStore)(nil)
