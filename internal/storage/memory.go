package storage

import (
	"context"
	"fmt"
	"sync"

	"trainerbook/internal/domain"
)

// memoryStore is an in-process ScheduleStore. It backs tests and local
// demos; nothing survives a restart.
type memoryStore struct {
	mu       sync.Mutex
	schedule domain.Schedule
}

// NewMemoryStore creates an empty in-memory store seeded with the given
// default settings at version 0.
func NewMemoryStore(defaults domain.Settings) ScheduleStore {
	return &memoryStore{schedule: domain.NewSchedule(defaults)}
}

func (m *memoryStore) Load(ctx context.Context) (domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule.Clone(), nil
}

func (m *memoryStore) CompareAndSwap(ctx context.Context, expectedVersion int64, next domain.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.schedule.Version != expectedVersion {
		return fmt.Errorf("%w: have version %d, expected %d", ErrVersionConflict, m.schedule.Version, expectedVersion)
	}
	next.Version = expectedVersion + 1
	m.schedule = next.Clone()
	return nil
}
