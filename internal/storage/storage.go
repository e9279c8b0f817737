package storage

import (
	"context"
	"errors"

	"trainerbook/internal/domain"
)

// Error constants for the storage layer.
var (
	// ErrVersionConflict means the schedule was modified by another writer
	// between Load and CompareAndSwap. Callers reload and retry.
	ErrVersionConflict = errors.New("schedule version conflict")

	// ErrUnavailable wraps I/O and backend failures. It is the only fatal
	// error class of the system; it is never swallowed.
	ErrUnavailable = errors.New("schedule storage unavailable")
)

// ScheduleStore persists the whole scheduling state as one document.
//
// Every implementation must guarantee two things: Load never observes a
// partially written document, and CompareAndSwap replaces the document
// atomically only when the stored version still equals expectedVersion.
// The read-validate-write loops in the service layer depend on both.
type ScheduleStore interface {
	// Load returns the latest persisted schedule. A store that has never
	// been written returns the default schedule at version 0.
	Load(ctx context.Context) (domain.Schedule, error)

	// CompareAndSwap atomically replaces the document with next, but only
	// if the stored version still equals expectedVersion. On success the
	// persisted document carries version expectedVersion+1. Returns
	// ErrVersionConflict when another writer got there first.
	CompareAndSwap(ctx context.Context, expectedVersion int64, next domain.Schedule) error
}
