package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/storage"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrInvalidSettings = errors.New("operating hours must be between 0 and 23")
)

// --- Service Interface ---

// TrainerService covers the trainer-only overrides: block toggles,
// operating-hours and PIN changes, and the PIN check itself.
type TrainerService interface {
	// ToggleBlock flips the blocked state of the slot at (day, hour) and
	// reports the new state.
	ToggleBlock(ctx context.Context, day time.Time, hour int) (blocked bool, err error)
	UpdateSettings(ctx context.Context, dayStartHour, dayEndHour int, pin string) (*domain.Settings, error)
	// Authenticate compares the PIN against the stored one. This is a UI
	// gate, not a security boundary: plain string equality, no hashing.
	Authenticate(ctx context.Context, pin string) (bool, error)
}

// --- Service Implementation ---

type trainerService struct {
	store  storage.ScheduleStore
	logger *zap.Logger
}

// NewTrainerService creates a new instance of trainerService.
func NewTrainerService(store storage.ScheduleStore, logger *zap.Logger) TrainerService {
	return &trainerService{store: store, logger: logger}
}

// ToggleBlock does not validate against existing bookings: blocking an
// already-booked slot is a deliberate trainer override and the two states
// coexist until the trainer resolves them. Only new bookings are rejected
// against blocked slots.
func (s *trainerService) ToggleBlock(ctx context.Context, day time.Time, hour int) (bool, error) {
	slot := domain.SlotID(day, hour)

	var nowBlocked bool
	err := s.casLoop(ctx, func(schedule *domain.Schedule) error {
		if schedule.IsBlocked(slot) {
			kept := schedule.Blocked[:0]
			for _, b := range schedule.Blocked {
				if b != slot {
					kept = append(kept, b)
				}
			}
			schedule.Blocked = kept
			nowBlocked = false
			return nil
		}
		schedule.Blocked = append(schedule.Blocked, slot)
		sort.Strings(schedule.Blocked)
		nowBlocked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("slot block toggled",
		zap.String("slot", slot),
		zap.Bool("blocked", nowBlocked))
	return nowBlocked, nil
}

// UpdateSettings validates each hour against 0..23 but enforces no
// ordering between start and end; a start past the end simply yields an
// empty enumerable day. Existing bookings and blocks outside the new
// range are left untouched.
func (s *trainerService) UpdateSettings(ctx context.Context, dayStartHour, dayEndHour int, pin string) (*domain.Settings, error) {
	if dayStartHour < 0 || dayStartHour > 23 || dayEndHour < 0 || dayEndHour > 23 {
		return nil, ErrInvalidSettings
	}
	pin = domain.TruncateRunes(pin, domain.MaxPinLength)

	var saved domain.Settings
	err := s.casLoop(ctx, func(schedule *domain.Schedule) error {
		schedule.Settings.DayStartHour = dayStartHour
		schedule.Settings.DayEndHour = dayEndHour
		schedule.Settings.TrainerPin = pin
		saved = schedule.Settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settings updated",
		zap.Int("day_start_hour", saved.DayStartHour),
		zap.Int("day_end_hour", saved.DayEndHour))
	return &saved, nil
}

func (s *trainerService) Authenticate(ctx context.Context, pin string) (bool, error) {
	schedule, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	return pin == schedule.Settings.TrainerPin, nil
}

// casLoop mirrors the booking engine's retry discipline for admin writes.
func (s *trainerService) casLoop(ctx context.Context, apply func(*domain.Schedule) error) error {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		current, err := s.store.Load(ctx)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := apply(&next); err != nil {
			return err
		}

		err = s.store.CompareAndSwap(ctx, current.Version, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
		lastErr = err
		s.logger.Warn("schedule version conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int64("version", current.Version))
	}
	return lastErr
}
