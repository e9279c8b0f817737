package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrInvalidName     = errors.New("client name must not be empty")
	ErrSlotTaken       = errors.New("slot is already booked")
	ErrSlotBlocked     = errors.New("slot is blocked by the trainer")
	ErrBookingNotFound = errors.New("booking not found")
)

// codeAlphabet excludes easily-confused characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// casAttempts bounds the retry loop every mutation runs when another
// writer swaps the schedule between our load and our write.
const casAttempts = 5

// --- Service Interface ---

// BookingService is the conflict-checked booking lifecycle: create, move,
// cancel, and the code lookup backing the self-service manage view.
type BookingService interface {
	Create(ctx context.Context, day time.Time, hour int, name, remark string) (*domain.Booking, error)
	Move(ctx context.Context, code string, day time.Time, hour int) (*domain.Booking, error)
	Cancel(ctx context.Context, code string) error
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)
}

// --- Service Implementation ---

type bookingService struct {
	store  storage.ScheduleStore
	logger *zap.Logger
	now    func() time.Time
}

// NewBookingService creates a new instance of bookingService.
func NewBookingService(store storage.ScheduleStore, logger *zap.Logger) BookingService {
	return &bookingService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Create books the slot at (day, hour) for the named client. The booking
// code returned inside the Booking is the client's only credential for
// moving or cancelling later; it is not recoverable through any other call.
func (s *bookingService) Create(ctx context.Context, day time.Time, hour int, name, remark string) (*domain.Booking, error) {
	name = strings.TrimSpace(name)
	remark = domain.TruncateRunes(strings.TrimSpace(remark), domain.MaxRemarkLength)

	slot := domain.SlotID(day, hour)
	end, err := domain.SlotEnd(slot)
	if err != nil {
		return nil, fmt.Errorf("compute slot end: %w", err)
	}

	var booking domain.Booking
	err = s.mutate(ctx, func(schedule *domain.Schedule) error {
		// Validate against the state just re-read from storage, never
		// against whatever snapshot rendered the caller's page.
		if schedule.IsBlocked(slot) {
			return ErrSlotBlocked
		}
		if schedule.BookingAt(slot) != nil {
			return ErrSlotTaken
		}
		if name == "" {
			return ErrInvalidName
		}

		code, err := s.uniqueCode(*schedule)
		if err != nil {
			return err
		}

		booking = domain.Booking{
			ID:           "bk_" + uuid.NewString(),
			Name:         name,
			Remark:       remark,
			StartISO:     slot,
			EndISO:       end,
			CreatedAtISO: s.now().Format(domain.SlotLayout),
			Code:         code,
		}
		schedule.Bookings = append(schedule.Bookings, booking)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("slot", slot))
	return &booking, nil
}

// Move reschedules the booking identified by code onto (day, hour),
// keeping its identity: id, code, name, remark and creation time are
// untouched; only the start and derived end change.
func (s *bookingService) Move(ctx context.Context, code string, day time.Time, hour int) (*domain.Booking, error) {
	target := domain.SlotID(day, hour)
	end, err := domain.SlotEnd(target)
	if err != nil {
		return nil, fmt.Errorf("compute slot end: %w", err)
	}

	var moved domain.Booking
	err = s.mutate(ctx, func(schedule *domain.Schedule) error {
		booking, idx := schedule.BookingByCode(code)
		if idx < 0 {
			return ErrBookingNotFound
		}
		// A booking may land on its own current slot; any other occupant
		// is a conflict.
		if occupant := schedule.BookingAt(target); occupant != nil && occupant.ID != booking.ID {
			return ErrSlotTaken
		}
		if schedule.IsBlocked(target) {
			return ErrSlotBlocked
		}

		schedule.Bookings[idx].StartISO = target
		schedule.Bookings[idx].EndISO = end
		moved = schedule.Bookings[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking moved",
		zap.String("booking_id", moved.ID),
		zap.String("slot", target))
	return &moved, nil
}

// Cancel removes the booking identified by code. Cancelling a code that
// matches nothing, including an already-cancelled one, fails.
func (s *bookingService) Cancel(ctx context.Context, code string) error {
	var removed domain.Booking
	err := s.mutate(ctx, func(schedule *domain.Schedule) error {
		_, idx := schedule.BookingByCode(code)
		if idx < 0 {
			return ErrBookingNotFound
		}
		removed = schedule.Bookings[idx]
		schedule.Bookings = append(schedule.Bookings[:idx], schedule.Bookings[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", removed.ID),
		zap.String("slot", removed.StartISO))
	return nil
}

// GetByCode looks up a booking for the manage-booking view.
func (s *bookingService) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	schedule, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	booking, idx := schedule.BookingByCode(code)
	if idx < 0 {
		return nil, ErrBookingNotFound
	}
	found := *booking
	return &found, nil
}

// mutate runs one load-validate-write cycle and retries on version
// conflicts. Validation errors abort immediately; only losing the CAS race
// earns another attempt, and each attempt revalidates against the fresh
// state, so a slot grabbed by the race winner turns into ErrSlotTaken on
// the next pass rather than a double-booking.
func (s *bookingService) mutate(ctx context.Context, apply func(*domain.Schedule) error) error {
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
	return fmt.Errorf("persist schedule after %d attempts: %w", casAttempts, lastErr)
}

// uniqueCode generates a XXX-XXX code unique among active bookings.
// Collisions are unlikely given the alphabet size but are regenerated
// rather than assumed away.
func (s *bookingService) uniqueCode(schedule domain.Schedule) (string, error) {
	for {
		left, err := randomCodeGroup(3)
		if err != nil {
			return "", err
		}
		right, err := randomCodeGroup(3)
		if err != nil {
			return "", err
		}
		code := left + "-" + right
		if !schedule.HasCode(code) {
			return code, nil
		}
	}
}

func randomCodeGroup(length int) (string, error) {
	chars := make([]byte, length)
	for i := range chars {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate booking code: %w", err)
		}
		chars[i] = codeAlphabet[n.Int64()]
	}
	return string(chars), nil
}
