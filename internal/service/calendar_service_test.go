package service

import (
	"context"
	"testing"
	"time"

	"trainerbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonthAvailability(t *testing.T) {
	store := newTestStore()
	bookings := NewBookingService(store, zap.NewNop())
	trainer := NewTrainerService(store, zap.NewNop())
	calendar := NewCalendarService(store)
	ctx := context.Background()

	_, err := bookings.Create(ctx, date(2025, time.June, 10), 9, "Alex Tan", "")
	require.NoError(t, err)
	_, err = trainer.ToggleBlock(ctx, date(2025, time.June, 10), 10)
	require.NoError(t, err)

	days, err := calendar.MonthAvailability(ctx, 2025, time.June)
	require.NoError(t, err)
	require.Len(t, days, 30)

	assert.Equal(t, domain.Availability{Free: 14, Occupied: 2, Total: 16}, days["2025-06-10"])
	assert.Equal(t, domain.Availability{Free: 16, Occupied: 0, Total: 16}, days["2025-06-11"])
}

func TestDaySchedule(t *testing.T) {
	store := newTestStore()
	bookings := NewBookingService(store, zap.NewNop())
	trainer := NewTrainerService(store, zap.NewNop())
	calendar := NewCalendarService(store)
	ctx := context.Background()

	booking, err := bookings.Create(ctx, date(2025, time.June, 10), 9, "Alex Tan", "notes")
	require.NoError(t, err)
	_, err = trainer.ToggleBlock(ctx, date(2025, time.June, 10), 8)
	require.NoError(t, err)

	slots, err := calendar.DaySchedule(ctx, date(2025, time.June, 10))
	require.NoError(t, err)
	require.Len(t, slots, 16)

	assert.Equal(t, 6, slots[0].Hour)
	assert.Equal(t, domain.SlotFree, slots[0].Status)

	blockedSlot := slots[2]
	assert.Equal(t, 8, blockedSlot.Hour)
	assert.Equal(t, domain.SlotBlocked, blockedSlot.Status)
	assert.Nil(t, blockedSlot.Booking)

	bookedSlot := slots[3]
	assert.Equal(t, 9, bookedSlot.Hour)
	assert.Equal(t, domain.SlotBooked, bookedSlot.Status)
	require.NotNil(t, bookedSlot.Booking)
	assert.Equal(t, booking.ID, bookedSlot.Booking.ID)
	assert.Equal(t, "2025-06-10T09:00:00", bookedSlot.StartISO)
	assert.Equal(t, "2025-06-10T10:00:00", bookedSlot.EndISO)
}

func TestDayBookingsSortedByStart(t *testing.T) {
	store := newTestStore()
	bookings := NewBookingService(store, zap.NewNop())
	calendar := NewCalendarService(store)
	ctx := context.Background()

	for _, hour := range []int{15, 7, 11} {
		_, err := bookings.Create(ctx, date(2025, time.June, 10), hour, "Client", "")
		require.NoError(t, err)
	}
	// A booking on another day must not leak into the view.
	_, err := bookings.Create(ctx, date(2025, time.June, 11), 9, "Other", "")
	require.NoError(t, err)

	day, err := calendar.DayBookings(ctx, date(2025, time.June, 10))
	require.NoError(t, err)
	require.Len(t, day, 3)
	assert.Equal(t, "2025-06-10T07:00:00", day[0].StartISO)
	assert.Equal(t, "2025-06-10T11:00:00", day[1].StartISO)
	assert.Equal(t, "2025-06-10T15:00:00", day[2].StartISO)
}

func TestDayBookingsEmpty(t *testing.T) {
	calendar := NewCalendarService(newTestStore())

	day, err := calendar.DayBookings(context.Background(), date(2025, time.June, 10))
	require.NoError(t, err)
	assert.Empty(t, day)
}
