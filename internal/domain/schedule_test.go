package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	schedule := NewSchedule(DefaultSettings())
	schedule.Bookings = []Booking{{ID: "bk_1", StartISO: "2025-06-10T09:00:00", Code: "ABC-DEF"}}
	schedule.Blocked = []string{"2025-06-10T08:00:00"}

	assert.Equal(t, SlotBooked, schedule.Status("2025-06-10T09:00:00"))
	assert.Equal(t, SlotBlocked, schedule.Status("2025-06-10T08:00:00"))
	assert.Equal(t, SlotFree, schedule.Status("2025-06-10T10:00:00"))
}

func TestStatusBlockedWinsOverBooked(t *testing.T) {
	// The trainer may block a slot that already carries a booking; the
	// computed status then reports the block.
	schedule := NewSchedule(DefaultSettings())
	schedule.Bookings = []Booking{{ID: "bk_1", StartISO: "2025-06-10T09:00:00"}}
	schedule.Blocked = []string{"2025-06-10T09:00:00"}

	assert.Equal(t, SlotBlocked, schedule.Status("2025-06-10T09:00:00"))
	assert.NotNil(t, schedule.BookingAt("2025-06-10T09:00:00"))
}

func TestBookingByCodeCaseInsensitive(t *testing.T) {
	schedule := NewSchedule(DefaultSettings())
	schedule.Bookings = []Booking{{ID: "bk_1", Code: "ABC-234"}}

	for _, code := range []string{"ABC-234", "abc-234", " aBc-234 "} {
		b, idx := schedule.BookingByCode(code)
		require.NotNil(t, b, "code %q should match", code)
		assert.Equal(t, 0, idx)
	}

	_, idx := schedule.BookingByCode("ZZZ-999")
	assert.Equal(t, -1, idx)
	_, idx = schedule.BookingByCode("")
	assert.Equal(t, -1, idx)
}

func TestCloneIsIndependent(t *testing.T) {
	schedule := NewSchedule(DefaultSettings())
	schedule.Bookings = []Booking{{ID: "bk_1", StartISO: "2025-06-10T09:00:00"}}
	schedule.Blocked = []string{"2025-06-10T08:00:00"}

	clone := schedule.Clone()
	clone.Bookings[0].StartISO = "2025-06-11T09:00:00"
	clone.Blocked[0] = "2025-06-11T08:00:00"

	assert.Equal(t, "2025-06-10T09:00:00", schedule.Bookings[0].StartISO)
	assert.Equal(t, "2025-06-10T08:00:00", schedule.Blocked[0])
}

func TestDayAvailability(t *testing.T) {
	schedule := NewSchedule(Settings{DayStartHour: 6, DayEndHour: 21})
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	schedule.Bookings = []Booking{
		{ID: "bk_1", StartISO: SlotID(day, 9)},
		{ID: "bk_2", StartISO: SlotID(day, 10)},
	}
	schedule.Blocked = []string{SlotID(day, 12)}

	got := schedule.DayAvailability(day)
	assert.Equal(t, Availability{Free: 13, Occupied: 3, Total: 16}, got)

	// A booking outside the operating window counts nothing.
	other := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Availability{Free: 16, Occupied: 0, Total: 16}, schedule.DayAvailability(other))
}

func TestDayAvailabilityEmptyDay(t *testing.T) {
	schedule := NewSchedule(Settings{DayStartHour: 10, DayEndHour: 8})
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Availability{}, schedule.DayAvailability(day))
}
