package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSlotID(t *testing.T) {
	assert.Equal(t, "2025-06-10T09:00:00", SlotID(date(2025, time.June, 10), 9))
	assert.Equal(t, "2025-06-10T00:00:00", SlotID(date(2025, time.June, 10), 0))

	// The day component of the input must not leak minutes/seconds in.
	noon := time.Date(2025, time.June, 10, 13, 45, 12, 0, time.UTC)
	assert.Equal(t, "2025-06-10T09:00:00", SlotID(noon, 9))
}

func TestSlotEnd(t *testing.T) {
	end, err := SlotEnd("2025-06-10T09:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10T10:00:00", end)

	// Crossing midnight rolls over to the next date.
	end, err = SlotEnd("2025-06-10T23:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-11T00:00:00", end)

	_, err = SlotEnd("not-a-timestamp")
	assert.Error(t, err)
}

func TestEnumerateDay(t *testing.T) {
	settings := Settings{DayStartHour: 6, DayEndHour: 21}
	ids := EnumerateDay(settings, date(2025, time.June, 10))
	require.Len(t, ids, 16)
	assert.Equal(t, "2025-06-10T06:00:00", ids[0])
	assert.Equal(t, "2025-06-10T21:00:00", ids[15])
}

func TestEnumerateDayStartPastEnd(t *testing.T) {
	// No ordering is enforced between the hours; a start past the end
	// produces an empty day rather than an error.
	settings := Settings{DayStartHour: 10, DayEndHour: 8}
	assert.Empty(t, EnumerateDay(settings, date(2025, time.June, 10)))
}

func TestAvailabilityRatio(t *testing.T) {
	assert.Equal(t, 0.5, Availability{Free: 8, Occupied: 8, Total: 16}.Ratio())
	assert.Equal(t, 0.0, Availability{}.Ratio())
}
