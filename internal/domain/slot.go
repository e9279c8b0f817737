package domain

import "time"

// SlotStatus is the computed state of one slot against a snapshot.
// It is never stored; it is derived from the bookings and the blocked set.
type SlotStatus string

const (
	SlotFree    SlotStatus = "free"
	SlotBooked  SlotStatus = "booked"
	SlotBlocked SlotStatus = "blocked"
)

const (
	// SlotLayout is the canonical local-naive ISO-8601 form of a slot start.
	// All timestamps in the system are wall-clock with no offset; the
	// configured timezone label is display-only.
	SlotLayout = "2006-01-02T15:04:05"

	// DateLayout is the form of a calendar date in the API and CSV export.
	DateLayout = "2006-01-02"

	// ClockLayout is the HH:MM form used for display and CSV export.
	ClockLayout = "15:04"
)

// SlotLength is fixed: every bookable slot is exactly one hour.
const SlotLength = time.Hour

// SlotID returns the canonical identity of the slot starting at the given
// hour of the given day. Two slots are equal iff their IDs are equal.
func SlotID(day time.Time, hour int) string {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC).Format(SlotLayout)
}

// ParseSlotID parses a canonical slot identity back into a wall-clock time.
func ParseSlotID(id string) (time.Time, error) {
	return time.Parse(SlotLayout, id)
}

// SlotEnd returns the end timestamp of the slot with the given start.
// The end is always derived from the start, never set independently.
func SlotEnd(startISO string) (string, error) {
	start, err := ParseSlotID(startISO)
	if err != nil {
		return "", err
	}
	return start.Add(SlotLength).Format(SlotLayout), nil
}

// EnumerateDay lists the slot IDs of one day under the given settings,
// from dayStartHour to dayEndHour inclusive, ascending. A start hour past
// the end hour yields an empty day; that configuration is permitted.
func EnumerateDay(settings Settings, day time.Time) []string {
	var ids []string
	for hour := settings.DayStartHour; hour <= settings.DayEndHour; hour++ {
		ids = append(ids, SlotID(day, hour))
	}
	return ids
}

// Availability summarizes one day: how many of its enumerable slots are
// free versus occupied (booked or blocked).
type Availability struct {
	Free     int `json:"free"`
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}

// Ratio returns the free fraction of the day, 0 for an empty day.
func (a Availability) Ratio() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Free) / float64(a.Total)
}
