package domain

import "time"

// Settings is the singleton trainer configuration inside the schedule
// document. Start and end hours are inclusive bounds on the enumerable
// slots of any day; no ordering between them is enforced.
type Settings struct {
	DayStartHour int    `json:"dayStartHour" bson:"dayStartHour"`
	DayEndHour   int    `json:"dayEndHour" bson:"dayEndHour"`
	TrainerPin   string `json:"trainerPin" bson:"trainerPin"`
}

// Default operating window and PIN for a schedule that has never been saved.
const (
	DefaultDayStartHour = 6
	DefaultDayEndHour   = 21
	DefaultTrainerPin   = "1234"
)

// MaxPinLength bounds the trainer PIN; longer inputs are truncated.
const MaxPinLength = 8

func DefaultSettings() Settings {
	return Settings{
		DayStartHour: DefaultDayStartHour,
		DayEndHour:   DefaultDayEndHour,
		TrainerPin:   DefaultTrainerPin,
	}
}

// Schedule is the aggregate root: the whole scheduling state persisted and
// replaced as one document. Version is bumped by the storage layer on every
// successful compare-and-swap and is the optimistic-concurrency token.
type Schedule struct {
	Bookings []Booking `json:"bookings" bson:"bookings"`
	Blocked  []string  `json:"blocked" bson:"blocked"`
	Settings Settings  `json:"settings" bson:"settings"`
	Version  int64     `json:"version" bson:"version"`
}

// NewSchedule returns the state of a schedule that has never been persisted.
func NewSchedule(settings Settings) Schedule {
	return Schedule{
		Bookings: []Booking{},
		Blocked:  []string{},
		Settings: settings,
		Version:  0,
	}
}

// Clone returns a deep copy safe to mutate before a compare-and-swap.
func (s Schedule) Clone() Schedule {
	next := s
	next.Bookings = make([]Booking, len(s.Bookings))
	copy(next.Bookings, s.Bookings)
	next.Blocked = make([]string, len(s.Blocked))
	copy(next.Blocked, s.Blocked)
	return next
}

// IsBlocked reports whether the slot is in the trainer's blocked set.
func (s Schedule) IsBlocked(slotID string) bool {
	for _, b := range s.Blocked {
		if b == slotID {
			return true
		}
	}
	return false
}

// BookingAt returns the active booking occupying the slot, or nil.
func (s Schedule) BookingAt(slotID string) *Booking {
	for i := range s.Bookings {
		if s.Bookings[i].StartISO == slotID {
			return &s.Bookings[i]
		}
	}
	return nil
}

// BookingByCode finds a booking by its normalized code. The index is -1
// when no active booking matches.
func (s Schedule) BookingByCode(code string) (*Booking, int) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, -1
	}
	for i := range s.Bookings {
		if NormalizeCode(s.Bookings[i].Code) == normalized {
			return &s.Bookings[i], i
		}
	}
	return nil, -1
}

// HasCode reports whether any active booking already uses the code.
func (s Schedule) HasCode(code string) bool {
	_, i := s.BookingByCode(code)
	return i >= 0
}

// Status computes the slot's state against this snapshot. Blocked wins
// over booked: the trainer may block an already-booked slot, and the two
// states then coexist until the trainer resolves them.
func (s Schedule) Status(slotID string) SlotStatus {
	if s.IsBlocked(slotID) {
		return SlotBlocked
	}
	if s.BookingAt(slotID) != nil {
		return SlotBooked
	}
	return SlotFree
}

// DayAvailability counts free and occupied slots for one day. Both the
// blocked set and the bookings are read from this same snapshot, so the
// counts can never tear across the two.
func (s Schedule) DayAvailability(day time.Time) Availability {
	var occupied int
	ids := EnumerateDay(s.Settings, day)
	for _, id := range ids {
		if s.Status(id) != SlotFree {
			occupied++
		}
	}
	free := len(ids) - occupied
	if free < 0 {
		free = 0
	}
	return Availability{Free: free, Occupied: occupied, Total: len(ids)}
}
