package service

import (
	"context"
	"sort"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/storage"
)

// SlotView is one slot of a day as the calendar renders it. Booking is
// populated only when the slot is occupied by one.
type SlotView struct {
	Hour     int               `json:"hour"`
	StartISO string            `json:"startISO"`
	EndISO   string            `json:"endISO"`
	Status   domain.SlotStatus `json:"status"`
	Booking  *domain.Booking   `json:"booking,omitempty"`
}

// CalendarService is the read side: availability summaries and day views
// derived from one snapshot. Projections have no re-fetch requirement and
// may serve from the store's read cache.
type CalendarService interface {
	MonthAvailability(ctx context.Context, year int, month time.Month) (map[string]domain.Availability, error)
	DayAvailability(ctx context.Context, day time.Time) (domain.Availability, error)
	DaySchedule(ctx context.Context, day time.Time) ([]SlotView, error)
	DayBookings(ctx context.Context, day time.Time) ([]domain.Booking, error)
}

type calendarService struct {
	store storage.ScheduleStore
}

// NewCalendarService creates a new instance of calendarService.
func NewCalendarService(store storage.ScheduleStore) CalendarService {
	return &calendarService{store: store}
}

// MonthAvailability summarizes every day of the month, keyed by date
// (YYYY-MM-DD), for the calendar grid's availability bars.
func (s *calendarService) MonthAvailability(ctx context.Context, year int, month time.Month) (map[string]domain.Availability, error) {
	schedule, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make(map[string]domain.Availability)
	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		days[day.Format(domain.DateLayout)] = schedule.DayAvailability(day)
	}
	return days, nil
}

func (s *calendarService) DayAvailability(ctx context.Context, day time.Time) (domain.Availability, error) {
	schedule, err := s.store.Load(ctx)
	if err != nil {
		return domain.Availability{}, err
	}
	return schedule.DayAvailability(day), nil
}

// DaySchedule lists the day's enumerable slots in order with their status
// and any occupying booking, for the public day panel and the trainer's
// day grid.
func (s *calendarService) DaySchedule(ctx context.Context, day time.Time) ([]SlotView, error) {
	schedule, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	ids := domain.EnumerateDay(schedule.Settings, day)
	views := make([]SlotView, 0, len(ids))
	for _, id := range ids {
		start, err := domain.ParseSlotID(id)
		if err != nil {
			return nil, err
		}
		end, err := domain.SlotEnd(id)
		if err != nil {
			return nil, err
		}
		view := SlotView{
			Hour:     start.Hour(),
			StartISO: id,
			EndISO:   end,
			Status:   schedule.Status(id),
		}
		if b := schedule.BookingAt(id); b != nil {
			booking := *b
			view.Booking = &booking
		}
		views = append(views, view)
	}
	return views, nil
}

// DayBookings returns the day's bookings ordered by start time, feeding
// the trainer day view and the CSV export.
func (s *calendarService) DayBookings(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	schedule, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	prefix := day.Format(domain.DateLayout)
	var bookings []domain.Booking
	for _, b := range schedule.Bookings {
		if len(b.StartISO) >= len(prefix) && b.StartISO[:len(prefix)] == prefix {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartISO < bookings[j].StartISO
	})
	return bookings, nil
}
