package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/service"
	"trainerbook/internal/storage"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the client-facing side: the calendar, the day
// panel, and the book/move/cancel intents keyed by booking code.
type BookingHandler struct {
	bookings      service.BookingService
	calendar      service.CalendarService
	timezoneLabel string
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings service.BookingService, calendar service.CalendarService, timezoneLabel string) *BookingHandler {
	return &BookingHandler{
		bookings:      bookings,
		calendar:      calendar,
		timezoneLabel: timezoneLabel,
	}
}

// --- Request/Response Structs ---

type CreateBookingRequest struct {
	Date   string `json:"date" binding:"required"`
	Hour   *int   `json:"hour" binding:"required,min=0,max=23"`
	Name   string `json:"name" binding:"required"`
	Remark string `json:"remark" binding:"max=200"`
}

type MoveBookingRequest struct {
	Date string `json:"date" binding:"required"`
	Hour *int   `json:"hour" binding:"required,min=0,max=23"`
}

// BookingResponse mirrors the booking entity. The code appears exactly
// once, in the CreateBooking response: it is the client's only way to
// manage the booking and is not recoverable afterwards.
type BookingResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Remark       string `json:"remark,omitempty"`
	StartISO     string `json:"startISO"`
	EndISO       string `json:"endISO"`
	CreatedAtISO string `json:"createdAtISO"`
	Code         string `json:"code,omitempty"`
}

func mapBookingToResponse(b *domain.Booking, includeCode bool) BookingResponse {
	resp := BookingResponse{
		ID:           b.ID,
		Name:         b.Name,
		Remark:       b.Remark,
		StartISO:     b.StartISO,
		EndISO:       b.EndISO,
		CreatedAtISO: b.CreatedAtISO,
	}
	if includeCode {
		resp.Code = b.Code
	}
	return resp
}

// --- Handler Methods ---

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), day, *req.Hour, req.Name, req.Remark)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapBookingToResponse(booking, true))
}

// GetBooking handles GET /bookings/:code, the manage-booking lookup.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookings.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapBookingToResponse(booking, false))
}

// MoveBooking handles POST /bookings/:code/move.
func (h *BookingHandler) MoveBooking(c *gin.Context) {
	var req MoveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	booking, err := h.bookings.Move(c.Request.Context(), c.Param("code"), day, *req.Hour)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapBookingToResponse(booking, false))
}

// CancelBooking handles DELETE /bookings/:code.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	if err := h.bookings.Cancel(c.Request.Context(), c.Param("code")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMonth handles GET /calendar/:year/:month.
func (h *BookingHandler) GetMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Year must be a number")
		return
	}
	monthNum, err := strconv.Atoi(c.Param("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		abortWithError(c, http.StatusBadRequest, "Month must be between 1 and 12")
		return
	}

	days, err := h.calendar.MonthAvailability(c.Request.Context(), year, time.Month(monthNum))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":     year,
		"month":    monthNum,
		"timezone": h.timezoneLabel,
		"days":     days,
	})
}

// GetDay handles GET /days/:date, the public day panel. Slot statuses are
// exposed but booking details are not; those belong to the trainer view.
func (h *BookingHandler) GetDay(c *gin.Context) {
	day, err := parseDate(c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	slots, err := h.calendar.DaySchedule(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Derive the counts from the same snapshot the slots came from; a
	// second load could observe a concurrent write and disagree.
	availability := domain.Availability{Total: len(slots)}
	for _, slot := range slots {
		if slot.Status == domain.SlotFree {
			availability.Free++
		}
	}
	availability.Occupied = availability.Total - availability.Free

	// Strip occupant details from the public view.
	for i := range slots {
		slots[i].Booking = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         day.Format(domain.DateLayout),
		"timezone":     h.timezoneLabel,
		"availability": availability,
		"slots":        slots,
	})
}

// --- Helpers ---

func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

// respondServiceError maps service and storage errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidName), errors.Is(err, service.ErrInvalidSettings):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBookingNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSlotTaken), errors.Is(err, service.ErrSlotBlocked):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrVersionConflict):
		abortWithError(c, http.StatusServiceUnavailable, "Schedule is busy, please retry")
	case errors.Is(err, storage.ErrUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "Schedule storage is unavailable")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
