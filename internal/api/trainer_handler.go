// internal/api/trainer_handler.go
package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/service"

	"github.com/gin-gonic/gin"
)

// TrainerHandler serves the PIN-gated trainer side: login, the day grid
// with booking details, block toggles, settings, and the CSV export.
type TrainerHandler struct {
	trainer           service.TrainerService
	calendar          service.CalendarService
	jwtSecret         string
	sessionExpiration time.Duration
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(trainer service.TrainerService, calendar service.CalendarService, jwtSecret string, sessionExpiration time.Duration) *TrainerHandler {
	return &TrainerHandler{
		trainer:           trainer,
		calendar:          calendar,
		jwtSecret:         jwtSecret,
		sessionExpiration: sessionExpiration,
	}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	Pin string `json:"pin" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ToggleBlockRequest struct {
	Date string `json:"date" binding:"required"`
	Hour *int   `json:"hour" binding:"required,min=0,max=23"`
}

type UpdateSettingsRequest struct {
	DayStartHour *int   `json:"dayStartHour" binding:"required"`
	DayEndHour   *int   `json:"dayEndHour" binding:"required"`
	TrainerPin   string `json:"trainerPin" binding:"required"`
}

type SettingsResponse struct {
	DayStartHour int    `json:"dayStartHour"`
	DayEndHour   int    `json:"dayEndHour"`
	TrainerPin   string `json:"trainerPin"`
}

// --- Handler Methods ---

// Login handles POST /trainer/login: PIN in, session token out.
func (h *TrainerHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ok, err := h.trainer.Authenticate(c.Request.Context(), req.Pin)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Wrong PIN")
		return
	}

	token, expiresAt, err := GenerateTrainerToken(h.jwtSecret, h.sessionExpiration)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not create session")
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// ToggleBlock handles POST /trainer/blocks. Blocking an already-booked
// slot is allowed; the day view shows the booking next to the block.
func (h *TrainerHandler) ToggleBlock(c *gin.Context) {
	var req ToggleBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	blocked, err := h.trainer.ToggleBlock(c.Request.Context(), day, *req.Hour)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot":    domain.SlotID(day, *req.Hour),
		"blocked": blocked,
	})
}

// UpdateSettings handles PUT /trainer/settings.
func (h *TrainerHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	settings, err := h.trainer.UpdateSettings(c.Request.Context(), *req.DayStartHour, *req.DayEndHour, req.TrainerPin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SettingsResponse{
		DayStartHour: settings.DayStartHour,
		DayEndHour:   settings.DayEndHour,
		TrainerPin:   settings.TrainerPin,
	})
}

// GetDaySchedule handles GET /trainer/days/:date: the full day grid with
// booking names, remarks and codes per slot.
func (h *TrainerHandler) GetDaySchedule(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"date":  day.Format(domain.DateLayout),
		"slots": slots,
	})
}

// ExportDayCSV handles GET /trainer/days/:date/export: the day's bookings
// as a CSV download with columns Date, Start, End, Client, Remark, Code.
func (h *TrainerHandler) ExportDayCSV(c *gin.Context) {
	day, err := parseDate(c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}

	bookings, err := h.calendar.DayBookings(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-schedule.csv", day.Format(domain.DateLayout))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	// csv.Writer holds its first error until Flush, so one check at the
	// end covers the header and every row.
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Date", "Start", "End", "Client", "Remark", "Code"})
	for _, b := range bookings {
		start, err := domain.ParseSlotID(b.StartISO)
		if err != nil {
			continue
		}
		end, err := domain.ParseSlotID(b.EndISO)
		if err != nil {
			continue
		}
		_ = w.Write([]string{
			start.Format(domain.DateLayout),
			start.Format(domain.ClockLayout),
			end.Format(domain.ClockLayout),
			b.Name,
			b.Remark,
			b.Code,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(fmt.Errorf("write csv export: %w", err))
	}
}
