package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/service"
	"trainerbook/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore(domain.Settings{DayStartHour: 6, DayEndHour: 21, TrainerPin: "1234"})
	logger := zap.NewNop()

	router := gin.New()
	SetupRoutes(router,
		testJWTSecret,
		time.Hour,
		"Asia/Singapore",
		service.NewBookingService(store, logger),
		service.NewTrainerService(store, logger),
		service.NewCalendarService(store),
	)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func trainerHeaders(t *testing.T, router *gin.Engine) map[string]string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/trainer/login", gin.H{"pin": "1234"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return map[string]string{"Authorization": "Bearer " + resp.Token}
}

func TestCreateBookingEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 9, "name": "Alex Tan", "remark": "knee rehab"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2025-06-10T09:00:00", resp.StartISO)
	assert.Equal(t, "2025-06-10T10:00:00", resp.EndISO)
	assert.Regexp(t, `^[A-Z0-9]{3}-[A-Z0-9]{3}$`, resp.Code)

	// Same slot again conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 9, "name": "Jamie Lee"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	// Missing name.
	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad date.
	w = doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "10/06/2025", "hour": 9, "name": "Alex"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Hour out of range stopped by binding.
	w = doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 24, "name": "Alex"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManageBookingEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 9, "name": "Alex Tan"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Lookup by code works case-insensitively and does not echo the code.
	w = doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+strings.ToLower(created.Code), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Empty(t, fetched.Code)

	// Move.
	w = doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+created.Code+"/move",
		gin.H{"date": "2025-06-12", "hour": 14}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var moved BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, "2025-06-12T14:00:00", moved.StartISO)

	// Cancel, then the code is gone.
	w = doJSON(t, router, http.MethodDelete, "/api/v1/bookings/"+created.Code, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/v1/bookings/"+created.Code, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicDayViewHidesBookingDetails(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 9, "name": "Alex Tan"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/days/2025-06-10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Date     string             `json:"date"`
		Timezone string             `json:"timezone"`
		Slots    []service.SlotView `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Asia/Singapore", resp.Timezone)
	require.Len(t, resp.Slots, 16)

	for _, slot := range resp.Slots {
		assert.Nil(t, slot.Booking, "public view must not expose bookings")
	}
	assert.Equal(t, domain.SlotBooked, resp.Slots[3].Status)

	// The occupant's name and code never appear in the payload.
	assert.NotContains(t, w.Body.String(), "Alex Tan")
}

func TestPublicDayViewCountsMatchSlots(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings",
		gin.H{"date": "2025-06-10", "hour": 9, "name": "Alex Tan"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/days/2025-06-10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Availability domain.Availability `json:"availability"`
		Slots        []service.SlotView  `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// The counts come from the same snapshot as the slot list, so they
	// must agree with it exactly.
	free := 0
	for _, slot := range resp.Slots {
		if slot.Status == domain.SlotFree {
			free++
		}
	}
	assert.Equal(t, len(resp.Slots), resp.Availability.Total)
	assert.Equal(t, free, resp.Availability.Free)
	assert.Equal(t, len(resp.Slots)-free, resp.Availability.Occupied)
	assert.Equal(t, domain.Availability{Free: 15, Occupied: 1, Total: 16}, resp.Availability)
}

func TestMonthCalendarEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/calendar/2025/6", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Year  int                            `json:"year"`
		Month int                            `json:"month"`
		Days  map[string]domain.Availability `json:"days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2025, resp.Year)
	assert.Len(t, resp.Days, 30)
	assert.Equal(t, 16, resp.Days["2025-06-10"].Total)

	w = doJSON(t, router, http.MethodGet, "/api/v1/calendar/2025/13", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
