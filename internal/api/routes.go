package api

import (
	"net/http"
	"time"

	"trainerbook/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the public booking surface and the PIN-gated trainer
// surface onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	sessionExpiration time.Duration,
	timezoneLabel string,
	bookingService service.BookingService,
	trainerService service.TrainerService,
	calendarService service.CalendarService,
) {
	bookingHandler := NewBookingHandler(bookingService, calendarService, timezoneLabel)
	trainerHandler := NewTrainerHandler(trainerService, calendarService, jwtSecret, sessionExpiration)

	trainerAuth := TrainerAuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// Public: calendar, day panel, and code-keyed self service. The
		// booking code itself is the credential on these routes.
		apiV1.GET("/calendar/:year/:month", bookingHandler.GetMonth)
		apiV1.GET("/days/:date", bookingHandler.GetDay)

		bookingGroup := apiV1.Group("/bookings")
		{
			bookingGroup.POST("", bookingHandler.CreateBooking)
			bookingGroup.GET("/:code", bookingHandler.GetBooking)
			bookingGroup.POST("/:code/move", bookingHandler.MoveBooking)
			bookingGroup.DELETE("/:code", bookingHandler.CancelBooking)
		}

		trainerGroup := apiV1.Group("/trainer")
		{
			trainerGroup.POST("/login", trainerHandler.Login)

			protected := trainerGroup.Group("")
			protected.Use(trainerAuth)
			{
				protected.GET("/days/:date", trainerHandler.GetDaySchedule)
				protected.GET("/days/:date/export", trainerHandler.ExportDayCSV)
				protected.POST("/blocks", trainerHandler.ToggleBlock)
				protected.PUT("/settings", trainerHandler.UpdateSettings)
			}
		}
	}
}
