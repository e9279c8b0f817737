package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trainerbook/internal/api"
	"trainerbook/internal/config"
	"trainerbook/internal/domain"
	"trainerbook/internal/service"
	"trainerbook/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	log.Println("Starting Trainer Booking Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger := newLogger(cfg.Env)
	defer logger.Sync()
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("storage_driver", cfg.Storage.Driver))

	defaults := domain.Settings{
		DayStartHour: cfg.Schedule.DayStartHour,
		DayEndHour:   cfg.Schedule.DayEndHour,
		TrainerPin:   cfg.Schedule.TrainerPin,
	}

	// --- Schedule Store ---
	store, cleanup, err := buildStore(cfg, defaults, logger)
	if err != nil {
		logger.Fatal("Could not initialize schedule store", zap.Error(err))
	}
	defer cleanup()

	// --- Services ---
	bookingService := service.NewBookingService(store, logger)
	trainerService := service.NewTrainerService(store, logger)
	calendarService := service.NewCalendarService(store)

	// --- HTTP ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		logger.Fatal("auth.jwt_secret must be set (AUTH_JWT_SECRET)")
	}

	api.SetupRoutes(router,
		jwtSecret,
		cfg.Auth.SessionExpiration,
		cfg.Schedule.TimezoneLabel,
		bookingService,
		trainerService,
		calendarService,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("Server starting", zap.String("address", cfg.Server.Address))

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting.")
}

// buildStore selects the schedule store backend from configuration and
// returns it with a cleanup function for whatever connection it holds.
func buildStore(cfg config.Config, defaults domain.Settings, logger *zap.Logger) (storage.ScheduleStore, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case "file":
		return storage.NewFileStore(cfg.Storage.Path, defaults, logger), noop, nil
	case "memory":
		return storage.NewMemoryStore(defaults), noop, nil
	case "mongo":
		client, err := storage.ConnectMongo(cfg.Database.URI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		cleanup := func() {
			if err := storage.DisconnectMongo(client); err != nil {
				logger.Error("Failed to disconnect MongoDB", zap.Error(err))
			}
		}
		db := client.Database(cfg.Database.Name)
		return storage.NewMongoStore(db, defaults, logger), cleanup, nil
	case "s3":
		store, err := storage.NewS3Store(cfg.S3, defaults, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newLogger(env string) *zap.Logger {
	var zapCfg zap.Config
	if env == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.OutputPaths = []string{"stdout"}

	logger, err := zapCfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}
