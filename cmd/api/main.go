package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appointmentHandler "github.com/turchettamarco/gestionale-fisio-sub002/internal/handler/appointment"
	availabilityHandler "github.com/turchettamarco/gestionale-fisio-sub002/internal/handler/availability"
	exportHandler "github.com/turchettamarco/gestionale-fisio-sub002/internal/handler/export"
	healthHandler "github.com/turchettamarco/gestionale-fisio-sub002/internal/handler/health"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/config"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/middleware"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/repository/postgres"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/router"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/drag"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/timegrid"
	appointmentService "github.com/turchettamarco/gestionale-fisio-sub002/internal/service/appointment"
	exportService "github.com/turchettamarco/gestionale-fisio-sub002/internal/service/export"
	settingsService "github.com/turchettamarco/gestionale-fisio-sub002/internal/service/settings"
	"github.com/turchettamarco/gestionale-fisio-sub002/pkg/logger"
	"github.com/turchettamarco/gestionale-fisio-sub002/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	ownerID, err := uuid.Parse(cfg.Practice.OwnerID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid practice owner id")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	patientRepo := postgres.NewPatientRepository(db)

	// Domain metrics
	m := metrics.NewMetrics("fisio")

	window := timegrid.Window{
		StartHour: cfg.Scheduling.WindowStartHour,
		EndHour:   cfg.Scheduling.WindowEndHour,
	}

	// Services
	settingsSvc := settingsService.NewService(settingsRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, settingsSvc, window, ownerID, m)
	exportSvc := exportService.NewService(appointmentSvc, appointmentRepo, patientRepo, cfg.Export.WhatsappTemplate, m)

	rescheduler := drag.New(appointmentRepo, drag.Config{
		Window:      window,
		Granularity: time.Duration(cfg.Scheduling.DragGranularityMinutes) * time.Minute,
	})

	// Handlers
	apptH := appointmentHandler.NewHandler(appointmentSvc, rescheduler)
	availH := availabilityHandler.NewHandler(appointmentSvc)
	expH := exportHandler.NewHandler(exportSvc)
	healthH := healthHandler.NewHandler(db)

	r := router.NewRouter(apptH, availH, expH, healthH, router.RouterConfig{
		RateLimit: middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "fisio_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
