package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/medremind/reminder-api/internal/auth"
	"github.com/medremind/reminder-api/internal/config"
	"github.com/medremind/reminder-api/internal/email"
	"github.com/medremind/reminder-api/internal/es"
	"github.com/medremind/reminder-api/internal/events"
	"github.com/medremind/reminder-api/internal/handlers"
	"github.com/medremind/reminder-api/internal/httpserver"
	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/middleware/authmw"
	"github.com/medremind/reminder-api/internal/middleware/loggingmw"
	"github.com/medremind/reminder-api/internal/service"
	"github.com/medremind/reminder-api/internal/service/search"
	"github.com/medremind/reminder-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := cfg.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer([]string{cfg.KafkaAddress})
	}

	esClient, err := es.NewClient(es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
	if err != nil {
		logger.Warn("elasticsearch unavailable, medication search disabled", "error", err)
		esClient = nil
	}

	userStore := store.NewGormUserStore(db)
	signer := auth.NewSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)
	refresh := auth.NewRefreshManager(userStore)
	sender := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	sessions := auth.NewService(userStore, signer, refresh, sender, cfg.FrontendURL)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := &httpserver.Deps{
		Auth:      &handlers.AuthHandler{Svc: sessions, Producer: producer},
		Admin:     &handlers.AdminHandler{Store: userStore},
		Caregiver: &handlers.CaregiverHandler{Svc: &service.CaregiverService{DB: db}},
		Medication: &handlers.MedicationHandler{
			Svc:      &service.MedicationService{DB: db},
			DoseSvc:  &service.DoseLogService{DB: db},
			Producer: producer,
			ES:       esClient,
			Index:    search.MedicationIndex,
		},
		Patient: &handlers.PatientHandler{Svc: &service.PatientService{DB: db}},
		Search:  &handlers.SearchHandler{ES: esClient, Index: search.MedicationIndex},
		Guard:   authmw.NewGuard(signer),
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
