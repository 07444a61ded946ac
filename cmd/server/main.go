package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anonto42/mitaina/backend/internal/handlers"
	"github.com/anonto42/mitaina/backend/internal/router"
	"github.com/anonto42/mitaina/backend/pkg/config"
	"github.com/anonto42/mitaina/backend/pkg/firebase"
	"github.com/anonto42/mitaina/backend/pkg/logging"
)

const sweepInterval = 10 * time.Minute

func main() {
	logger := logging.New(os.Getenv("ENV"))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading configuration failed", "error", err)
		os.Exit(1)
	}
	logger = logging.New(cfg.Env)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Error("initializing databases failed", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	// Initialize Firebase. Without credentials only Firebase login is disabled.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	var verifier handlers.IDTokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		verifier = firebaseApp.AuthClient
	case errors.Is(err, firebase.ErrNotConfigured):
		logger.Info("FIREBASE_CREDENTIALS_PATH not set, Firebase login disabled")
	default:
		logger.Error("initializing Firebase failed", "error", err)
		os.Exit(1)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	router.SetupMiddleware(e, cfg, logger)
	limiters, err := router.SetupRoutes(e, router.Dependencies{
		Config:       cfg,
		SQL:          db.SQL,
		Mongo:        db.Mongo,
		FirebaseAuth: verifier,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("setting up routes failed", "error", err)
		os.Exit(1)
	}
	for _, l := range limiters {
		go l.RunSweeper(ctx, sweepInterval)
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server forced to shutdown", "error", err)
	}
	logger.Info("server exiting")
}
