package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"surveyassist/internal/app"
	"surveyassist/internal/config"
	"surveyassist/internal/definition"
	"surveyassist/internal/logging"
)

// @title Survey Assist API
// @version 1.0
// @description Survey flow engine with consent-gated classification follow-ups
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("started", "store", cfg.SessionStore, "results", cfg.ResultsEnabled)

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		var defErr *definition.DefinitionError
		if errors.As(err, &defErr) {
			for _, p := range defErr.Problems {
				logger.Error("survey definition problem", "path", cfg.DefinitionPath, "problem", p)
			}
		}
		logger.Error("failed to start", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		logger.Info("endpoints",
			"public", "POST /v1/sessions, POST /v1/auth/login",
			"respondent", "POST /v1/survey/start, GET /v1/survey/current, POST /v1/survey/answers, GET /v1/survey/summary",
			"operator", "GET /v1/results/{sessionId}, WS /v1/ws/monitor",
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ListenAndServe failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}

	logger.Info("server exited")
}
