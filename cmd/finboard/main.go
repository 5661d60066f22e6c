package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	stack, err := backend.NewStack(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backends", log.FieldError, err)
		os.Exit(1)
	}

	refresher := worker.NewForecastRefresher(stack.Forecast, worker.RefresherConfig{
		Interval: cfg.ForecastRefreshInterval,
	}, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:         stack.Auth,
		Transactions: stack.Transactions,
		Categories:   stack.Categories,
		Budgets:      stack.Budgets,
		Dashboard:    stack.Dashboard,
		Forecast:     stack.Forecast,
		Refresher:    refresher,
	}, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.APITimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := refresher.Stop(ctx); err != nil {
			logger.Warn("Forecast refresher stop error", log.FieldError, err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := stack.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	// The refresher only starts once a forecast has loaded.
	stack.Forecast.OnLoaded(func() { refresher.Arm(ctx) })

	go func() {
		if err := stack.ListenForChanges(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Change listener stopped", log.FieldError, err)
		}
	}()

	logger.Info("Starting finboard server",
		"port", cfg.Port,
		"api", cfg.APIBaseURL,
		"cache_backend", cfg.CacheBackend,
		"session_backend", cfg.SessionBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
