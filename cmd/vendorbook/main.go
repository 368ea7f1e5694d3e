package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendorbook/internal/infra/config"
	ginserver "vendorbook/internal/infra/http/gin"
	"vendorbook/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLogger := obs.NewLogger(os.Getenv("APP_ENV"), slog.LevelInfo)
	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Warn("dotenv load failed", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if err := app.loadListingFixtures(ctx, fixturesPath(cfg.ListingsFixtures), logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err)
	}
	app.startBackground(ctx, cfg, logger)

	limiter := obs.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if limiter != nil {
		go sweepLimiter(ctx, limiter)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: obs.PingReady(2*time.Second, app.pings...),
	}, limiter, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "kafka", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	app.wait()
	logger.Info("HTTP server stopped")
}

func sweepLimiter(ctx context.Context, limiter *obs.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
