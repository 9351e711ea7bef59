package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chatwire/push-bridge/internal/api"
	"github.com/chatwire/push-bridge/internal/config"
	"github.com/chatwire/push-bridge/internal/db"
	"github.com/chatwire/push-bridge/internal/dispatch"
	"github.com/chatwire/push-bridge/internal/metrics"
	"github.com/chatwire/push-bridge/internal/push"
	"github.com/chatwire/push-bridge/internal/resolver"
	"github.com/chatwire/push-bridge/internal/store"
	"github.com/chatwire/push-bridge/internal/sweeper"
	"github.com/chatwire/push-bridge/internal/tracker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := store.NewPgStore(pool)
	prov := push.NewHTTPProvider(cfg.PushEndpoint, cfg.PushAuthToken, cfg.PushTimeout)
	limiter := rate.NewLimiter(rate.Limit(cfg.SendRateLimit), cfg.SendRateLimit)
	res := resolver.New(st, logger)

	onSent, onFailed, onFanOut := m.DispatchHooks()
	engine := dispatch.NewEngine(res, prov, limiter, logger, dispatch.Hooks{
		OnSent:   onSent,
		OnFailed: onFailed,
		OnFanOut: onFanOut,
	})
	trk := tracker.New(st, engine, logger)
	sw := sweeper.New(st, cfg.Retention, cfg.SweepInterval, logger, m.SweepHook())

	// ---- background sweeper ----
	// Context for the sweeper goroutine; cancelled on shutdown signal.
	sweepCtx, cancelSweeper := context.WithCancel(ctx)
	defer cancelSweeper()
	go sw.Run(sweepCtx)

	// ---- HTTP server ----
	router := api.NewRouter(trk, engine, st, sw, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new event deliveries.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the sweeper.
	cancelSweeper()

	logger.Info("server stopped cleanly")
}
