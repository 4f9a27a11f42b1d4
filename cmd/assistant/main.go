// cmd/assistant/main.go
package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smartstore-assistant/internal/common/config"
	"smartstore-assistant/internal/common/database"
	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/gateway"
	"smartstore-assistant/internal/server"
	"smartstore-assistant/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting application assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- Init Redis snapshot cache (optional) ---
	var redisClient *database.RedisClient
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedis(cfg.Redis)
		if err == nil {
			err = redisClient.Ping(ctx)
		}
		if err != nil {
			zapLog.Warn("redis unavailable, snapshot cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init local store ---
	st, err := store.New(cfg.Storage.DataDir, log)
	if err != nil {
		zapLog.Fatal("local store init failed", zap.Error(err))
	}

	// --- Init sheet gateway ---
	gw, err := gateway.New(cfg.Sheet, cfg.Sync, redisClient, log)
	if err != nil {
		zapLog.Fatal("gateway init failed", zap.Error(err))
	}
	defer gw.Close()

	// Initial snapshot pull. A failure is not fatal; the assistant runs
	// on whatever reference data it has and retries on history entry.
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Sheet.Timeout())
	if err := gw.FetchSnapshot(fetchCtx); err != nil {
		zapLog.Warn("initial snapshot fetch failed", zap.Error(err))
	}
	cancel()

	// --- HTTP Server ---
	srv := server.New(*cfg, st, gw, log)
	httpServer := &http.Server{
		Addr:         srv.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Application assistant stopped gracefully")
}
