package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stocktracker-service/internal/bootstrap"
	"stocktracker-service/internal/config"
	infraconfig "stocktracker-service/internal/infrastructure/config"
	httpserver "stocktracker-service/internal/infrastructure/http"
	"stocktracker-service/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg := config.Load()
	port := cfg.Port
	if port == "" {
		port = infraconfig.DefaultHTTPPort
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.InitApp(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()

	// With a shared redis cache the warmer runs in cmd/worker instead.
	if cfg.CacheBackend != "redis" {
		go bootstrap.ProvideWarmer(app, logger).Start(ctx)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(app.Server, cfg.RequestTimeout),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("storage", cfg.Storage), zap.String("cache", cfg.CacheBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
