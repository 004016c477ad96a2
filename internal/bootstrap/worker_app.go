package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/config"
	"stocktracker-service/internal/infrastructure/worker"
)

// ProvideWarmer returns the cache warmer for the app's watchlist.
func ProvideWarmer(app *App, log *zap.Logger) application.Worker {
	return &worker.Warmer{
		Quotes:    app.Services.Quotes,
		Watchlist: app.Services.Watchlist,
		Schedule:  app.Config.WarmSchedule,
		Log:       log.Named("warmer"),
	}
}

// InitWorker wires a standalone warmer. It is only useful with CACHE_BACKEND=redis,
// otherwise the warmed entries live in this process alone.
func InitWorker(ctx context.Context, log *zap.Logger, cfg config.Config) (application.Worker, func(), error) {
	if cfg.CacheBackend != "redis" {
		log.Warn("worker_local_cache", zap.String("cache_backend", cfg.CacheBackend))
	}
	app, cleanup, err := InitApp(ctx, log, cfg)
	if err != nil {
		return nil, func() {}, err
	}
	return ProvideWarmer(app, log), cleanup, nil
}
