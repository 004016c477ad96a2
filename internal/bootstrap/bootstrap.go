package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/config"
	"stocktracker-service/internal/infrastructure/filestore"
	httpserver "stocktracker-service/internal/infrastructure/http"
)

// App is the fully wired object graph shared by the api and worker binaries.
type App struct {
	Config    config.Config
	Services  httpserver.Services
	Server    *httpserver.Server
	Providers Providers
}

// cleanups runs registered closers in reverse order.
type cleanups []func()

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// InitApp builds storage, caches, providers and use cases from cfg. The
// returned cleanup releases every connection that was opened.
func InitApp(ctx context.Context, log *zap.Logger, cfg config.Config) (*App, func(), error) {
	var closers cleanups

	ledger, closeLedger, err := ProvideLedger(ctx, log, cfg)
	if err != nil {
		return nil, func() {}, err
	}
	closers = append(closers, closeLedger)

	client, closeRedis := ProvideRedisClient(cfg)
	closers = append(closers, closeRedis)

	caches, err := ProvideCaches(client, log.Named("cache"), cfg)
	if err != nil {
		closers.run()
		return nil, func() {}, err
	}
	providers, err := ProvideProviders(log, cfg)
	if err != nil {
		closers.run()
		return nil, func() {}, err
	}

	svc := ProvideServices(log, cfg, ledger, caches, providers, ProvideIdempotency(client, cfg))

	srv := httpserver.NewServer(svc, log.Named("http"))
	srv.SetReadyCheck(ledger.Ping)
	if !cfg.IsProd() {
		srv.EnableScrapeDebug(providers.Scrape)
	}

	app := &App{Config: cfg, Services: svc, Server: srv, Providers: providers}
	return app, closers.run, nil
}

func ProvideServices(log *zap.Logger, cfg config.Config, ledger Ledger, caches Caches, p Providers, idem application.IdempotencyStore) httpserver.Services {
	opts := []application.ResolverOption{
		application.WithPacer(application.NewPacer(cfg.Throttle, nil)),
		application.WithResolverLogger(log.Named("quotes")),
	}
	if cfg.MockFallback {
		opts = append(opts, application.WithMockFallback(p.Mock))
	}
	series := application.NewSeriesResolver(p.Bars, p.Info, caches.Spark, caches.Query,
		application.WithDailySeries(p.Daily),
		application.WithSeriesLogger(log.Named("series")),
	)
	return httpserver.Services{
		Quotes:    application.NewQuoteResolver(p.Live, caches.Quotes, opts...),
		Series:    series,
		Forecast:  application.NewForecastService(series),
		Portfolio: application.NewPortfolioService(ledger.Holdings, ledger.Transactions, application.WithIdempotency(idem)),
		Watchlist: application.NewWatchlistService(filestore.NewWatchlist(cfg.WatchlistPath)),
	}
}
