package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/config"
	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/cache"
	infraconfig "stocktracker-service/internal/infrastructure/config"
	"stocktracker-service/internal/infrastructure/httpx"
	"stocktracker-service/internal/infrastructure/pg"
	"stocktracker-service/internal/infrastructure/provider"
	redisstore "stocktracker-service/internal/infrastructure/redis"
	"stocktracker-service/internal/infrastructure/sqlite"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Ledger is the persistent portfolio storage selected by STORAGE.
type Ledger struct {
	Holdings     application.HoldingRepo
	Transactions application.TransactionRepo
	Ping         func(ctx context.Context) error
}

// Caches are the three cache tiers shared by the resolvers.
type Caches struct {
	Quotes application.CacheStore[domain.Quote]
	Spark  application.CacheStore[[]float64]
	Query  application.CacheStore[json.RawMessage]
}

// Providers groups the upstream data sources.
type Providers struct {
	Live   application.PriceFetcher
	Mock   *provider.MockTable
	Bars   application.BarsProvider
	Info   application.InfoProvider
	Daily  application.DailySeriesProvider
	Scrape application.PriceFetcher
}

func ProvideLedger(ctx context.Context, log *zap.Logger, cfg config.Config) (Ledger, func(), error) {
	switch cfg.Storage {
	case "pg":
		if cfg.DatabaseURL == "" {
			return Ledger{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Ledger{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Ledger{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Ledger{
			Holdings:     pg.NewHoldingRepo(db),
			Transactions: pg.NewTransactionRepo(db),
			Ping:         db.Ping,
		}, cleanup, nil
	case "", "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return Ledger{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing sqlite")
			_ = db.Close()
		}
		return Ledger{
			Holdings:     sqlite.NewHoldingRepo(db),
			Transactions: sqlite.NewTransactionRepo(db),
			Ping:         db.Ping,
		}, cleanup, nil
	default:
		return Ledger{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

// ProvideRedisClient returns nil when neither the caches nor idempotency use redis.
func ProvideRedisClient(cfg config.Config) (*redis.Client, func()) {
	if cfg.CacheBackend != "redis" && cfg.IdempotencyBackend != "redis" {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }
}

func ProvideCaches(client *redis.Client, log *zap.Logger, cfg config.Config) (Caches, error) {
	switch cfg.CacheBackend {
	case "redis":
		return Caches{
			Quotes: redisstore.NewCache[domain.Quote](client, "quote", application.QuoteTTL, cfg.CacheRetention, log),
			Spark:  redisstore.NewCache[[]float64](client, "spark", application.SparklineTTL, cfg.CacheRetention, log),
			Query:  redisstore.NewCache[json.RawMessage](client, "query", application.QueryTTL, cfg.CacheRetention, log),
		}, nil
	case "", "memory":
		return Caches{
			Quotes: cache.NewTTL[domain.Quote](application.QuoteTTL, nil),
			Spark:  cache.NewTTL[[]float64](application.SparklineTTL, nil),
			Query:  cache.NewTTL[json.RawMessage](application.QueryTTL, nil),
		}, nil
	default:
		return Caches{}, fmt.Errorf("unsupported CACHE_BACKEND=%q", cfg.CacheBackend)
	}
}

func ProvideIdempotency(client *redis.Client, cfg config.Config) application.IdempotencyStore {
	if cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}
	}
	return redisstore.New(client, cfg.IdempotencyTTL)
}

func ProvideProviders(log *zap.Logger, cfg config.Config) (Providers, error) {
	hc := httpx.New(cfg.ProviderTimeout, infraconfig.DefaultUserAgent)

	yahoo := &provider.YahooProvider{
		BaseURL:  cfg.YahooBaseURL,
		Client:   hc,
		Cooldown: cfg.RateLimitCooldown,
		Log:      log.Named("yahoo"),
	}
	av := &provider.AlphaVantageProvider{
		BaseURL:    cfg.AlphaVantageURL,
		APIKey:     cfg.AlphaVantageAPIKey,
		Client:     hc,
		Backoff:    infraconfig.DefaultAVBackoff,
		MaxRetries: infraconfig.DefaultMaxRetries,
		Log:        log.Named("alphavantage"),
	}

	fetchers := []application.PriceFetcher{yahoo}
	if av.Enabled() {
		fetchers = append(fetchers, av)
	}

	mock := provider.DefaultMockTable()
	if cfg.MockTablePath != "" {
		m, err := provider.LoadMockTable(cfg.MockTablePath)
		if err != nil {
			return Providers{}, err
		}
		mock = m
	}

	return Providers{
		Live:   &provider.Chain{Fetchers: fetchers, Log: log.Named("chain")},
		Mock:   mock,
		Bars:   yahoo,
		Info:   yahoo,
		Daily:  av,
		Scrape: &provider.ScrapeProvider{PageURL: "https://finance.yahoo.com/quote/", Client: hc, Log: log.Named("scrape")},
	}, nil
}
