package application

import (
	"context"

	"stocktracker-service/internal/domain"
)

// PriceFetcher is a single price source. Errors wrap the domain fetch taxonomy.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (domain.PriceResult, error)
}

type BarsProvider interface {
	Bars(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error)
}

// DailySeriesProvider returns daily closes ordered oldest to newest.
type DailySeriesProvider interface {
	DailyCloses(ctx context.Context, symbol string) ([]float64, error)
}

type InfoProvider interface {
	Info(ctx context.Context, symbol string) (domain.Info, error)
}

type HoldingRepo interface {
	List(ctx context.Context) ([]domain.Holding, error)
	Upsert(ctx context.Context, h domain.Holding) (domain.Holding, error)
	Delete(ctx context.Context, symbol string) error
}

type TransactionRepo interface {
	List(ctx context.Context) ([]domain.Transaction, error)
	Append(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
}

// WatchlistStore persists the client state document.
type WatchlistStore interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, st domain.State) error
}
