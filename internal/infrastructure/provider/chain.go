package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

// Chain tries each fetcher in order and returns the first price. When all
// fail the result is RateLimited if any member was throttled, else NoData.
type Chain struct {
	Fetchers []application.PriceFetcher
	Log      *zap.Logger
}

var _ application.PriceFetcher = (*Chain)(nil)

func (c *Chain) FetchPrice(ctx context.Context, symbol string) (domain.PriceResult, error) {
	var errs []error
	for _, f := range c.Fetchers {
		res, err := f.FetchPrice(ctx, symbol)
		if err == nil {
			return res, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	joined := errors.Join(errs...)
	if c.Log != nil {
		c.Log.Debug("provider.chain_exhausted", zap.String("symbol", symbol), zap.Error(joined))
	}
	if domain.IsRateLimited(joined) {
		return domain.PriceResult{}, fmt.Errorf("chain: %v: %w", joined, domain.ErrRateLimited)
	}
	return domain.PriceResult{}, fmt.Errorf("chain: %v: %w", joined, domain.ErrNoData)
}
