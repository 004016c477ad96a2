package application

import (
	"context"

	"go.uber.org/zap"

	"stocktracker-service/internal/domain"
)

// QuoteResolver resolves a batch of tickers through the fallback chain:
// fresh cache, live provider, mock table, stale cache, unavailable.
type QuoteResolver struct {
	live  PriceFetcher
	mock  PriceFetcher
	cache CacheStore[domain.Quote]
	pacer *Pacer
	log   *zap.Logger
}

type ResolverOption func(*QuoteResolver)

// WithMockFallback enables the static table tier.
func WithMockFallback(m PriceFetcher) ResolverOption {
	return func(r *QuoteResolver) { r.mock = m }
}

// WithPacer sets the spacing applied before every live call after the first
// symbol of a batch.
func WithPacer(p *Pacer) ResolverOption { return func(r *QuoteResolver) { r.pacer = p } }

func WithResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *QuoteResolver) { r.log = l }
}

func NewQuoteResolver(live PriceFetcher, cache CacheStore[domain.Quote], opts ...ResolverOption) *QuoteResolver {
	r := &QuoteResolver{live: live, cache: cache}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// batch holds per-request state. A rate limit seen earlier in the batch
// relaxes the cache check for the remaining symbols.
type batch struct {
	rateLimited bool
}

// Resolve returns one quote per distinct normalized symbol. The only error is
// ErrBadRequest for an empty list; per-symbol failures degrade to fallbacks.
func (r *QuoteResolver) Resolve(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	syms := domain.NormalizeSymbols(symbols)
	if len(syms) == 0 {
		return nil, ErrBadRequest
	}
	out := make(map[string]domain.Quote, len(syms))
	var b batch
	for i, sym := range syms {
		out[sym] = r.resolveOne(ctx, sym, i, &b)
	}
	return out, nil
}

func (r *QuoteResolver) resolveOne(ctx context.Context, sym string, idx int, b *batch) domain.Quote {
	if e, ok := r.cache.Get(ctx, sym); ok && e.Value.Price != nil && (!e.Value.Stale || b.rateLimited) {
		return e.Value
	}

	err := r.throttle(ctx, idx)
	var res domain.PriceResult
	if err == nil {
		res, err = r.live.FetchPrice(ctx, sym)
	}
	if err == nil {
		q := domain.NewQuote(sym, res, domain.SourceLive, false)
		r.cache.Set(ctx, sym, q)
		return q
	}
	b.rateLimited = true
	r.log.Warn("quote.live_failed",
		zap.String("symbol", sym),
		zap.Bool("rate_limited", domain.IsRateLimited(err)),
		zap.Error(err))

	if r.mock != nil {
		if res, merr := r.mock.FetchPrice(ctx, sym); merr == nil {
			q := domain.NewQuote(sym, res, domain.SourceMockFallback, true)
			r.cache.Set(ctx, sym, q)
			return q
		}
	}

	if e, ok := r.cache.Peek(ctx, sym); ok && e.Value.Price != nil {
		q := e.Value
		q.Stale = true
		return q
	}

	r.log.Info("quote.unavailable", zap.String("symbol", sym))
	return domain.UnavailableQuote(sym)
}

func (r *QuoteResolver) throttle(ctx context.Context, idx int) error {
	if idx == 0 {
		r.pacer.Touch()
		return nil
	}
	if err := r.pacer.Wait(ctx); err != nil {
		return domain.ClassifyFetchError("throttle", err)
	}
	return nil
}
