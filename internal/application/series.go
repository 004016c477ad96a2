package application

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"stocktracker-service/internal/domain"
)

const sparklinePoints = 60

// SeriesResolver serves history, sparklines and listing info.
type SeriesResolver struct {
	bars  BarsProvider
	daily DailySeriesProvider
	info  InfoProvider
	spark CacheStore[[]float64]
	query CacheStore[json.RawMessage]
	log   *zap.Logger
}

type SeriesOption func(*SeriesResolver)

// WithDailySeries sets the provider tried first for sparklines.
func WithDailySeries(d DailySeriesProvider) SeriesOption {
	return func(s *SeriesResolver) { s.daily = d }
}

func WithSeriesLogger(l *zap.Logger) SeriesOption {
	return func(s *SeriesResolver) { s.log = l }
}

func NewSeriesResolver(bars BarsProvider, info InfoProvider, spark CacheStore[[]float64], query CacheStore[json.RawMessage], opts ...SeriesOption) *SeriesResolver {
	s := &SeriesResolver{bars: bars, info: info, spark: spark, query: query}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Sparkline returns at most the last 60 closes. Provider failure yields an
// empty series rather than an error.
func (s *SeriesResolver) Sparkline(ctx context.Context, symbol, period, interval string) (domain.Sparkline, error) {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return domain.Sparkline{}, ErrBadRequest
	}
	key := sym + "|" + period + "|" + interval
	if e, ok := s.spark.Get(ctx, key); ok {
		return domain.Sparkline{Symbol: sym, Closes: e.Value}, nil
	}

	var closes []float64
	if s.daily != nil {
		c, err := s.daily.DailyCloses(ctx, sym)
		if err != nil {
			s.log.Debug("sparkline.secondary_failed", zap.String("symbol", sym), zap.Error(err))
		}
		closes = c
	}
	if len(closes) == 0 {
		bars, err := s.bars.Bars(ctx, sym, period, interval)
		if err != nil {
			s.log.Warn("sparkline.primary_failed", zap.String("symbol", sym), zap.Error(err))
		}
		closes = domain.Closes(bars)
	}
	if len(closes) > sparklinePoints {
		closes = closes[len(closes)-sparklinePoints:]
	}
	if closes == nil {
		closes = []float64{}
	}
	if len(closes) > 0 {
		s.spark.Set(ctx, key, closes)
	}
	return domain.Sparkline{Symbol: sym, Closes: closes}, nil
}

// History returns OHLCV bars; failures yield an empty bar list.
func (s *SeriesResolver) History(ctx context.Context, symbol, period, interval string) (domain.History, error) {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return domain.History{}, ErrBadRequest
	}
	out := domain.History{Symbol: sym, Period: period, Interval: interval, Bars: []domain.Bar{}}
	key := "history|" + sym + "|" + period + "|" + interval
	if cachedJSON(ctx, s.query, key, &out.Bars) {
		return out, nil
	}
	bars, err := s.bars.Bars(ctx, sym, period, interval)
	if err != nil {
		s.log.Warn("history.fetch_failed", zap.String("symbol", sym), zap.Error(err))
		return out, nil
	}
	if len(bars) > 0 {
		out.Bars = bars
		storeJSON(ctx, s.query, key, bars)
	}
	return out, nil
}

// Info merges provider data over static metadata.
func (s *SeriesResolver) Info(ctx context.Context, symbol string) (domain.Info, error) {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return domain.Info{}, ErrBadRequest
	}
	key := "info|" + sym
	var out domain.Info
	if cachedJSON(ctx, s.query, key, &out) {
		return out, nil
	}
	out = staticInfo(sym)
	got, err := s.info.Info(ctx, sym)
	if err != nil {
		s.log.Warn("info.fetch_failed", zap.String("symbol", sym), zap.Error(err))
		return out, nil
	}
	mergeInfo(&out, got)
	storeJSON(ctx, s.query, key, out)
	return out, nil
}

func staticInfo(sym string) domain.Info {
	name := domain.DisplayName(sym)
	cur := domain.InferCurrency(sym)
	return domain.Info{Symbol: sym, ShortName: &name, Currency: &cur}
}

func mergeInfo(dst *domain.Info, src domain.Info) {
	if src.ShortName != nil {
		dst.ShortName = src.ShortName
	}
	if src.LongName != nil {
		dst.LongName = src.LongName
	}
	if src.Sector != nil {
		dst.Sector = src.Sector
	}
	if src.Industry != nil {
		dst.Industry = src.Industry
	}
	if src.MarketCap != nil {
		dst.MarketCap = src.MarketCap
	}
	if src.Currency != nil {
		dst.Currency = src.Currency
	}
}

func cachedJSON(ctx context.Context, c CacheStore[json.RawMessage], key string, dst any) bool {
	e, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(e.Value, dst) == nil
}

func storeJSON(ctx context.Context, c CacheStore[json.RawMessage], key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, b)
}
