package application

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"stocktracker-service/internal/domain"
)

const (
	tradingDays      = 252.0
	minForecastBars  = 30
	maxForecastPaths = 5000
	maxForecastDays  = 2520
)

type historySource interface {
	History(ctx context.Context, symbol, period, interval string) (domain.History, error)
}

// ForecastService projects price bands with a geometric Brownian motion fitted
// to two years of daily closes.
type ForecastService struct {
	history historySource
	seed    func() int64
}

type ForecastOption func(*ForecastService)

// WithSeed fixes the RNG seed, for reproducible output.
func WithSeed(seed int64) ForecastOption {
	return func(f *ForecastService) { f.seed = func() int64 { return seed } }
}

func NewForecastService(h historySource, opts ...ForecastOption) *ForecastService {
	f := &ForecastService{history: h}
	for _, opt := range opts {
		opt(f)
	}
	if f.seed == nil {
		f.seed = func() int64 { return time.Now().UnixNano() }
	}
	return f
}

func (f *ForecastService) Forecast(ctx context.Context, symbol string, paths, days int) (domain.Forecast, error) {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return domain.Forecast{}, ErrBadRequest
	}
	paths = clamp(paths, 1, maxForecastPaths)
	days = clamp(days, 1, maxForecastDays)

	h, err := f.history.History(ctx, sym, "2y", "1d")
	if err != nil {
		return domain.Forecast{}, err
	}
	prices := make([]float64, 0, len(h.Bars))
	for _, b := range h.Bars {
		if b.C > 0 {
			prices = append(prices, b.C)
		}
	}
	if len(prices) < minForecastBars {
		return domain.Forecast{}, ErrNotEnoughHistory
	}

	mu, sigma := fitGBM(prices)
	s0 := prices[len(prices)-1]
	rng := rand.New(rand.NewSource(f.seed()))

	const dt = 1.0 / tradingDays
	drift := (mu - 0.5*sigma*sigma) * dt
	vol := sigma * math.Sqrt(dt)

	cur := make([]float64, paths)
	for i := range cur {
		cur[i] = s0
	}
	out := domain.Forecast{
		Symbol: sym, S0: s0, Mu: mu, Sigma: sigma, Days: days, Paths: paths,
		P10: make([]float64, 0, days+1),
		P50: make([]float64, 0, days+1),
		P90: make([]float64, 0, days+1),
	}
	sorted := make([]float64, paths)
	for step := 0; step <= days; step++ {
		if step > 0 {
			for i := range cur {
				cur[i] *= math.Exp(drift + vol*rng.NormFloat64())
			}
		}
		copy(sorted, cur)
		sort.Float64s(sorted)
		out.P10 = append(out.P10, percentile(sorted, 10))
		out.P50 = append(out.P50, percentile(sorted, 50))
		out.P90 = append(out.P90, percentile(sorted, 90))
	}
	return out, nil
}

// fitGBM returns annualized drift and volatility of log returns. Volatility
// uses the population standard deviation.
func fitGBM(prices []float64) (mu, sigma float64) {
	n := len(prices) - 1
	rets := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		rets[i] = math.Log(prices[i+1] / prices[i])
		sum += rets[i]
	}
	mean := sum / float64(n)
	var ss float64
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	return mean * tradingDays, math.Sqrt(ss/float64(n)) * math.Sqrt(tradingDays)
}

// percentile interpolates linearly between closest ranks of sorted data.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
