package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/httpx"
)

// AlphaVantageProvider is the secondary feed. Without an API key every call
// reports no data and no request is made.
type AlphaVantageProvider struct {
	BaseURL    string
	APIKey     string
	Client     *httpx.Client
	Backoff    time.Duration
	MaxRetries int
	Log        *zap.Logger

	mu       sync.Mutex
	attempts int
	limited  int
}

var (
	_ application.PriceFetcher        = (*AlphaVantageProvider)(nil)
	_ application.DailySeriesProvider = (*AlphaVantageProvider)(nil)
)

var errLimitMarker = errors.New("alphavantage: rate limit marker")

type avResp struct {
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	ErrorMessage string                       `json:"Error Message"`
	GlobalQuote  map[string]string            `json:"Global Quote"`
	Daily        map[string]map[string]string `json:"Time Series (Daily)"`
}

func (r avResp) limited() bool { return r.Note != "" || r.Information != "" }

// linearBackOff waits step*n before the n-th retry.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration { b.n++; return b.step * time.Duration(b.n) }
func (b *linearBackOff) Reset()                     { b.n = 0 }

func (p *AlphaVantageProvider) Enabled() bool { return p.APIKey != "" }

func (p *AlphaVantageProvider) FetchPrice(ctx context.Context, symbol string) (domain.PriceResult, error) {
	if !p.Enabled() {
		return domain.PriceResult{}, fmt.Errorf("alphavantage: no api key: %w", domain.ErrNoData)
	}
	v := url.Values{}
	v.Set("function", "GLOBAL_QUOTE")
	v.Set("symbol", symbol)
	body, err := p.call(ctx, v)
	if err != nil {
		return domain.PriceResult{}, err
	}
	price := parseNum(body.GlobalQuote["05. price"])
	if price == nil || *price <= 0 {
		return domain.PriceResult{}, fmt.Errorf("alphavantage: %s: no price: %w", symbol, domain.ErrNoData)
	}
	return domain.PriceResult{
		Price:     *price,
		PrevClose: parseNum(body.GlobalQuote["08. previous close"]),
		ChangePct: parseNum(body.GlobalQuote["10. change percent"]),
	}, nil
}

// DailyCloses returns the compact daily series oldest first, preferring
// adjusted closes.
func (p *AlphaVantageProvider) DailyCloses(ctx context.Context, symbol string) ([]float64, error) {
	if !p.Enabled() {
		return nil, nil
	}
	v := url.Values{}
	v.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	v.Set("symbol", symbol)
	v.Set("outputsize", "compact")
	body, err := p.call(ctx, v)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(body.Daily))
	for d := range body.Daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	out := make([]float64, 0, len(dates))
	for _, d := range dates {
		row := body.Daily[d]
		c := parseNum(row["5. adjusted close"])
		if c == nil {
			c = parseNum(row["4. close"])
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// call retries while the response carries the throttling marker, sleeping
// Backoff*attempt between tries.
func (p *AlphaVantageProvider) call(ctx context.Context, v url.Values) (avResp, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return avResp{}, fmt.Errorf("alphavantage: invalid base url: %v: %w", err, domain.ErrNoData)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/query"
	v.Set("apikey", p.APIKey)
	u.RawQuery = v.Encode()

	var out avResp
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		p.mu.Lock()
		p.attempts++
		p.mu.Unlock()

		var body avResp
		if err := p.client().DoJSON(ctx, req, &body, p.logger()); err != nil {
			return backoff.Permanent(fetchError("alphavantage", err))
		}
		if body.limited() {
			p.mu.Lock()
			p.limited++
			p.mu.Unlock()
			p.logger().Warn("alphavantage.rate_limited", zap.String("function", v.Get("function")))
			return errLimitMarker
		}
		if body.ErrorMessage != "" {
			return backoff.Permanent(fmt.Errorf("alphavantage: %s: %w", body.ErrorMessage, domain.ErrNoData))
		}
		out = body
		return nil
	}
	retries := p.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	step := p.Backoff
	if step <= 0 {
		step = 2 * time.Second
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: step}, uint64(retries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if errors.Is(err, errLimitMarker) {
			return avResp{}, fmt.Errorf("alphavantage: %w", domain.ErrRateLimited)
		}
		return avResp{}, domain.ClassifyFetchError("alphavantage", err)
	}
	return out, nil
}

func (p *AlphaVantageProvider) client() *httpx.Client {
	if p.Client == nil {
		return defaultClient
	}
	return p.Client
}

func (p *AlphaVantageProvider) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// parseNum accepts "123.45" or "1.23%" and rejects anything else.
func parseNum(s string) *float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Attempts returns how many requests were issued and how many came back
// throttled.
func (p *AlphaVantageProvider) Attempts() (total, limited int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts, p.limited
}
