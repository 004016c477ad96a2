package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/httpx"
)

var defaultClient = &httpx.Client{}

const (
	yahooQuotePath   = "/v7/finance/quote"
	yahooChartPath   = "/v8/finance/chart/"
	yahooSummaryPath = "/v10/finance/quoteSummary/"
)

// YahooProvider is the primary feed. Quotes come from the fast quote endpoint
// and fall back to the last two daily closes of the chart endpoint.
type YahooProvider struct {
	BaseURL  string
	Client   *httpx.Client
	Cooldown time.Duration
	Log      *zap.Logger

	mu        sync.Mutex
	lastCall  time.Time
	throttled int
}

var (
	_ application.PriceFetcher = (*YahooProvider)(nil)
	_ application.BarsProvider = (*YahooProvider)(nil)
	_ application.InfoProvider = (*YahooProvider)(nil)
)

type yahooQuoteResp struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
		Error  *yahooError  `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	Currency                   *string  `json:"currency"`
	ShortName                  *string  `json:"shortName"`
	LongName                   *string  `json:"longName"`
	MarketCap                  *float64 `json:"marketCap"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooSummaryResp struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   *string `json:"sector"`
				Industry *string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// ThrottleState is a snapshot of the process-wide rate-limit bookkeeping.
type ThrottleState struct {
	LastCall  time.Time
	Throttled int
}

func (p *YahooProvider) State() ThrottleState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ThrottleState{LastCall: p.lastCall, Throttled: p.throttled}
}

func (p *YahooProvider) FetchPrice(ctx context.Context, symbol string) (domain.PriceResult, error) {
	q, err := p.quote(ctx, symbol)
	if err == nil && q.RegularMarketPrice != nil {
		return domain.PriceResult{Price: *q.RegularMarketPrice, PrevClose: q.RegularMarketPreviousClose}, nil
	}
	if domain.IsRateLimited(err) {
		return domain.PriceResult{}, p.cooldown(ctx, err)
	}
	p.logger().Debug("yahoo.quote_fallback", zap.String("symbol", symbol), zap.Error(err))

	bars, err := p.Bars(ctx, symbol, "5d", "1d")
	if err != nil {
		return domain.PriceResult{}, err
	}
	switch n := len(bars); n {
	case 0:
		return domain.PriceResult{}, fmt.Errorf("yahoo: %s: no closes: %w", symbol, domain.ErrNoData)
	case 1:
		return domain.PriceResult{Price: bars[0].C}, nil
	default:
		prev := bars[n-2].C
		return domain.PriceResult{Price: bars[n-1].C, PrevClose: &prev}, nil
	}
}

// Bars returns candles with a non-null close, oldest first.
func (p *YahooProvider) Bars(ctx context.Context, symbol, period, interval string) ([]domain.Bar, error) {
	v := url.Values{}
	v.Set("range", period)
	v.Set("interval", interval)
	path, err := symbolPath(yahooChartPath, symbol)
	if err != nil {
		return nil, err
	}
	var body yahooChartResp
	if err := p.get(ctx, path, v, &body); err != nil {
		if domain.IsRateLimited(err) {
			return nil, p.cooldown(ctx, err)
		}
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		if strings.Contains(strings.ToLower(e.Description+e.Code), "too many requests") {
			return nil, p.cooldown(ctx, fmt.Errorf("yahoo: %s: %w", symbol, domain.ErrRateLimited))
		}
		return nil, fmt.Errorf("yahoo: %s: %s: %w", symbol, e.Description, domain.ErrNoData)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %s: empty chart: %w", symbol, domain.ErrNoData)
	}
	res := body.Chart.Result[0]
	ind := res.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c := at(ind.Close, i)
		if c == nil {
			continue
		}
		bars = append(bars, domain.Bar{
			T: ts * 1000,
			O: at(ind.Open, i),
			H: at(ind.High, i),
			L: at(ind.Low, i),
			C: *c,
			V: at(ind.Volume, i),
		})
	}
	return bars, nil
}

// Info combines quote fields with the asset profile. The profile is optional.
func (p *YahooProvider) Info(ctx context.Context, symbol string) (domain.Info, error) {
	q, err := p.quote(ctx, symbol)
	if err != nil {
		return domain.Info{}, err
	}
	out := domain.Info{
		Symbol:    domain.NormalizeSymbol(symbol),
		ShortName: q.ShortName,
		LongName:  q.LongName,
		MarketCap: q.MarketCap,
		Currency:  q.Currency,
	}
	v := url.Values{}
	v.Set("modules", "assetProfile")
	path, err := symbolPath(yahooSummaryPath, symbol)
	if err != nil {
		return out, nil
	}
	var sum yahooSummaryResp
	if err := p.get(ctx, path, v, &sum); err != nil {
		p.logger().Debug("yahoo.profile_failed", zap.String("symbol", symbol), zap.Error(err))
		return out, nil
	}
	if len(sum.QuoteSummary.Result) > 0 {
		out.Sector = sum.QuoteSummary.Result[0].AssetProfile.Sector
		out.Industry = sum.QuoteSummary.Result[0].AssetProfile.Industry
	}
	return out, nil
}

func (p *YahooProvider) quote(ctx context.Context, symbol string) (yahooQuote, error) {
	v := url.Values{}
	v.Set("symbols", symbol)
	var body yahooQuoteResp
	if err := p.get(ctx, yahooQuotePath, v, &body); err != nil {
		return yahooQuote{}, err
	}
	for _, r := range body.QuoteResponse.Result {
		if strings.EqualFold(r.Symbol, symbol) {
			return r, nil
		}
	}
	return yahooQuote{}, fmt.Errorf("yahoo: %s: not in quote response: %w", symbol, domain.ErrNoData)
}

// symbolPath appends an escaped symbol to prefix. Symbols outside the
// accepted grammar never reach the upstream URL.
func symbolPath(prefix, symbol string) (string, error) {
	if _, err := domain.ValidateSymbol(symbol); err != nil {
		return "", fmt.Errorf("yahoo: %q: %v: %w", symbol, err, domain.ErrNoData)
	}
	return prefix + url.PathEscape(symbol), nil
}

// get expects path to be escaped already.
func (p *YahooProvider) get(ctx context.Context, path string, q url.Values, out any) error {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("yahoo: invalid base url: %v: %w", err, domain.ErrNoData)
	}
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return fmt.Errorf("yahoo: bad path %q: %w", path, domain.ErrNoData)
	}
	u.RawPath = strings.TrimRight(u.EscapedPath(), "/") + path
	u.Path = strings.TrimRight(u.Path, "/") + unescaped
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("yahoo: create request: %v: %w", err, domain.ErrNoData)
	}
	req.Header.Set("Accept", "application/json")

	p.mu.Lock()
	p.lastCall = time.Now()
	p.mu.Unlock()

	if err := p.client().DoJSON(ctx, req, out, p.logger()); err != nil {
		return fetchError("yahoo", err)
	}
	return nil
}

// cooldown waits out a throttling signal before handing err back.
func (p *YahooProvider) cooldown(ctx context.Context, err error) error {
	p.mu.Lock()
	p.throttled++
	n := p.throttled
	p.mu.Unlock()
	p.logger().Warn("yahoo.rate_limited", zap.Int("count", n), zap.Duration("cooldown", p.Cooldown))
	_ = application.SleepContext(ctx, p.Cooldown)
	return err
}

func (p *YahooProvider) client() *httpx.Client {
	if p.Client == nil {
		return defaultClient
	}
	return p.Client
}

func (p *YahooProvider) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}
