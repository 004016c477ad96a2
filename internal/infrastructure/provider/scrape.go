package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/httpx"
)

var (
	scrapePriceRe = regexp.MustCompile(`"regularMarketPrice":\{"raw":([-0-9.eE+]+)`)
	scrapePrevRe  = regexp.MustCompile(`"regularMarketPreviousClose":\{"raw":([-0-9.eE+]+)`)
)

// ScrapeProvider reads the price embedded in the public quote page. It is
// brittle and kept out of the default resolution chain.
type ScrapeProvider struct {
	PageURL string // e.g. https://finance.yahoo.com/quote/
	Client  *httpx.Client
	Log     *zap.Logger
}

var _ application.PriceFetcher = (*ScrapeProvider)(nil)

func (p *ScrapeProvider) FetchPrice(ctx context.Context, symbol string) (domain.PriceResult, error) {
	u := strings.TrimRight(p.PageURL, "/") + "/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.PriceResult{}, fmt.Errorf("scrape: create request: %v: %w", err, domain.ErrNoData)
	}
	req.Header.Set("Accept", "text/html")
	client := p.Client
	if client == nil {
		client = defaultClient
	}
	page, err := client.DoRaw(ctx, req, p.Log)
	if err != nil {
		return domain.PriceResult{}, fetchError("scrape", err)
	}
	price := firstNum(scrapePriceRe, page)
	if price == nil {
		return domain.PriceResult{}, fmt.Errorf("scrape: %s: price not found: %w", symbol, domain.ErrNoData)
	}
	return domain.PriceResult{Price: *price, PrevClose: firstNum(scrapePrevRe, page)}, nil
}

func firstNum(re *regexp.Regexp, page []byte) *float64 {
	m := re.FindSubmatch(page)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return nil
	}
	return &f
}
