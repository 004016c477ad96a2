package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/provider"
)

func TestScrape_ExtractsEmbeddedPrice(t *testing.T) {
	page := `<html><script>root.App.main = {"price":{"regularMarketPreviousClose":{"raw":101.5,"fmt":"101.50"},"regularMarketPrice":{"raw":103.25,"fmt":"103.25"}}}</script></html>`
	rt := &router{routes: map[string]route{"/quote/MSFT": {200, page}}}
	p := &provider.ScrapeProvider{PageURL: "http://finance.test/quote/", Client: rt.client()}

	res, err := p.FetchPrice(context.Background(), "MSFT")
	require.NoError(t, err)
	require.InDelta(t, 103.25, res.Price, 1e-9)
	require.InDelta(t, 101.5, *res.PrevClose, 1e-9)
}

func TestScrape_NoPriceInPage(t *testing.T) {
	p := &provider.ScrapeProvider{PageURL: "http://finance.test/quote", Client: httpClient("<html></html>", 200)}
	_, err := p.FetchPrice(context.Background(), "MSFT")
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestScrape_Throttled(t *testing.T) {
	p := &provider.ScrapeProvider{PageURL: "http://finance.test/quote", Client: httpClient("", 429)}
	_, err := p.FetchPrice(context.Background(), "MSFT")
	require.ErrorIs(t, err, domain.ErrRateLimited)
}
