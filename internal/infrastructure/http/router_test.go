package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
	"stocktracker-service/internal/infrastructure/cache"
	"stocktracker-service/internal/infrastructure/filestore"
	"stocktracker-service/internal/infrastructure/provider"
	"stocktracker-service/internal/infrastructure/sqlite"
)

type stubSeries struct {
	bars []domain.Bar
	err  error
}

func (s stubSeries) Bars(context.Context, string, string, string) ([]domain.Bar, error) {
	return s.bars, s.err
}

func (s stubSeries) Info(context.Context, string) (domain.Info, error) {
	return domain.Info{}, domain.ErrNoData
}

type failingFetcher struct{}

func (failingFetcher) FetchPrice(context.Context, string) (domain.PriceResult, error) {
	return domain.PriceResult{}, domain.ErrRateLimited
}

func dailyBars(n int) []domain.Bar {
	out := make([]domain.Bar, n)
	for i := range out {
		out[i] = domain.Bar{T: int64(i) * 86400000, C: 100 * math.Exp(0.001*float64(i)+0.01*math.Sin(float64(i)))}
	}
	return out
}

func newTestServer(t *testing.T, live application.PriceFetcher, series stubSeries) *Server {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sr := application.NewSeriesResolver(series, series,
		cache.NewTTL[[]float64](application.SparklineTTL, nil),
		cache.NewTTL[json.RawMessage](application.QueryTTL, nil))
	svc := Services{
		Quotes: application.NewQuoteResolver(live, cache.NewTTL[domain.Quote](application.QuoteTTL, nil),
			application.WithMockFallback(provider.DefaultMockTable())),
		Series:    sr,
		Forecast:  application.NewForecastService(sr, application.WithSeed(1)),
		Portfolio: application.NewPortfolioService(sqlite.NewHoldingRepo(db), sqlite.NewTransactionRepo(db), application.WithIdempotency(&memIdem{})),
		Watchlist: application.NewWatchlistService(filestore.NewWatchlist(filepath.Join(t.TempDir(), "state.json"))),
	}
	return NewServer(svc, nil)
}

type memIdem struct{ seen map[string]bool }

func (m *memIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[k] {
		return false, nil
	}
	m.seen[k] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, k string) error {
	delete(m.seen, k)
	return nil
}

func setup(t *testing.T) http.Handler {
	return NewRouter(newTestServer(t, provider.DefaultMockTable(), stubSeries{bars: dailyBars(80)}), 0)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(setup(t), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReadyz_FailingCheck(t *testing.T) {
	srv := newTestServer(t, provider.DefaultMockTable(), stubSeries{})
	srv.SetReadyCheck(func(ctx context.Context) error { return errors.New("db down") })
	rec := do(NewRouter(srv, 0), http.MethodGet, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"code":503,"message":"db not ready"}`, rec.Body.String())
}

func TestQuote_LiveAndApiPrefix(t *testing.T) {
	h := setup(t)
	for _, path := range []string{"/quote?tickers=msft,%20nvda", "/api/quote?tickers=MSFT,NVDA"} {
		rec := do(h, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var got map[string]domain.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)
		require.Equal(t, domain.SourceLive, got["MSFT"].Source)
		require.NotNil(t, got["NVDA"].Price)
	}
}

func TestQuote_FallbackTiers(t *testing.T) {
	h := NewRouter(newTestServer(t, failingFetcher{}, stubSeries{}), 0)
	rec := do(h, http.MethodGet, "/quote?tickers=BP.L,NOPE")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, domain.SourceMockFallback, got["BP.L"].Source)
	require.True(t, got["BP.L"].Stale)
	require.Equal(t, domain.SourceUnavailable, got["NOPE"].Source)
	require.Nil(t, got["NOPE"].Price)
}

func TestQuote_MockFallbackChangeFields(t *testing.T) {
	h := NewRouter(newTestServer(t, failingFetcher{}, stubSeries{}), 0)
	rec := do(h, http.MethodGet, "/quote?tickers=MSFT,NVDA")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	msft, nvda := got["MSFT"], got["NVDA"]
	require.InDelta(t, 415.20-410.50, *msft.ChangeAbs, 1e-9)
	require.InDelta(t, (415.20-410.50)/410.50*100, *msft.ChangePct, 1e-9)
	require.InDelta(t, 118.40-121.10, *nvda.ChangeAbs, 1e-9)
	require.InDelta(t, (118.40-121.10)/121.10*100, *nvda.ChangePct, 1e-9)
}

func TestQuote_NoTickers(t *testing.T) {
	h := setup(t)
	rec := do(h, http.MethodGet, "/quote?tickers=%20,%20")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"code":400,"message":"No tickers provided"}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/quote")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func requireKeys(t *testing.T, body []byte, keys ...string) {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	for _, k := range keys {
		require.Contains(t, raw, k)
	}
	require.NotContains(t, raw, "ticker")
	require.Equal(t, "MSFT", raw["symbol"])
}

func TestHistoryAndSparkline(t *testing.T) {
	h := setup(t)
	rec := do(h, http.MethodGet, "/history?ticker=msft")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist domain.History
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Equal(t, "1y", hist.Period)
	require.Len(t, hist.Bars, 80)
	requireKeys(t, rec.Body.Bytes(), "symbol", "bars")

	rec = do(h, http.MethodGet, "/sparkline?ticker=msft&period=3mo")
	require.Equal(t, http.StatusOK, rec.Code)
	var sp domain.Sparkline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sp))
	require.Len(t, sp.Closes, 60)
	requireKeys(t, rec.Body.Bytes(), "symbol", "closes")

	rec = do(h, http.MethodGet, "/history?ticker=msft&interval=7d")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInfo_StaticFallback(t *testing.T) {
	rec := do(setup(t), http.MethodGet, "/info?ticker=ulvr.l")
	require.Equal(t, http.StatusOK, rec.Code)
	var info domain.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "Unilever", *info.ShortName)
	require.Equal(t, "GBp", *info.Currency)
}

func TestForecast(t *testing.T) {
	h := setup(t)
	rec := do(h, http.MethodGet, "/forecast?ticker=MSFT&paths=20&days=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var fc domain.Forecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.P50, 6)

	rec = do(h, http.MethodGet, "/forecast?ticker=MSFT&paths=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	short := NewRouter(newTestServer(t, provider.DefaultMockTable(), stubSeries{bars: dailyBars(5)}), 0)
	rec = do(short, http.MethodGet, "/forecast?ticker=MSFT")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWatchlistFlow(t *testing.T) {
	h := setup(t)
	rec := do(h, http.MethodGet, "/state")
	require.Equal(t, http.StatusOK, rec.Code)
	var st domain.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, domain.DefaultWatchlist, st.Watchlist)

	rec = do(h, http.MethodPost, "/watchlist/add?symbol=aapl")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Contains(t, st.Watchlist, "AAPL")

	rec = do(h, http.MethodPost, "/api/watchlist/remove?symbol=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.NotContains(t, st.Watchlist, "AAPL")

	rec = do(h, http.MethodGet, "/watchlist/add?symbol=aapl")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPortfolioFlow(t *testing.T) {
	h := setup(t)
	rec := do(h, http.MethodPost, "/portfolio/holdings/upsert?symbol=msft&quantity=2&avg_cost=300")
	require.Equal(t, http.StatusOK, rec.Code)
	var hold domain.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))
	require.Equal(t, "MSFT", hold.Symbol)
	require.Equal(t, "GBP", hold.Currency)

	rec = do(h, http.MethodGet, "/portfolio/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"total_positions":1,"total_cost":600,"best_earners":[],
		"by_symbol":{"MSFT":{"quantity":2,"avg_cost":300,"cost":600,"currency":"GBP"}}}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/portfolio/holdings/upsert?symbol=msft&quantity=x&avg_cost=300")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/portfolio/holdings/remove?symbol=MSFT")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(h, http.MethodGet, "/portfolio/holdings")
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestTransactions_Idempotency(t *testing.T) {
	h := setup(t)
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/portfolio/transactions/add?symbol=nvda&qty=3&price=120&side=sell", nil)
		req.Header.Set("X-Idempotency-Key", "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	rec := post()
	require.Equal(t, http.StatusOK, rec.Code)
	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	require.Equal(t, domain.SideSell, tx.Side)

	require.Equal(t, http.StatusConflict, post().Code)

	rec = do(h, http.MethodGet, "/portfolio/transactions")
	var txs []domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)

	rec = do(h, http.MethodPost, "/portfolio/transactions/add?symbol=nvda&qty=3&price=120&side=hold")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebugScrape_OnlyWhenEnabled(t *testing.T) {
	srv := newTestServer(t, provider.DefaultMockTable(), stubSeries{})
	rec := do(NewRouter(srv, 0), http.MethodGet, "/debug/scrape?ticker=MSFT")
	require.Equal(t, http.StatusNotFound, rec.Code)

	srv.EnableScrapeDebug(provider.DefaultMockTable())
	rec = do(NewRouter(srv, 0), http.MethodGet, "/debug/scrape?ticker=msft")
	require.Equal(t, http.StatusOK, rec.Code)
	var q domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.Equal(t, "MSFT", q.Symbol)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/quote", nil)
	req.Header.Set("Access-Control-Request-Headers", "X-Idempotency-Key")
	rec := httptest.NewRecorder()
	setup(t).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "X-Idempotency-Key", rec.Header().Get("Access-Control-Allow-Headers"))
}
