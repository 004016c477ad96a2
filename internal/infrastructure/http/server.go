package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Quotes    *application.QuoteResolver
	Series    *application.SeriesResolver
	Forecast  *application.ForecastService
	Portfolio *application.PortfolioService
	Watchlist *application.WatchlistService
}

type Server struct {
	svc    Services
	ping   func(ctx context.Context) error
	scrape application.PriceFetcher
	log    *zap.Logger
}

func NewServer(svc Services, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log}
}

// SetReadyCheck installs the dependency probe used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

// EnableScrapeDebug exposes the page scraper at /debug/scrape.
func (s *Server) EnableScrapeDebug(p application.PriceFetcher) { s.scrape = p }

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	var tickers string
	if !bind(w, r, "tickers", true, &tickers) {
		return
	}
	quotes, err := s.svc.Quotes.Resolve(r.Context(), domain.SplitTickers(tickers))
	if err != nil {
		if errors.Is(err, application.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, "No tickers provided")
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	ticker, period, interval, ok := bindSeries(w, r, "1y")
	if !ok {
		return
	}
	h, err := s.svc.Series.History(r.Context(), ticker, period, interval)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) GetSparkline(w http.ResponseWriter, r *http.Request) {
	ticker, period, interval, ok := bindSeries(w, r, "6mo")
	if !ok {
		return
	}
	sp, err := s.svc.Series.Sparkline(r.Context(), ticker, period, interval)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	var ticker string
	if !bind(w, r, "ticker", true, &ticker) {
		return
	}
	info, err := s.svc.Series.Info(r.Context(), ticker)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) GetForecast(w http.ResponseWriter, r *http.Request) {
	var ticker string
	paths, days := 200, 252
	if !bind(w, r, "ticker", true, &ticker) ||
		!bind(w, r, "paths", false, &paths) ||
		!bind(w, r, "days", false, &days) {
		return
	}
	fc, err := s.svc.Forecast.Forecast(r.Context(), ticker, paths, days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Watchlist.State(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	s.editWatchlist(w, r, s.svc.Watchlist.Add)
}

func (s *Server) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	s.editWatchlist(w, r, s.svc.Watchlist.Remove)
}

func (s *Server) editWatchlist(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (domain.State, error)) {
	var symbol string
	if !bind(w, r, "symbol", true, &symbol) {
		return
	}
	st, err := op(r.Context(), symbol)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) ListHoldings(w http.ResponseWriter, r *http.Request) {
	hs, err := s.svc.Portfolio.ListHoldings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (s *Server) UpsertHolding(w http.ResponseWriter, r *http.Request) {
	var (
		symbol            string
		quantity, avgCost float64
		currency          = domain.DefaultCurrency
	)
	if !bind(w, r, "symbol", true, &symbol) ||
		!bind(w, r, "quantity", true, &quantity) ||
		!bind(w, r, "avg_cost", true, &avgCost) ||
		!bind(w, r, "currency", false, &currency) {
		return
	}
	h, err := s.svc.Portfolio.UpsertHolding(r.Context(), symbol, quantity, avgCost, currency)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	var symbol string
	if !bind(w, r, "symbol", true, &symbol) {
		return
	}
	if err := s.svc.Portfolio.RemoveHolding(r.Context(), symbol); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Portfolio.Metrics(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.Portfolio.ListTransactions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) AddTransaction(w http.ResponseWriter, r *http.Request) {
	tx := domain.Transaction{Side: domain.SideBuy, Currency: domain.DefaultCurrency}
	var side, currency = string(tx.Side), tx.Currency
	if !bind(w, r, "symbol", true, &tx.Symbol) ||
		!bind(w, r, "qty", true, &tx.Qty) ||
		!bind(w, r, "price", true, &tx.Price) ||
		!bind(w, r, "side", false, &side) ||
		!bind(w, r, "currency", false, &currency) {
		return
	}
	tx.Side, tx.Currency = domain.Side(side), currency

	var idem *string
	if k := strings.TrimSpace(r.Header.Get("X-Idempotency-Key")); k != "" {
		idem = &k
	}
	out, err := s.svc.Portfolio.AddTransaction(r.Context(), tx, idem)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) DebugScrape(w http.ResponseWriter, r *http.Request) {
	var ticker string
	if !bind(w, r, "ticker", true, &ticker) {
		return
	}
	sym := domain.NormalizeSymbol(ticker)
	res, err := s.scrape.FetchPrice(r.Context(), sym)
	if err != nil {
		writeJSON(w, http.StatusOK, domain.UnavailableQuote(sym))
		return
	}
	writeJSON(w, http.StatusOK, domain.NewQuote(sym, res, domain.SourceLive, false))
}

// fail maps use case errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrNotEnoughHistory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, application.ErrNotFound):
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	default:
		rid, _ := r.Context().Value(requestIDKey).(string)
		s.log.Error("handler_failed", zap.String("path", r.URL.Path), zap.String("request_id", rid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// bind reads a form-style query parameter into dest, writing a 400 on failure.
// Optional parameters leave dest untouched when absent.
func bind(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	q := r.URL.Query()
	if required && strings.TrimSpace(q.Get(name)) == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %q is required", name))
		return false
	}
	if err := runtime.BindQueryParameter("form", true, required, name, nonEmpty(q), dest); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameter %q", name))
		return false
	}
	return true
}

func bindSeries(w http.ResponseWriter, r *http.Request, defPeriod string) (ticker, period, interval string, ok bool) {
	period, interval = defPeriod, "1d"
	if !bind(w, r, "ticker", true, &ticker) ||
		!bind(w, r, "period", false, &period) ||
		!bind(w, r, "interval", false, &interval) {
		return "", "", "", false
	}
	if !domain.ValidPeriod(period) || !domain.ValidInterval(interval) {
		writeError(w, http.StatusBadRequest, "unsupported period or interval")
		return "", "", "", false
	}
	return ticker, period, interval, true
}

// nonEmpty drops blank values so "?currency=" falls back to the default.
func nonEmpty(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				out[k] = append(out[k], v)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}
