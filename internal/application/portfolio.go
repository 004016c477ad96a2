package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stocktracker-service/internal/domain"
)

type PortfolioService struct {
	holdings HoldingRepo
	txs      TransactionRepo
	idem     IdempotencyStore
	clock    Clock
}

type PortfolioOption func(*PortfolioService)

func WithClock(c Clock) PortfolioOption { return func(s *PortfolioService) { s.clock = c } }

func WithIdempotency(store IdempotencyStore) PortfolioOption {
	return func(s *PortfolioService) { s.idem = store }
}

func NewPortfolioService(holdings HoldingRepo, txs TransactionRepo, opts ...PortfolioOption) *PortfolioService {
	s := &PortfolioService{holdings: holdings, txs: txs}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	return s
}

func (s *PortfolioService) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	return s.holdings.List(ctx)
}

// UpsertHolding creates or replaces the holding for symbol.
func (s *PortfolioService) UpsertHolding(ctx context.Context, symbol string, quantity, avgCost float64, currency string) (domain.Holding, error) {
	sym, err := domain.ValidateSymbol(symbol)
	if err != nil {
		return domain.Holding{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if quantity < 0 || avgCost < 0 {
		return domain.Holding{}, fmt.Errorf("%w: quantity and avg_cost must be non-negative", ErrBadRequest)
	}
	return s.holdings.Upsert(ctx, domain.Holding{
		Symbol:   sym,
		Quantity: quantity,
		AvgCost:  avgCost,
		Currency: currencyOrDefault(currency),
	})
}

// RemoveHolding deletes the holding; removing an absent symbol is not an error.
func (s *PortfolioService) RemoveHolding(ctx context.Context, symbol string) error {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return ErrBadRequest
	}
	return s.holdings.Delete(ctx, sym)
}

func (s *PortfolioService) Metrics(ctx context.Context) (domain.PortfolioMetrics, error) {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return domain.PortfolioMetrics{}, err
	}
	out := domain.PortfolioMetrics{
		TotalPositions: len(hs),
		BestEarners:    []string{},
		BySymbol:       make(map[string]domain.PositionSummary, len(hs)),
	}
	total := decimal.Zero
	for _, h := range hs {
		cost := decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(h.AvgCost))
		total = total.Add(cost)
		c, _ := cost.Round(6).Float64()
		out.BySymbol[h.Symbol] = domain.PositionSummary{
			Quantity: h.Quantity,
			AvgCost:  h.AvgCost,
			Cost:     c,
			Currency: h.Currency,
		}
	}
	out.TotalCost, _ = total.Round(6).Float64()
	return out, nil
}

func (s *PortfolioService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.txs.List(ctx)
}

// AddTransaction records a trade. A repeated idempotency key yields ErrConflict.
func (s *PortfolioService) AddTransaction(ctx context.Context, tx domain.Transaction, idemKey *string) (domain.Transaction, error) {
	sym, err := domain.ValidateSymbol(tx.Symbol)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	tx.Symbol = sym
	tx.Side = domain.Side(strings.ToUpper(strings.TrimSpace(string(tx.Side))))
	if tx.Side == "" {
		tx.Side = domain.SideBuy
	}
	if !tx.Side.Valid() {
		return domain.Transaction{}, fmt.Errorf("%w: side must be BUY or SELL", ErrBadRequest)
	}
	if tx.Qty <= 0 || tx.Price < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: qty must be positive and price non-negative", ErrBadRequest)
	}
	tx.Currency = currencyOrDefault(tx.Currency)
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.clock.Now().UTC()
	}

	if idemKey == nil || *idemKey == "" {
		return s.txs.Append(ctx, tx)
	}
	key := "tx:" + *idemKey
	ok, err := s.idem.TryReserve(ctx, key)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !ok {
		return domain.Transaction{}, ErrConflict
	}
	out, err := s.txs.Append(ctx, tx)
	if err != nil {
		// a failed write must not block the client's retry
		if rerr := s.idem.Release(ctx, key); rerr != nil {
			return domain.Transaction{}, errors.Join(err, rerr)
		}
		return domain.Transaction{}, err
	}
	return out, nil
}

func currencyOrDefault(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return domain.DefaultCurrency
	}
	return c
}
