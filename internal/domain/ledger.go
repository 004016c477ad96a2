package domain

import "time"

const DefaultCurrency = "GBP"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

type Holding struct {
	ID       int64   `json:"id"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
	Currency string  `json:"currency"`
}

type Transaction struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Qty       float64   `json:"qty"`
	Price     float64   `json:"price"`
	Side      Side      `json:"side"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type PositionSummary struct {
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
	Cost     float64 `json:"cost"`
	Currency string  `json:"currency"`
}

type PortfolioMetrics struct {
	TotalPositions int                        `json:"total_positions"`
	TotalCost      float64                    `json:"total_cost"`
	BestEarners    []string                   `json:"best_earners"`
	BySymbol       map[string]PositionSummary `json:"by_symbol"`
}
