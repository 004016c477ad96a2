package provider

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

type MockQuote struct {
	Price     float64 `yaml:"price"`
	PrevClose float64 `yaml:"prev_close"`
}

// MockTable serves fixed prices for a known set of symbols. It is read-only
// after construction.
type MockTable struct {
	quotes map[string]MockQuote
}

var _ application.PriceFetcher = (*MockTable)(nil)

func NewMockTable(quotes map[string]MockQuote) *MockTable {
	m := &MockTable{quotes: make(map[string]MockQuote, len(quotes))}
	for sym, q := range quotes {
		m.quotes[domain.NormalizeSymbol(sym)] = q
	}
	return m
}

func DefaultMockTable() *MockTable {
	return NewMockTable(map[string]MockQuote{
		"MSFT":   {Price: 415.20, PrevClose: 410.50},
		"NVDA":   {Price: 118.40, PrevClose: 121.10},
		"AAPL":   {Price: 228.00, PrevClose: 226.50},
		"BP.L":   {Price: 462.30, PrevClose: 459.80},
		"ULVR.L": {Price: 4710.0, PrevClose: 4688.0},
		"III.L":  {Price: 3320.0, PrevClose: 3301.0},
		"INRG.L": {Price: 712.40, PrevClose: 709.10},
		"EMIM.L": {Price: 2862.0, PrevClose: 2855.0},
	})
}

type mockFile struct {
	Quotes map[string]MockQuote `yaml:"quotes"`
}

// LoadMockTable reads a YAML document of the form
//
//	quotes:
//	  MSFT: {price: 415.2, prev_close: 410.5}
func LoadMockTable(path string) (*MockTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mock table: %w", err)
	}
	var f mockFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("mock table: parse %s: %w", path, err)
	}
	if len(f.Quotes) == 0 {
		return nil, fmt.Errorf("mock table: %s has no quotes", path)
	}
	return NewMockTable(f.Quotes), nil
}

func (m *MockTable) FetchPrice(_ context.Context, symbol string) (domain.PriceResult, error) {
	q, ok := m.quotes[domain.NormalizeSymbol(symbol)]
	if !ok {
		return domain.PriceResult{}, fmt.Errorf("mock: %s: %w", symbol, domain.ErrNoData)
	}
	res := domain.PriceResult{Price: q.Price}
	if q.PrevClose > 0 {
		prev := q.PrevClose
		res.PrevClose = &prev
	}
	return res, nil
}

func (m *MockTable) Symbols() []string {
	out := make([]string, 0, len(m.quotes))
	for s := range m.quotes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
