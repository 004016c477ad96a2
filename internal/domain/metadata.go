package domain

import "strings"

var suffixCurrency = []struct {
	suffix   string
	currency string
}{
	{".L", "GBp"},
	{".PA", "EUR"},
	{".DE", "EUR"},
	{".AS", "EUR"},
	{".MI", "EUR"},
	{".TO", "CAD"},
	{".HK", "HKD"},
	{".T", "JPY"},
	{".AX", "AUD"},
	{".SW", "CHF"},
}

var displayNames = map[string]string{
	"MSFT":   "Microsoft",
	"NVDA":   "NVIDIA",
	"AAPL":   "Apple",
	"BP.L":   "BP",
	"ULVR.L": "Unilever",
	"III.L":  "3i Group",
	"INRG.L": "iShares Global Clean Energy",
	"EMIM.L": "iShares Core MSCI EM IMI",
}

// InferCurrency guesses the trading currency from the exchange suffix.
// London listings quote in pence.
func InferCurrency(symbol string) string {
	symbol = NormalizeSymbol(symbol)
	for _, sc := range suffixCurrency {
		if strings.HasSuffix(symbol, sc.suffix) {
			return sc.currency
		}
	}
	return "USD"
}

// DisplayName returns a short human name, or the symbol itself.
func DisplayName(symbol string) string {
	symbol = NormalizeSymbol(symbol)
	if n, ok := displayNames[symbol]; ok {
		return n
	}
	return symbol
}
