package domain

// Provenance tags where a quote came from.
type Provenance string

const (
	SourceLive         Provenance = "live"
	SourceMockFallback Provenance = "mock_fallback"
	SourceUnavailable  Provenance = "unavailable"
)

// PriceResult is what a provider returns for a single symbol.
type PriceResult struct {
	Price     float64
	PrevClose *float64
	ChangePct *float64
}

// Quote is the client-facing quote record.
//
// Price is nil exactly when Source is SourceUnavailable.
type Quote struct {
	Symbol    string     `json:"symbol"`
	Price     *float64   `json:"price"`
	PrevClose *float64   `json:"prevClose"`
	ChangeAbs *float64   `json:"changeAbs"`
	ChangePct *float64   `json:"changePct"`
	Currency  string     `json:"currency"`
	ShortName string     `json:"shortName"`
	Source    Provenance `json:"source"`
	Stale     bool       `json:"stale"`
}

// NewQuote builds a quote from a provider result. Change figures are derived
// from the previous close when it is known and positive; a provider supplied
// percent change wins over the derived one.
func NewQuote(symbol string, r PriceResult, src Provenance, stale bool) Quote {
	price := r.Price
	q := Quote{
		Symbol:    symbol,
		Price:     &price,
		Currency:  InferCurrency(symbol),
		ShortName: DisplayName(symbol),
		Source:    src,
		Stale:     stale,
	}
	if r.PrevClose != nil && *r.PrevClose > 0 {
		prev := *r.PrevClose
		abs := price - prev
		pct := abs / prev * 100
		q.PrevClose = &prev
		q.ChangeAbs = &abs
		q.ChangePct = &pct
	}
	if r.ChangePct != nil {
		pct := *r.ChangePct
		q.ChangePct = &pct
	}
	return q
}

// UnavailableQuote is the placeholder returned when every tier failed.
func UnavailableQuote(symbol string) Quote {
	return Quote{
		Symbol:    symbol,
		Currency:  InferCurrency(symbol),
		ShortName: DisplayName(symbol),
		Source:    SourceUnavailable,
		Stale:     true,
	}
}
