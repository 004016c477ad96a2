package domain

// Bar is one OHLCV candle. T is unix milliseconds.
type Bar struct {
	T int64    `json:"t"`
	O *float64 `json:"o"`
	H *float64 `json:"h"`
	L *float64 `json:"l"`
	C float64  `json:"c"`
	V *float64 `json:"v"`
}

type History struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
	Bars     []Bar  `json:"bars"`
}

type Sparkline struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

// Info is descriptive data about a listing. Unknown fields are null.
type Info struct {
	Symbol    string   `json:"symbol"`
	ShortName *string  `json:"shortName"`
	LongName  *string  `json:"longName"`
	Sector    *string  `json:"sector"`
	Industry  *string  `json:"industry"`
	MarketCap *float64 `json:"marketCap"`
	Currency  *string  `json:"currency"`
}

var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true, "1y": true,
	"2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true,
	"90m": true, "1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

func ValidPeriod(p string) bool   { return validPeriods[p] }
func ValidInterval(i string) bool { return validIntervals[i] }

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.C)
	}
	return out
}
