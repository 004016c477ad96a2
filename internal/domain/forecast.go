package domain

type Forecast struct {
	Symbol string    `json:"symbol"`
	S0     float64   `json:"s0"`
	Mu     float64   `json:"mu"`
	Sigma  float64   `json:"sigma"`
	Days   int       `json:"days"`
	Paths  int       `json:"paths"`
	P10    []float64 `json:"p10"`
	P50    []float64 `json:"p50"`
	P90    []float64 `json:"p90"`
}
