package model

// Candle is one OHLCV bar. Time is Unix seconds, matching the chart frontend
// (lightweight-charts) and the candle store schema.
type Candle struct {
	Time   int64   `json:"time" db:"time"`
	Open   float64 `json:"open" db:"open"`
	High   float64 `json:"high" db:"high"`
	Low    float64 `json:"low" db:"low"`
	Close  float64 `json:"close" db:"close"`
	Volume float64 `json:"volume" db:"volume"`
}

// EquityPoint is the account equity recorded at one bar. Equity is
// realized-only: capital plus the PnL of trades closed so far.
type EquityPoint struct {
	Time   int64   `json:"time"`
	Equity float64 `json:"equity"`
}

// DrawdownPoint is the decline from the running equity peak at one bar,
// expressed as a non-positive percentage of that peak.
type DrawdownPoint struct {
	Time        int64   `json:"time"`
	DrawdownPct float64 `json:"drawdown_pct"`
}

// DrawingMark is a chart annotation forwarded from the frontend. It feeds the
// strategy synthesis layer only; the engine never trades on it directly.
type DrawingMark struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
	Type  string  `json:"type"`
	Label string  `json:"label,omitempty"`
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
