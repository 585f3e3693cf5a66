package model

// Operator is a comparison applied between a rule's indicator series and its
// threshold or second series.
type Operator string

const (
	OpCrossesAbove Operator = "crosses_above"
	OpCrossesBelow Operator = "crosses_below"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
)

// Side restricts which direction the simulator may open positions in.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
	SideBoth  Side = "both"
)

// StopMode selects how a stop or target distance is derived from the entry.
type StopMode string

const (
	StopPercent     StopMode = "percent"
	StopATRMultiple StopMode = "atr"
)

// Rule is one declarative entry or exit condition. Exactly one of Threshold
// and Series is set: Threshold compares against a constant, Series against
// another indicator at the same index. Rules within a set combine with AND.
type Rule struct {
	Indicator string   `json:"indicator"`
	Op        Operator `json:"operator"`
	Threshold *float64 `json:"threshold,omitempty"`
	Series    string   `json:"series,omitempty"`
}

// StopPolicy derives a stop or target price from an entry fill. With
// StopPercent, Value is a percentage of the entry price; with
// StopATRMultiple, Value multiplies the ATR at the entry bar.
type StopPolicy struct {
	Mode   StopMode `json:"mode"`
	Value  float64  `json:"value"`
	Period int      `json:"period,omitempty"` // ATR period, StopATRMultiple only
}

// StrategyDescriptor is the declarative strategy consumed by the pipeline.
// It is produced externally (AI layer or UI fallback) and validated before
// simulation; the engine does not care how it was synthesized.
type StrategyDescriptor struct {
	Name         string      `json:"name"`
	EntryRules   []Rule      `json:"entry_rules"`
	ExitRules    []Rule      `json:"exit_rules"`
	StopLoss     *StopPolicy `json:"stop_loss,omitempty"`
	TakeProfit   *StopPolicy `json:"take_profit,omitempty"`
	MaxPositions int         `json:"max_positions"`
	Side         Side        `json:"side"`

	// SMA-crossover fallback, used when EntryRules is empty.
	SMAFast int `json:"sma_fast"`
	SMASlow int `json:"sma_slow"`
}

// ExitReason records which condition closed a trade.
type ExitReason string

const (
	ExitStop   ExitReason = "STOP"
	ExitTarget ExitReason = "TARGET"
	ExitSignal ExitReason = "SIGNAL"
)

// Trade is a completed round trip. Immutable once emitted by the simulator;
// both timestamps are candle times from the input series.
type Trade struct {
	EntryTime  int64      `json:"entry_time"`
	ExitTime   int64      `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Side       Side       `json:"side"`
	PnL        float64    `json:"pnl"`
	PnLPercent float64    `json:"pnl_percent"`
	ExitReason ExitReason `json:"exit_reason"`
}

// PerformanceMetrics is the aggregate summary computed by the analyzer.
// Drawdowns carry the running-peak sign convention: values are <= 0.
type PerformanceMetrics struct {
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	FinalEquity    float64 `json:"final_equity"`
}

// BacktestRequest is the JSON body of POST /api/v1/backtest. The three
// free-text fields and the drawing data feed strategy synthesis; the SMA
// scalars are the crossover fallback.
type BacktestRequest struct {
	Symbol         string  `json:"symbol" binding:"required"`
	Timeframe      string  `json:"timeframe"`
	Limit          int     `json:"limit"`
	InitialCapital float64 `json:"initial_capital"`
	Strategy       string  `json:"strategy"`
	SMAFast        int     `json:"sma_fast"`
	SMASlow        int     `json:"sma_slow"`

	GeneralInfo      string `json:"general_info"`
	ExecutionDetails string `json:"execution_details"`
	Constraints      string `json:"constraints"`

	StartDate *int64        `json:"start_date,omitempty"`
	EndDate   *int64        `json:"end_date,omitempty"`
	Drawings  []DrawingMark `json:"drawing_data,omitempty"`
}

// Defaults fills the zero-valued request fields with the documented defaults.
func (r *BacktestRequest) Defaults() {
	if r.Timeframe == "" {
		r.Timeframe = "1h"
	}
	if r.Limit <= 0 {
		r.Limit = 500
	}
	if r.InitialCapital <= 0 {
		r.InitialCapital = 10000
	}
	if r.Strategy == "" {
		r.Strategy = "sma_crossover"
	}
	if r.SMAFast <= 0 {
		r.SMAFast = 10
	}
	if r.SMASlow <= 0 {
		r.SMASlow = 30
	}
}

// BacktestResult is the full pipeline output returned to the UI.
type BacktestResult struct {
	Symbol         string             `json:"symbol"`
	Timeframe      string             `json:"timeframe"`
	StrategyName   string             `json:"strategy_name"`
	InitialCapital float64            `json:"initial_capital"`
	Metrics        PerformanceMetrics `json:"metrics"`
	EquityCurve    []EquityPoint      `json:"equity_curve"`
	DrawdownSeries []DrawdownPoint    `json:"drawdown_series"`
	Trades         []Trade            `json:"trades"`
}
