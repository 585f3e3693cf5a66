// Package engine runs the backtest pipeline: indicators, signals, bar-by-bar
// simulation and performance analytics, in that order, each stage a pure
// function of the previous one's output.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/analytics"
	"github.com/afterall1/backtest-0.2/internal/chaos"
	"github.com/afterall1/backtest-0.2/internal/indicator"
	"github.com/afterall1/backtest-0.2/internal/model"
	"github.com/afterall1/backtest-0.2/internal/signal"
)

// Backtester executes one complete backtest per Run call. It holds no state
// between runs, so a single instance is safe for concurrent use.
type Backtester struct {
	logger *zap.Logger
}

func NewBacktester(logger *zap.Logger) *Backtester {
	return &Backtester{logger: logger}
}

// Run validates the descriptor, then drives the four pipeline stages over the
// candle series. Insufficient history is not an error: warm-up suppresses
// every signal and the result simply carries zero trades.
func (b *Backtester) Run(candles []model.Candle, req model.BacktestRequest, desc model.StrategyDescriptor) (model.BacktestResult, error) {
	if err := chaos.Validate(desc); err != nil {
		return model.BacktestResult{}, err
	}

	set, err := indicator.Compute(candles, signal.RequiredIndicators(desc))
	if err != nil {
		return model.BacktestResult{}, fmt.Errorf("%w: %v", chaos.ErrConfig, err)
	}

	entries, exits, err := signal.Sequences(set, len(candles), desc)
	if err != nil {
		return model.BacktestResult{}, fmt.Errorf("%w: %v", chaos.ErrConfig, err)
	}

	sim := NewSimulator(desc, req.InitialCapital)
	trades, equity := sim.Run(candles, entries, exits, set)

	metrics, drawdowns := analytics.Analyze(trades, equity, req.InitialCapital)

	b.logger.Info("backtest complete",
		zap.String("symbol", req.Symbol),
		zap.String("strategy", desc.Name),
		zap.Int("candles", len(candles)),
		zap.Int("trades", metrics.TotalTrades),
		zap.Float64("win_rate", metrics.WinRate),
	)

	return model.BacktestResult{
		Symbol:         req.Symbol,
		Timeframe:      req.Timeframe,
		StrategyName:   desc.Name,
		InitialCapital: req.InitialCapital,
		Metrics:        metrics,
		EquityCurve:    equity,
		DrawdownSeries: drawdowns,
		Trades:         trades,
	}, nil
}
