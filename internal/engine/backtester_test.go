package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/chaos"
	"github.com/afterall1/backtest-0.2/internal/model"
)

func threshold(v float64) *float64 { return &v }

func TestBacktester_EndToEnd(t *testing.T) {
	// Price pops above 11, drops under 10, pops again and stays
	closes := []float64{10, 12, 12, 9, 9, 12}
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Time: int64(i + 1), Open: c, High: c, Low: c, Close: c}
	}

	desc := model.StrategyDescriptor{
		Name:         "breakout",
		Side:         model.SideLong,
		MaxPositions: 1,
		EntryRules:   []model.Rule{{Indicator: "CLOSE", Op: model.OpGreaterThan, Threshold: threshold(11)}},
		ExitRules:    []model.Rule{{Indicator: "CLOSE", Op: model.OpLessThan, Threshold: threshold(10)}},
	}
	req := model.BacktestRequest{Symbol: "BTCUSDT", Timeframe: "1h", InitialCapital: 10000}

	b := NewBacktester(zap.NewNop())
	res, err := b.Run(candles, req, desc)
	require.NoError(t, err)

	// Enter at 12 on bar 2, exit on signal at 9 on bar 4; the bar-6
	// re-entry stays open and is discarded
	require.Len(t, res.Trades, 1)
	assert.Equal(t, int64(2), res.Trades[0].EntryTime)
	assert.Equal(t, int64(4), res.Trades[0].ExitTime)
	assert.InDelta(t, -3.0, res.Trades[0].PnL, 1e-9)

	assert.Equal(t, 1, res.Metrics.TotalTrades)
	assert.Equal(t, 0, res.Metrics.WinningTrades)
	assert.InDelta(t, 9997.0, res.Metrics.FinalEquity, 1e-9)
	assert.Len(t, res.EquityCurve, len(candles))
	assert.Len(t, res.DrawdownSeries, len(candles))
	assert.Equal(t, "breakout", res.StrategyName)
}

func TestBacktester_RisingMarketFallback(t *testing.T) {
	// Monotonic rise under the SMA(2)/SMA(5) crossover fallback: the fast
	// average never dips below the slow one after warm-up, so at most one
	// entry can occur and capital can not shrink
	candles := make([]model.Candle, 50)
	for i := range candles {
		px := 100 + float64(i)
		candles[i] = model.Candle{Time: int64(i + 1), Open: px, High: px, Low: px, Close: px}
	}
	desc := model.StrategyDescriptor{Side: model.SideLong, MaxPositions: 1, SMAFast: 2, SMASlow: 5}
	req := model.BacktestRequest{Symbol: "BTCUSDT", InitialCapital: 10000}

	b := NewBacktester(zap.NewNop())
	res, err := b.Run(candles, req, desc)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Metrics.TotalTrades, 1)
	for _, tr := range res.Trades {
		assert.NotEqual(t, model.ExitStop, tr.ExitReason)
	}
	assert.GreaterOrEqual(t, res.Metrics.FinalEquity, 10000.0)
	assert.Len(t, res.EquityCurve, 50)
}

func TestBacktester_EmptyWindow(t *testing.T) {
	desc := model.StrategyDescriptor{Side: model.SideLong, MaxPositions: 1, SMAFast: 10, SMASlow: 30}
	req := model.BacktestRequest{Symbol: "BTCUSDT", Timeframe: "1h", InitialCapital: 10000}

	b := NewBacktester(zap.NewNop())
	res, err := b.Run(nil, req, desc)

	// No data is a valid zero-trade run, not an error
	require.NoError(t, err)
	assert.Equal(t, 0, res.Metrics.TotalTrades)
	assert.Equal(t, 10000.0, res.Metrics.FinalEquity)
	assert.Empty(t, res.EquityCurve)
}

func TestBacktester_InsufficientHistory(t *testing.T) {
	// Five bars against period-30 averages: warm-up suppresses everything
	candles := make([]model.Candle, 5)
	for i := range candles {
		candles[i] = model.Candle{Time: int64(i + 1), Close: 100}
	}
	desc := model.StrategyDescriptor{Side: model.SideLong, MaxPositions: 1, SMAFast: 10, SMASlow: 30}
	req := model.BacktestRequest{Symbol: "BTCUSDT", InitialCapital: 10000}

	b := NewBacktester(zap.NewNop())
	res, err := b.Run(candles, req, desc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Metrics.TotalTrades)
	assert.Len(t, res.EquityCurve, 5)
}

func TestBacktester_InvalidDescriptor(t *testing.T) {
	desc := model.StrategyDescriptor{Side: model.SideLong, MaxPositions: 1, SMAFast: 30, SMASlow: 10}
	req := model.BacktestRequest{Symbol: "BTCUSDT", InitialCapital: 10000}

	b := NewBacktester(zap.NewNop())
	_, err := b.Run(nil, req, desc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, chaos.ErrConfig))
}
