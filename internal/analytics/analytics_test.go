package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterall1/backtest-0.2/internal/model"
)

func TestAnalyze_Empty(t *testing.T) {
	m, dd := Analyze(nil, nil, 10000)

	assert.Equal(t, 10000.0, m.FinalEquity)
	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0, m.TotalTrades)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.SortinoRatio)
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.Empty(t, dd)
}

func TestAnalyze_TradeBuckets(t *testing.T) {
	trades := []model.Trade{
		{PnL: 10},
		{PnL: 20},
		{PnL: -5},
		{PnL: 0}, // breakeven goes to the losing bucket
	}
	m, _ := Analyze(trades, nil, 10000)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades)
	assert.Equal(t, m.TotalTrades, m.WinningTrades+m.LosingTrades)

	assert.Equal(t, 50.0, m.WinRate)
	assert.Equal(t, 30.0, m.GrossProfit)
	assert.Equal(t, -5.0, m.GrossLoss)
	assert.Equal(t, 15.0, m.AvgWin)
	// avg_loss averages strictly negative PnLs only
	assert.Equal(t, -5.0, m.AvgLoss)
	// |30 / -5| = 6
	assert.Equal(t, 6.0, m.ProfitFactor)
}

func TestAnalyze_ProfitFactorSentinel(t *testing.T) {
	// No losing trades: profit factor degrades to the gross profit itself
	m, _ := Analyze([]model.Trade{{PnL: 30}}, nil, 10000)
	assert.Equal(t, 30.0, m.ProfitFactor)

	// No trades at all: 0
	m, _ = Analyze(nil, nil, 10000)
	assert.Equal(t, 0.0, m.ProfitFactor)
}

func TestAnalyze_FlatEquity(t *testing.T) {
	equity := []model.EquityPoint{
		{Time: 1, Equity: 10000},
		{Time: 2, Equity: 10000},
		{Time: 3, Equity: 10000},
	}
	m, dd := Analyze(nil, equity, 10000)

	// Zero variance must not divide to NaN
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.SortinoRatio)
	assert.Equal(t, 0.0, m.MaxDrawdownPct)
	for _, p := range dd {
		assert.Equal(t, 0.0, p.DrawdownPct)
	}
}

func TestAnalyze_DrawdownSeries(t *testing.T) {
	equity := []model.EquityPoint{
		{Time: 1, Equity: 100},
		{Time: 2, Equity: 110},
		{Time: 3, Equity: 99},
		{Time: 4, Equity: 110},
		{Time: 5, Equity: 121},
	}
	m, dd := Analyze(nil, equity, 100)

	assert.Len(t, dd, len(equity))
	assert.Equal(t, 0.0, dd[0].DrawdownPct)
	assert.Equal(t, 0.0, dd[1].DrawdownPct)
	// 99 against a 110 peak: -10%
	assert.InDelta(t, -10.0, dd[2].DrawdownPct, 1e-9)
	assert.Equal(t, 0.0, dd[3].DrawdownPct)
	assert.Equal(t, 0.0, dd[4].DrawdownPct)

	assert.InDelta(t, -11.0, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, -10.0, m.MaxDrawdownPct, 1e-9)
	assert.Equal(t, 121.0, m.FinalEquity)
	assert.InDelta(t, 21.0, m.TotalReturnPct, 1e-9)
}

func TestAnalyze_SortinoZeroDownside(t *testing.T) {
	// Strictly rising equity has positive mean return but no downside,
	// which resolves to 0 rather than infinity
	equity := []model.EquityPoint{
		{Time: 1, Equity: 100},
		{Time: 2, Equity: 110},
		{Time: 3, Equity: 121},
	}
	m, _ := Analyze(nil, equity, 100)
	assert.Equal(t, 0.0, m.SortinoRatio)
	assert.Greater(t, m.SharpeRatio, 0.0)
}

func TestAnalyze_Idempotent(t *testing.T) {
	trades := []model.Trade{{PnL: 10}, {PnL: -4}}
	equity := []model.EquityPoint{
		{Time: 1, Equity: 10000},
		{Time: 2, Equity: 10010},
		{Time: 3, Equity: 10006},
	}

	m1, dd1 := Analyze(trades, equity, 10000)
	m2, dd2 := Analyze(trades, equity, 10000)
	assert.Equal(t, m1, m2)
	assert.Equal(t, dd1, dd2)
}
