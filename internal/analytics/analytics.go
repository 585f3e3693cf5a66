// Package analytics derives aggregate risk/return metrics and the drawdown
// series from a completed simulation. Everything here is a pure function of
// the trade list and equity curve, so recomputing over the same inputs is
// bit-identical.
package analytics

import (
	"math"

	"github.com/afterall1/backtest-0.2/internal/model"
)

// annualization factor for 24/7 crypto markets: 365 trading days.
const tradingDaysCrypto = 365

// Analyze computes the full metric set plus the per-bar drawdown series.
// Conventions, fixed and tested:
//   - Returns are per-bar equity percentage changes (first bar = 0).
//   - Sharpe uses the sample standard deviation and sqrt(365) annualization;
//     a zero-variance series yields 0.
//   - Sortino's denominator is the RMS of strictly negative returns; zero
//     downside yields 0.
//   - Drawdowns are non-positive (running peak convention).
//   - A breakeven trade (pnl == 0) counts as a losing trade, keeping
//     total == winning + losing; avg_loss averages strictly negative PnLs.
//   - Profit factor sentinel: gross_profit when there are no losses but some
//     profit, 0 when both sides are 0.
func Analyze(trades []model.Trade, equity []model.EquityPoint, initialCapital float64) (model.PerformanceMetrics, []model.DrawdownPoint) {
	m := model.PerformanceMetrics{FinalEquity: initialCapital}
	drawdowns := drawdownSeries(equity)

	if len(equity) > 0 {
		m.FinalEquity = equity[len(equity)-1].Equity
		m.MaxDrawdown, m.MaxDrawdownPct = maxDrawdown(equity)
	}

	m.TotalReturn = m.FinalEquity - initialCapital
	if initialCapital != 0 {
		m.TotalReturnPct = m.TotalReturn / initialCapital * 100
	}

	returns := barReturns(equity)
	m.SharpeRatio = sharpe(returns)
	m.SortinoRatio = sortino(returns)

	m.TotalTrades = len(trades)
	var grossProfit, grossLoss float64
	var wins, strictLosses int
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			wins++
			grossProfit += t.PnL
		case t.PnL < 0:
			strictLosses++
			grossLoss += t.PnL
		}
	}
	m.WinningTrades = wins
	m.LosingTrades = m.TotalTrades - wins
	m.GrossProfit = grossProfit
	m.GrossLoss = grossLoss
	if m.TotalTrades > 0 {
		m.WinRate = float64(wins) / float64(m.TotalTrades) * 100
	}
	if wins > 0 {
		m.AvgWin = grossProfit / float64(wins)
	}
	if strictLosses > 0 {
		m.AvgLoss = grossLoss / float64(strictLosses)
	}
	m.ProfitFactor = profitFactor(grossProfit, grossLoss)

	return m, drawdowns
}

// barReturns is the per-bar percentage change of equity. The first bar has
// no predecessor and contributes 0.
func barReturns(equity []model.EquityPoint) []float64 {
	if len(equity) == 0 {
		return nil
	}
	out := make([]float64, len(equity))
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev != 0 {
			out[i] = (equity[i].Equity - prev) / prev
		}
	}
	return out
}

func meanStd(xs []float64) (mean, std float64) {
	n := len(xs)
	if n == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

func sharpe(returns []float64) float64 {
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysCrypto)
}

func sortino(returns []float64) float64 {
	mean, _ := meanStd(returns)
	var ss float64
	var n int
	for _, r := range returns {
		if r < 0 {
			ss += r * r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	downside := math.Sqrt(ss / float64(n))
	if downside == 0 {
		return 0
	}
	return mean / downside * math.Sqrt(tradingDaysCrypto)
}

// drawdownSeries tracks the running equity peak and reports each bar's
// decline from it as a non-positive percentage.
func drawdownSeries(equity []model.EquityPoint) []model.DrawdownPoint {
	out := make([]model.DrawdownPoint, len(equity))
	peak := math.Inf(-1)
	for i, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		pct := 0.0
		if peak > 0 {
			pct = (p.Equity - peak) / peak * 100
		}
		out[i] = model.DrawdownPoint{Time: p.Time, DrawdownPct: pct}
	}
	return out
}

func maxDrawdown(equity []model.EquityPoint) (dd, ddPct float64) {
	peak := math.Inf(-1)
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		d := p.Equity - peak
		if d < dd {
			dd = d
		}
		if peak > 0 {
			if pct := d / peak * 100; pct < ddPct {
				ddPct = pct
			}
		}
	}
	return dd, ddPct
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return grossProfit
		}
		return 0
	}
	return math.Abs(grossProfit / grossLoss)
}
