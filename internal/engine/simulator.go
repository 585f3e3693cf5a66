package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/afterall1/backtest-0.2/internal/indicator"
	"github.com/afterall1/backtest-0.2/internal/model"
)

// position is an open trade owned by the simulator. Stop and target are
// absolute prices; NaN means the corresponding exit is not armed.
type position struct {
	entryIdx   int
	entryTime  int64
	entryPrice float64
	side       model.Side
	stop       float64
	target     float64
}

// Simulator walks the candle series once, applying entry/exit signals and
// risk policy. Position size is one unit of the instrument, so PnL is a
// price difference; equity tracks realized PnL only. Decimal arithmetic
// keeps the capital ledger exact across long runs.
type Simulator struct {
	desc    model.StrategyDescriptor
	capital decimal.Decimal
}

func NewSimulator(desc model.StrategyDescriptor, initialCapital float64) *Simulator {
	return &Simulator{
		desc:    desc,
		capital: decimal.NewFromFloat(initialCapital),
	}
}

// Run simulates the full series. It always returns one equity point per
// candle; positions still open at the last bar are discarded, not force
// closed, so the trade list holds completed round trips only.
func (s *Simulator) Run(candles []model.Candle, entries, exits []bool, set indicator.Set) ([]model.Trade, []model.EquityPoint) {
	trades := make([]model.Trade, 0)
	equity := make([]model.EquityPoint, 0, len(candles))
	open := make([]*position, 0, s.desc.MaxPositions)

	for i, c := range candles {
		// Exits first, in strict priority: stop, target, then signal.
		// A stop and target touched in the same bar resolves to the stop,
		// the conservative worst-case fill.
		remaining := open[:0]
		for _, p := range open {
			if p.entryIdx == i {
				remaining = append(remaining, p)
				continue
			}
			if price, reason, hit := p.exitAt(c, exits[i]); hit {
				trades = append(trades, s.close(p, c.Time, price, reason))
			} else {
				remaining = append(remaining, p)
			}
		}
		open = remaining

		if entries[i] && len(open) < s.desc.MaxPositions {
			if p, ok := s.enter(i, c, set); ok {
				open = append(open, p)
			}
		}

		eq, _ := s.capital.Float64()
		equity = append(equity, model.EquityPoint{Time: c.Time, Equity: eq})
	}
	return trades, equity
}

// exitAt checks this bar against the position's exit conditions.
func (p *position) exitAt(c model.Candle, exitSignal bool) (price float64, reason model.ExitReason, hit bool) {
	long := p.side == model.SideLong
	if !math.IsNaN(p.stop) {
		if (long && c.Low <= p.stop) || (!long && c.High >= p.stop) {
			return p.stop, model.ExitStop, true
		}
	}
	if !math.IsNaN(p.target) {
		if (long && c.High >= p.target) || (!long && c.Low <= p.target) {
			return p.target, model.ExitTarget, true
		}
	}
	if exitSignal {
		return c.Close, model.ExitSignal, true
	}
	return 0, "", false
}

// enter opens a position at the bar close, deriving stop and target from the
// risk policy. An ATR-multiple policy with no ATR value yet (warm-up) blocks
// the entry: a position must never start without its mandated protection.
func (s *Simulator) enter(i int, c model.Candle, set indicator.Set) (*position, bool) {
	side := model.SideLong
	if s.desc.Side == model.SideShort {
		side = model.SideShort
	}

	p := &position{
		entryIdx:   i,
		entryTime:  c.Time,
		entryPrice: c.Close,
		side:       side,
		stop:       math.NaN(),
		target:     math.NaN(),
	}

	long := side == model.SideLong
	if s.desc.StopLoss != nil {
		dist, ok := policyDistance(s.desc.StopLoss, c.Close, i, set)
		if !ok {
			return nil, false
		}
		if long {
			p.stop = c.Close - dist
		} else {
			p.stop = c.Close + dist
		}
	}
	if s.desc.TakeProfit != nil {
		dist, ok := policyDistance(s.desc.TakeProfit, c.Close, i, set)
		if !ok {
			return nil, false
		}
		if long {
			p.target = c.Close + dist
		} else {
			p.target = c.Close - dist
		}
	}
	return p, true
}

// policyDistance resolves a stop/target policy to an absolute price distance
// at the entry bar.
func policyDistance(p *model.StopPolicy, entry float64, i int, set indicator.Set) (float64, bool) {
	switch p.Mode {
	case model.StopPercent:
		return entry * p.Value / 100, true
	case model.StopATRMultiple:
		atr, ok := set.Lookup(indicator.ATRID(p.Period))
		if !ok || !atr.Valid(i) {
			return 0, false
		}
		return p.Value * atr[i], true
	}
	return 0, false
}

// close realizes a position into an immutable Trade and updates the capital
// ledger.
func (s *Simulator) close(p *position, exitTime int64, exitPrice float64, reason model.ExitReason) model.Trade {
	entry := decimal.NewFromFloat(p.entryPrice)
	exit := decimal.NewFromFloat(exitPrice)

	var pnl decimal.Decimal
	if p.side == model.SideLong {
		pnl = exit.Sub(entry)
	} else {
		pnl = entry.Sub(exit)
	}
	s.capital = s.capital.Add(pnl)

	pnlF, _ := pnl.Float64()
	pct := 0.0
	if p.entryPrice != 0 {
		pctD, _ := pnl.Div(entry).Float64()
		pct = pctD * 100
	}

	return model.Trade{
		EntryTime:  p.entryTime,
		ExitTime:   exitTime,
		EntryPrice: p.entryPrice,
		ExitPrice:  exitPrice,
		Side:       p.side,
		PnL:        pnlF,
		PnLPercent: pct,
		ExitReason: reason,
	}
}
