// Package signal turns a declarative rule set into per-bar boolean entry and
// exit sequences over precomputed indicator series.
package signal

import (
	"fmt"
	"math"

	"github.com/afterall1/backtest-0.2/internal/indicator"
	"github.com/afterall1/backtest-0.2/internal/model"
)

// FallbackRules builds the fixed two-moving-average crossover used whenever
// a descriptor carries no explicit entry rules. This is a first-class input
// path, not an error: the UI ships only SMA periods unless the AI layer
// produced a richer rule set.
func FallbackRules(desc model.StrategyDescriptor) (entry, exit []model.Rule) {
	fast := indicator.SMAID(desc.SMAFast)
	slow := indicator.SMAID(desc.SMASlow)
	entry = []model.Rule{{Indicator: fast, Op: model.OpCrossesAbove, Series: slow}}
	exit = []model.Rule{{Indicator: fast, Op: model.OpCrossesBelow, Series: slow}}
	return entry, exit
}

// effectiveRules resolves the descriptor's rule sets. The SMA fallback fills
// only the missing side: explicit exit rules survive even when the entry
// side falls back to the crossover.
func effectiveRules(desc model.StrategyDescriptor) (entry, exit []model.Rule) {
	if len(desc.EntryRules) > 0 {
		return desc.EntryRules, desc.ExitRules
	}
	entry, exit = FallbackRules(desc)
	if len(desc.ExitRules) > 0 {
		exit = desc.ExitRules
	}
	return entry, exit
}

// RequiredIndicators lists every indicator identifier the descriptor touches:
// rule operands on both sides, the fallback SMAs when they apply, and the ATR
// demanded by an ATR-multiple stop or target policy.
func RequiredIndicators(desc model.StrategyDescriptor) []string {
	entry, exit := effectiveRules(desc)
	var ids []string
	for _, r := range append(append([]model.Rule{}, entry...), exit...) {
		ids = append(ids, r.Indicator)
		if r.Series != "" {
			ids = append(ids, r.Series)
		}
	}
	for _, p := range []*model.StopPolicy{desc.StopLoss, desc.TakeProfit} {
		if p != nil && p.Mode == model.StopATRMultiple {
			ids = append(ids, indicator.ATRID(p.Period))
		}
	}
	return ids
}

// Sequences evaluates the descriptor's entry and exit rule sets against the
// indicator set, returning one boolean per candle index for each. A rule
// referencing a warm-up (NaN) value is false at that index.
func Sequences(set indicator.Set, n int, desc model.StrategyDescriptor) (entries, exits []bool, err error) {
	entryRules, exitRules := effectiveRules(desc)
	entries, err = Evaluate(set, n, entryRules)
	if err != nil {
		return nil, nil, err
	}
	exits, err = Evaluate(set, n, exitRules)
	if err != nil {
		return nil, nil, err
	}
	return entries, exits, nil
}

// Evaluate ANDs every rule in the set at each index. An empty rule set yields
// all-false: no rules means no signal, not always-signal.
func Evaluate(set indicator.Set, n int, rules []model.Rule) ([]bool, error) {
	out := make([]bool, n)
	if len(rules) == 0 {
		return out, nil
	}

	resolved := make([]struct {
		a, b Operand
		op   model.Operator
	}, len(rules))
	for ri, r := range rules {
		a, ok := set.Lookup(r.Indicator)
		if !ok {
			return nil, fmt.Errorf("rule references uncomputed indicator %q", r.Indicator)
		}
		var b Operand
		switch {
		case r.Series != "":
			s, ok := set.Lookup(r.Series)
			if !ok {
				return nil, fmt.Errorf("rule references uncomputed indicator %q", r.Series)
			}
			b = seriesOperand(s)
		case r.Threshold != nil:
			b = constOperand(*r.Threshold)
		default:
			return nil, fmt.Errorf("rule on %q has neither threshold nor series", r.Indicator)
		}
		resolved[ri].a = seriesOperand(a)
		resolved[ri].b = b
		resolved[ri].op = r.Op
	}

	for i := 0; i < n; i++ {
		hit := true
		for _, r := range resolved {
			ok, err := apply(r.op, r.a, r.b, i)
			if err != nil {
				return nil, err
			}
			if !ok {
				hit = false
				break
			}
		}
		out[i] = hit
	}
	return out, nil
}

// Operand is one side of a comparison: an indicator series or a constant.
type Operand struct {
	series indicator.Series
	value  float64
}

func seriesOperand(s indicator.Series) Operand { return Operand{series: s} }
func constOperand(v float64) Operand           { return Operand{value: v} }

func (o Operand) at(i int) (float64, bool) {
	if o.series == nil {
		return o.value, true
	}
	if !o.series.Valid(i) {
		return math.NaN(), false
	}
	return o.series[i], true
}

func apply(op model.Operator, a, b Operand, i int) (bool, error) {
	av, aok := a.at(i)
	bv, bok := b.at(i)
	if !aok || !bok {
		return false, nil
	}
	switch op {
	case model.OpGreaterThan:
		return av > bv, nil
	case model.OpLessThan:
		return av < bv, nil
	case model.OpCrossesAbove, model.OpCrossesBelow:
		if i == 0 {
			return false, nil
		}
		ap, aok := a.at(i - 1)
		bp, bok := b.at(i - 1)
		if !aok || !bok {
			return false, nil
		}
		if op == model.OpCrossesAbove {
			return ap <= bp && av > bv, nil
		}
		return ap >= bp && av < bv, nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}
