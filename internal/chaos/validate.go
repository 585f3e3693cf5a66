package chaos

import (
	"errors"
	"fmt"

	"github.com/afterall1/backtest-0.2/internal/indicator"
	"github.com/afterall1/backtest-0.2/internal/model"
)

// ErrConfig marks a strategy descriptor the engine refuses to simulate.
// Handlers map it to a client error rather than a server failure.
var ErrConfig = errors.New("invalid strategy configuration")

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Validate rejects malformed descriptors before any simulation work starts.
// The empty-entry-rules case is deliberately legal: it selects the SMA
// crossover fallback, which is why the fallback periods are checked here too.
func Validate(desc model.StrategyDescriptor) error {
	switch desc.Side {
	case model.SideLong, model.SideShort, model.SideBoth:
	default:
		return configErr("unknown side %q", desc.Side)
	}
	if desc.MaxPositions < 1 {
		return configErr("max_positions must be >= 1, got %d", desc.MaxPositions)
	}

	if len(desc.EntryRules) == 0 {
		if desc.SMAFast < 1 || desc.SMASlow < 1 {
			return configErr("fallback SMA periods must be positive (fast=%d slow=%d)", desc.SMAFast, desc.SMASlow)
		}
		if desc.SMAFast >= desc.SMASlow {
			return configErr("fallback fast SMA period %d must be below slow period %d", desc.SMAFast, desc.SMASlow)
		}
	}

	for _, r := range append(append([]model.Rule{}, desc.EntryRules...), desc.ExitRules...) {
		if err := validateRule(r); err != nil {
			return err
		}
	}
	if err := validatePolicy("stop_loss", desc.StopLoss); err != nil {
		return err
	}
	if err := validatePolicy("take_profit", desc.TakeProfit); err != nil {
		return err
	}
	return nil
}

func validateRule(r model.Rule) error {
	if err := indicator.ValidateID(r.Indicator); err != nil {
		return configErr("%v", err)
	}
	switch r.Op {
	case model.OpCrossesAbove, model.OpCrossesBelow, model.OpGreaterThan, model.OpLessThan:
	default:
		return configErr("unknown operator %q", r.Op)
	}
	if (r.Threshold == nil) == (r.Series == "") {
		return configErr("rule on %q needs exactly one of threshold or series", r.Indicator)
	}
	if r.Series != "" {
		if err := indicator.ValidateID(r.Series); err != nil {
			return configErr("%v", err)
		}
	}
	return nil
}

func validatePolicy(name string, p *model.StopPolicy) error {
	if p == nil {
		return nil
	}
	switch p.Mode {
	case model.StopPercent, model.StopATRMultiple:
	default:
		return configErr("%s: unknown mode %q", name, p.Mode)
	}
	if p.Value <= 0 {
		return configErr("%s: distance must be positive, got %g", name, p.Value)
	}
	if p.Mode == model.StopATRMultiple && p.Period < 1 {
		return configErr("%s: ATR period must be >= 1, got %d", name, p.Period)
	}
	return nil
}
