// Package chaos is the data-contract side of the strategy-interpretation
// layer. It turns the three free-text prompt fields of a backtest request
// into a validated StrategyDescriptor. The rule of the surrounding product
// applies here: user constraints have the highest priority and are never
// overridden by anything inferred from the other fields.
package chaos

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/model"
)

// Provider synthesizes a strategy descriptor from a backtest request. The
// production LLM bridge satisfies this from the outside; Synthesizer below is
// the deterministic in-process implementation and fallback.
type Provider interface {
	Synthesize(req model.BacktestRequest) (model.StrategyDescriptor, error)
}

// Synthesizer derives descriptors from prompt text with keyword and pattern
// matching only. It never fails on free text: anything it can not interpret
// degrades to the SMA-crossover fallback.
type Synthesizer struct {
	logger *zap.Logger
}

func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	return &Synthesizer{logger: logger}
}

var (
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	atrRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*x?\s*atr`)
	maxPosRe   = regexp.MustCompile(`max(?:imum)?\s+(\d+)\s+(?:concurrent\s+)?positions?`)
	defaultATR = 14

	// Indicator mentions match whole words only: "rsi" must not fire
	// inside "reversion".
	rsiRe       = regexp.MustCompile(`\brsi\b`)
	macdRe      = regexp.MustCompile(`\bmacd\b`)
	bollingerRe = regexp.MustCompile(`\bbollinger\b`)
	emaRe       = regexp.MustCompile(`\bema\b`)
)

// Synthesize implements Provider. Constraints are parsed first and lock in
// side restriction and risk limits; execution details may only add entry and
// exit rules on top.
func (s *Synthesizer) Synthesize(req model.BacktestRequest) (model.StrategyDescriptor, error) {
	desc := model.StrategyDescriptor{
		Name:         "SMA Crossover",
		MaxPositions: 1,
		Side:         model.SideLong,
		SMAFast:      req.SMAFast,
		SMASlow:      req.SMASlow,
	}

	for _, line := range parseConstraints(req.Constraints) {
		s.applyConstraint(&desc, line)
	}
	s.applyExecutionDetails(&desc, req.ExecutionDetails)
	s.checkDrawingConflicts(desc, req.Drawings)

	if len(desc.EntryRules) > 0 {
		desc.Name = "Chaos AI Strategy"
	}
	if s.logger != nil {
		s.logger.Info("strategy synthesized",
			zap.String("name", desc.Name),
			zap.Int("entry_rules", len(desc.EntryRules)),
			zap.Int("exit_rules", len(desc.ExitRules)),
			zap.String("side", string(desc.Side)),
		)
	}
	return desc, nil
}

// parseConstraints splits the constraints prompt into normalized lines,
// dropping comments and list markers.
func parseConstraints(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, prefix := range []string{"- ", "• ", "* ", "> "} {
			if strings.HasPrefix(line, prefix) {
				line = strings.TrimPrefix(line, prefix)
				break
			}
		}
		if line != "" {
			out = append(out, strings.ToLower(line))
		}
	}
	return out
}

func (s *Synthesizer) applyConstraint(desc *model.StrategyDescriptor, line string) {
	switch {
	case strings.Contains(line, "short only") || strings.Contains(line, "sell only"):
		desc.Side = model.SideShort
	case strings.Contains(line, "long only") || strings.Contains(line, "buy only"):
		desc.Side = model.SideLong
	case strings.Contains(line, "long and short") || strings.Contains(line, "both sides"):
		desc.Side = model.SideBoth
	}

	if m := maxPosRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			desc.MaxPositions = n
		}
	}

	if strings.Contains(line, "stop") {
		if m := atrRe.FindStringSubmatch(line); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			desc.StopLoss = &model.StopPolicy{Mode: model.StopATRMultiple, Value: v, Period: defaultATR}
		} else if m := percentRe.FindStringSubmatch(line); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			desc.StopLoss = &model.StopPolicy{Mode: model.StopPercent, Value: v}
		}
	}
	if strings.Contains(line, "take profit") || strings.Contains(line, "target") {
		if m := percentRe.FindStringSubmatch(line); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			desc.TakeProfit = &model.StopPolicy{Mode: model.StopPercent, Value: v}
		}
	}
}

// checkDrawingConflicts surfaces chart annotations that contradict the
// locked-in side restriction. Constraints hold the highest priority, so a
// conflicting drawing is logged and ignored, never allowed to flip the side.
func (s *Synthesizer) checkDrawingConflicts(desc model.StrategyDescriptor, drawings []model.DrawingMark) {
	if s.logger == nil {
		return
	}
	if desc.Side != model.SideShort {
		return
	}
	for _, d := range drawings {
		typ := strings.ToLower(d.Type)
		if strings.Contains(typ, "buy") || strings.Contains(typ, "long") {
			s.logger.Warn("drawing conflicts with short-only constraint, constraint wins",
				zap.String("drawing_type", d.Type),
				zap.Int64("time", d.Time),
			)
		}
	}
}

// applyExecutionDetails maps indicator mentions in the execution prompt onto
// canned rule pairs. Several mentions stack: the entry sets AND together per
// the conjunctive rule composition of the evaluator.
func (s *Synthesizer) applyExecutionDetails(desc *model.StrategyDescriptor, text string) {
	details := strings.ToLower(text)
	if details == "" {
		return
	}

	f := func(v float64) *float64 { return &v }

	if rsiRe.MatchString(details) {
		desc.EntryRules = append(desc.EntryRules,
			model.Rule{Indicator: "RSI_14", Op: model.OpLessThan, Threshold: f(30)})
		desc.ExitRules = append(desc.ExitRules,
			model.Rule{Indicator: "RSI_14", Op: model.OpGreaterThan, Threshold: f(70)})
	}
	if macdRe.MatchString(details) {
		desc.EntryRules = append(desc.EntryRules,
			model.Rule{Indicator: "MACD_12_26_9", Op: model.OpCrossesAbove, Series: "MACD_SIGNAL_12_26_9"})
		desc.ExitRules = append(desc.ExitRules,
			model.Rule{Indicator: "MACD_12_26_9", Op: model.OpCrossesBelow, Series: "MACD_SIGNAL_12_26_9"})
	}
	if bollingerRe.MatchString(details) {
		desc.EntryRules = append(desc.EntryRules,
			model.Rule{Indicator: "CLOSE", Op: model.OpLessThan, Series: "BB_LOWER_20_2"})
		desc.ExitRules = append(desc.ExitRules,
			model.Rule{Indicator: "CLOSE", Op: model.OpGreaterThan, Series: "BB_MIDDLE_20_2"})
	}
	if emaRe.MatchString(details) {
		desc.EntryRules = append(desc.EntryRules,
			model.Rule{Indicator: "CLOSE", Op: model.OpCrossesAbove, Series: "EMA_21"})
		desc.ExitRules = append(desc.ExitRules,
			model.Rule{Indicator: "CLOSE", Op: model.OpCrossesBelow, Series: "EMA_21"})
	}
}
