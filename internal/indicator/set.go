package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/afterall1/backtest-0.2/internal/model"
)

// CloseID names the raw close-price series, usable anywhere an indicator
// identifier is accepted.
const CloseID = "CLOSE"

// Set maps normalized indicator identifiers to their computed series.
type Set map[string]Series

// Lookup returns the series for id, resolving CloseID to the raw closes.
func (s Set) Lookup(id string) (Series, bool) {
	v, ok := s[Normalize(id)]
	return v, ok
}

// Normalize upper-cases an identifier so "ema_21" and "EMA_21" are the same
// series.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// spec is a parsed indicator identifier.
type spec struct {
	name   string
	params []float64
}

// parseID splits identifiers of the form NAME_p1_p2... and validates name
// and arity. Accepted forms:
//
//	CLOSE
//	SMA_n  EMA_n  RSI_n  ATR_n
//	MACD_f_s_g  MACD_SIGNAL_f_s_g  MACD_HIST_f_s_g
//	BB_UPPER_n_k  BB_MIDDLE_n_k  BB_LOWER_n_k
func parseID(id string) (spec, error) {
	id = Normalize(id)
	if id == CloseID {
		return spec{name: CloseID}, nil
	}

	parts := strings.Split(id, "_")
	name := parts[0]
	rest := parts[1:]
	switch name {
	case "MACD":
		if len(rest) > 0 && (rest[0] == "SIGNAL" || rest[0] == "HIST") {
			name = "MACD_" + rest[0]
			rest = rest[1:]
		}
	case "BB":
		if len(rest) == 0 {
			return spec{}, fmt.Errorf("indicator %q: missing band selector", id)
		}
		switch rest[0] {
		case "UPPER", "MIDDLE", "LOWER":
			name = "BB_" + rest[0]
			rest = rest[1:]
		default:
			return spec{}, fmt.Errorf("indicator %q: unknown band %q", id, rest[0])
		}
	}

	arity := map[string]int{
		"SMA": 1, "EMA": 1, "RSI": 1, "ATR": 1,
		"MACD": 3, "MACD_SIGNAL": 3, "MACD_HIST": 3,
		"BB_UPPER": 2, "BB_MIDDLE": 2, "BB_LOWER": 2,
	}
	want, ok := arity[name]
	if !ok {
		return spec{}, fmt.Errorf("unknown indicator %q", id)
	}
	if len(rest) != want {
		return spec{}, fmt.Errorf("indicator %q: want %d parameters, got %d", id, want, len(rest))
	}

	params := make([]float64, len(rest))
	for i, p := range rest {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v <= 0 {
			return spec{}, fmt.Errorf("indicator %q: bad parameter %q", id, p)
		}
		params[i] = v
	}
	if strings.HasPrefix(name, "BB_") && params[0] < 2 {
		return spec{}, fmt.Errorf("indicator %q: Bollinger period must be >= 2", id)
	}
	return spec{name: name, params: params}, nil
}

// ValidateID reports whether id names a computable indicator.
func ValidateID(id string) error {
	_, err := parseID(id)
	return err
}

// Compute evaluates every requested identifier over the candle series.
// Duplicate and CLOSE identifiers are deduplicated; MACD variants sharing
// parameters are computed once.
func Compute(candles []model.Candle, ids []string) (Set, error) {
	closes := model.Closes(candles)
	set := make(Set, len(ids)+1)
	set[CloseID] = closes

	for _, raw := range ids {
		id := Normalize(raw)
		if _, done := set[id]; done {
			continue
		}
		sp, err := parseID(id)
		if err != nil {
			return nil, err
		}
		switch sp.name {
		case CloseID:
			// already present
		case "SMA":
			set[id] = SMA(closes, int(sp.params[0]))
		case "EMA":
			set[id] = EMA(closes, int(sp.params[0]))
		case "RSI":
			set[id] = RSI(closes, int(sp.params[0]))
		case "ATR":
			set[id] = ATR(candles, int(sp.params[0]))
		case "MACD", "MACD_SIGNAL", "MACD_HIST":
			f, s, g := int(sp.params[0]), int(sp.params[1]), int(sp.params[2])
			line, sig, hist := MACD(closes, f, s, g)
			suffix := fmt.Sprintf("_%d_%d_%d", f, s, g)
			set["MACD"+suffix] = line
			set["MACD_SIGNAL"+suffix] = sig
			set["MACD_HIST"+suffix] = hist
			// The requested spelling may differ from the canonical key
			// ("MACD_12_26_09"): keep it resolvable as written
			set[id] = set[sp.name+suffix]
		case "BB_UPPER", "BB_MIDDLE", "BB_LOWER":
			p, k := int(sp.params[0]), sp.params[1]
			upper, middle, lower := Bollinger(closes, p, k)
			suffix := fmt.Sprintf("_%s_%s",
				strconv.FormatFloat(sp.params[0], 'f', -1, 64),
				strconv.FormatFloat(k, 'f', -1, 64))
			set["BB_UPPER"+suffix] = upper
			set["BB_MIDDLE"+suffix] = middle
			set["BB_LOWER"+suffix] = lower
			set[id] = set[sp.name+suffix]
		}
	}
	return set, nil
}

// ATRID builds the identifier for an ATR of the given period.
func ATRID(period int) string {
	return fmt.Sprintf("ATR_%d", period)
}

// SMAID builds the identifier for an SMA of the given period.
func SMAID(period int) string {
	return fmt.Sprintf("SMA_%d", period)
}
