package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afterall1/backtest-0.2/internal/model"
)

func TestValidateID(t *testing.T) {
	valid := []string{
		"CLOSE", "close",
		"SMA_10", "ema_21", "RSI_14", "ATR_14",
		"MACD_12_26_9", "MACD_SIGNAL_12_26_9", "MACD_HIST_12_26_9",
		"BB_UPPER_20_2", "BB_MIDDLE_20_2", "BB_LOWER_20_2.5",
	}
	for _, id := range valid {
		assert.NoError(t, ValidateID(id), id)
	}

	invalid := []string{
		"", "SMA", "SMA_", "SMA_0", "SMA_-5", "SMA_abc",
		"MACD_12_26", "BB_20_2", "BB_SIDE_20_2", "BB_UPPER_1_2",
		"VWAP_10", "RSI_14_2",
	}
	for _, id := range invalid {
		assert.Error(t, ValidateID(id), id)
	}
}

func TestCompute(t *testing.T) {
	candles := make([]model.Candle, 40)
	for i := range candles {
		px := 100 + float64(i)
		candles[i] = model.Candle{Time: int64(i), Open: px, High: px + 1, Low: px - 1, Close: px, Volume: 10}
	}

	set, err := Compute(candles, []string{"sma_5", "SMA_5", "MACD_12_26_9", "close"})
	require.NoError(t, err)

	// CLOSE is always present
	closes, ok := set.Lookup("CLOSE")
	require.True(t, ok)
	assert.Equal(t, 100.0, closes[0])

	sma, ok := set.Lookup("sma_5")
	require.True(t, ok)
	// Closes 100..104 average to 102
	assert.InDelta(t, 102.0, sma[4], 1e-9)

	// Requesting MACD materializes the whole trio under one computation
	for _, id := range []string{"MACD_12_26_9", "MACD_SIGNAL_12_26_9", "MACD_HIST_12_26_9"} {
		_, ok := set.Lookup(id)
		assert.True(t, ok, id)
	}
}

func TestCompute_BollingerTrio(t *testing.T) {
	candles := make([]model.Candle, 25)
	for i := range candles {
		candles[i] = model.Candle{Time: int64(i), Close: float64(i)}
	}

	set, err := Compute(candles, []string{"BB_LOWER_20_2"})
	require.NoError(t, err)
	for _, id := range []string{"BB_UPPER_20_2", "BB_MIDDLE_20_2", "BB_LOWER_20_2"} {
		_, ok := set.Lookup(id)
		assert.True(t, ok, id)
	}
}

func TestCompute_NonCanonicalSpelling(t *testing.T) {
	candles := make([]model.Candle, 40)
	for i := range candles {
		candles[i] = model.Candle{Time: int64(i), Close: float64(100 + i%7)}
	}

	set, err := Compute(candles, []string{"BB_LOWER_20_2.0", "MACD_12_26_09"})
	require.NoError(t, err)

	// A validly parsed spelling must stay resolvable as written and point
	// at the same series as the canonical key
	alias, ok := set.Lookup("BB_LOWER_20_2.0")
	require.True(t, ok)
	canonical, ok := set.Lookup("BB_LOWER_20_2")
	require.True(t, ok)
	assert.Equal(t, canonical[30], alias[30])

	mAlias, ok := set.Lookup("MACD_12_26_09")
	require.True(t, ok)
	mCanonical, ok := set.Lookup("MACD_12_26_9")
	require.True(t, ok)
	assert.Equal(t, mCanonical[35], mAlias[35])
}

func TestCompute_UnknownIndicator(t *testing.T) {
	_, err := Compute(nil, []string{"VWAP_10"})
	assert.Error(t, err)
}
