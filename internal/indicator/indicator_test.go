package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterall1/backtest-0.2/internal/model"
)

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	// Warm-up indices are NaN, never zero
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.False(t, out.Valid(1))

	// (1+2+3)/3 = 2, (2+3+4)/3 = 3, (3+4+5)/3 = 4
	assert.Equal(t, 2.0, out[2])
	assert.Equal(t, 3.0, out[3])
	assert.Equal(t, 4.0, out[4])
}

func TestSMA_ShortSeries(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for i := range out {
		assert.False(t, out.Valid(i))
	}
}

func TestEMA(t *testing.T) {
	out := EMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))

	// Seed = SMA(3) = 2, k = 2/4 = 0.5
	// ema[3] = 4*0.5 + 2*0.5 = 3
	// ema[4] = 5*0.5 + 3*0.5 = 4
	assert.Equal(t, 2.0, out[2])
	assert.Equal(t, 3.0, out[3])
	assert.Equal(t, 4.0, out[4])
}

func TestRSI_WarmUp(t *testing.T) {
	// 10 bars with a period-14 RSI: every index is undefined
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := RSI(x, 14)
	for i := range out {
		assert.False(t, out.Valid(i))
	}
}

func TestRSI_Values(t *testing.T) {
	// Period 2 over 1,2,3,2:
	// first two changes are gains -> avgLoss = 0 -> RSI = 100
	// then change -1: avgGain = (1*1+0)/2 = 0.5, avgLoss = (0*1+1)/2 = 0.5
	// RS = 1 -> RSI = 50
	out := RSI([]float64{1, 2, 3, 2}, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 100.0, out[2])
	assert.InDelta(t, 50.0, out[3], 1e-9)
}

func TestRSI_AllGains(t *testing.T) {
	out := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)
	for i := 3; i < len(out); i++ {
		assert.Equal(t, 100.0, out[i])
	}
}

func TestMACD_ConstantPrice(t *testing.T) {
	// Flat prices: both EMAs equal the price, so line, signal and histogram
	// are all zero once defined
	x := []float64{10, 10, 10, 10, 10, 10, 10, 10}
	line, sig, hist := MACD(x, 2, 3, 2)

	assert.False(t, line.Valid(1))
	assert.Equal(t, 0.0, line[2])
	assert.False(t, sig.Valid(2))
	assert.Equal(t, 0.0, sig[3])
	assert.Equal(t, 0.0, hist[3])
	assert.Equal(t, 0.0, hist[len(x)-1])
}

func TestBollinger(t *testing.T) {
	upper, middle, lower := Bollinger([]float64{1, 2, 3, 4, 5}, 3, 2)

	assert.False(t, middle.Valid(1))

	// Window {1,2,3}: mean 2, sample variance ((1)+(0)+(1))/2 = 1, sd 1
	assert.InDelta(t, 2.0, middle[2], 1e-9)
	assert.InDelta(t, 4.0, upper[2], 1e-9)
	assert.InDelta(t, 0.0, lower[2], 1e-9)

	// Window {3,4,5}: mean 4, sd 1
	assert.InDelta(t, 4.0, middle[4], 1e-9)
	assert.InDelta(t, 6.0, upper[4], 1e-9)
	assert.InDelta(t, 2.0, lower[4], 1e-9)
}

func TestATR(t *testing.T) {
	candles := []model.Candle{
		{Time: 1, Open: 11, High: 12, Low: 10, Close: 11},
		{Time: 2, Open: 11, High: 13, Low: 11, Close: 12},
		{Time: 3, Open: 12, High: 15, Low: 12, Close: 14},
	}
	out := ATR(candles, 2)

	assert.True(t, math.IsNaN(out[0]))
	// TR = {2, 2, 3}; seed = (2+2)/2 = 2; then (2*1+3)/2 = 2.5
	assert.InDelta(t, 2.0, out[1], 1e-9)
	assert.InDelta(t, 2.5, out[2], 1e-9)
}
