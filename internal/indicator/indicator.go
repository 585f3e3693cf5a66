// Package indicator computes technical indicator series over candle data.
// Every function is a pure transformation: same candles in, same series out.
package indicator

import (
	"math"

	"github.com/afterall1/backtest-0.2/internal/model"
)

// Series is a float64 sequence aligned index-for-index with the input
// candles. Warm-up indices hold NaN, never zero, so a missing value can not
// be mistaken for a real one.
type Series []float64

// Valid reports whether the value at index i exists and is computed.
func (s Series) Valid(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

func nanSeries(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the arithmetic mean of the last p closes. Undefined before index
// p-1.
func SMA(x []float64, p int) Series {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMA is seeded with the SMA of the first p values, then follows
// ema[i] = x[i]*k + ema[i-1]*(1-k) with k = 2/(p+1).
func EMA(x []float64, p int) Series {
	out := nanSeries(len(x))
	if p <= 0 || len(x) < p {
		return out
	}
	k := 2.0 / float64(p+1)
	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
	}
	out[p-1] = seed / float64(p)
	for i := p; i < len(x); i++ {
		out[i] = x[i]*k + out[i-1]*(1-k)
	}
	return out
}

// emaOver runs an EMA over a series that may itself carry leading NaNs,
// seeding from the first p defined values. Used for the MACD signal line.
func emaOver(x Series, p int) Series {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}
	start := 0
	for start < len(x) && math.IsNaN(x[start]) {
		start++
	}
	if len(x)-start < p {
		return out
	}
	k := 2.0 / float64(p+1)
	var seed float64
	for i := start; i < start+p; i++ {
		seed += x[i]
	}
	out[start+p-1] = seed / float64(p)
	for i := start + p; i < len(x); i++ {
		out[i] = x[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI uses Wilder's smoothing: the first average gain/loss is the simple
// mean over the first p changes, then avg = (avg*(p-1) + change)/p.
// RSI = 100 when the average loss is zero. Undefined before index p.
func RSI(x []float64, p int) Series {
	out := nanSeries(len(x))
	if p <= 0 || len(x) <= p {
		return out
	}
	var avgGain, avgLoss float64
	for i := 1; i <= p; i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)
	out[p] = rsiValue(avgGain, avgLoss)
	for i := p + 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA(signal) of the MACD line) and the histogram (line - signal).
func MACD(x []float64, fast, slow, signal int) (line, sig, hist Series) {
	emaFast := EMA(x, fast)
	emaSlow := EMA(x, slow)
	line = nanSeries(len(x))
	for i := range x {
		if emaFast.Valid(i) && emaSlow.Valid(i) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}
	sig = emaOver(line, signal)
	hist = nanSeries(len(x))
	for i := range x {
		if line.Valid(i) && sig.Valid(i) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// Bollinger returns the upper, middle and lower bands: SMA(p) +/- k stddev.
// The standard deviation is the sample one (n-1 divisor).
func Bollinger(x []float64, p int, k float64) (upper, middle, lower Series) {
	n := len(x)
	upper, middle, lower = nanSeries(n), nanSeries(n), nanSeries(n)
	if p < 2 {
		return
	}
	var sum, sum2 float64
	for i := 0; i < n; i++ {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i >= p {
			sum -= x[i-p]
			sum2 -= x[i-p] * x[i-p]
		}
		if i < p-1 {
			continue
		}
		m := sum / float64(p)
		v := (sum2 - float64(p)*m*m) / float64(p-1)
		if v < 0 {
			v = 0
		}
		sd := math.Sqrt(v)
		middle[i] = m
		upper[i] = m + k*sd
		lower[i] = m - k*sd
	}
	return
}

// ATR is the Wilder-smoothed average True Range. TR at bar 0 is high-low;
// afterwards TR = max(high-low, |high-prevClose|, |low-prevClose|).
// Undefined before index p-1.
func ATR(candles []model.Candle, p int) Series {
	out := nanSeries(len(candles))
	if p <= 0 || len(candles) < p {
		return out
	}
	tr := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			tr[i] = c.High - c.Low
			continue
		}
		pc := candles[i-1].Close
		tr[i] = math.Max(c.High-c.Low, math.Max(math.Abs(c.High-pc), math.Abs(c.Low-pc)))
	}
	var sum float64
	for i := 0; i < p; i++ {
		sum += tr[i]
	}
	out[p-1] = sum / float64(p)
	for i := p; i < len(candles); i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}
