package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/chaos"
	"github.com/afterall1/backtest-0.2/internal/engine"
	"github.com/afterall1/backtest-0.2/internal/model"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"btcusdt", "BTCUSDT"},
		{"BTC-USDT", "BTCUSDT"},
		{"BTC/USDT", "BTCUSDT"},
		{"btc_usdt", "BTCUSDT"},
		{"ETHUSDT", "ETHUSDT"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeSymbol(tc.in))
	}
}

// stubSource serves a canned candle window or a canned failure.
type stubSource struct {
	candles []model.Candle
	err     error

	gotSymbol string
	gotLimit  int
}

func (s *stubSource) LoadCandles(_ context.Context, symbol, _ string, limit int, _, _ *int64) ([]model.Candle, error) {
	s.gotSymbol = symbol
	s.gotLimit = limit
	return s.candles, s.err
}

func (s *stubSource) ListSymbols(context.Context) ([]string, error) {
	return []string{"BTCUSDT"}, nil
}

func newTestService(src engine.CandleSource) (*BacktestService, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := engine.NewWorkerPool(1, 2, engine.NewBacktester(zap.NewNop()), zap.NewNop())
	pool.Start(ctx)
	svc := NewBacktestService(src, pool, chaos.NewSynthesizer(zap.NewNop()), nil, nil, zap.NewNop())
	return svc, cancel
}

func TestBacktestService_Execute(t *testing.T) {
	src := &stubSource{candles: []model.Candle{
		{Time: 1, Open: 100, High: 100, Low: 100, Close: 100},
		{Time: 2, Open: 101, High: 101, Low: 101, Close: 101},
	}}
	svc, cancel := newTestService(src)
	defer cancel()

	ctx, timeout := context.WithTimeout(context.Background(), 2*time.Second)
	defer timeout()

	res, err := svc.Execute(ctx, 1, model.BacktestRequest{Symbol: "btc-usdt"})
	require.NoError(t, err)

	// Defaults applied and symbol normalized before the load
	assert.Equal(t, "BTCUSDT", src.gotSymbol)
	assert.Equal(t, 500, src.gotLimit)
	assert.Equal(t, "BTCUSDT", res.Symbol)
	assert.Equal(t, "1h", res.Timeframe)
	assert.Equal(t, 10000.0, res.InitialCapital)
	assert.Equal(t, 0, res.Metrics.TotalTrades)
}

func TestBacktestService_Execute_DataUnavailable(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	svc, cancel := newTestService(src)
	defer cancel()

	_, err := svc.Execute(context.Background(), 1, model.BacktestRequest{Symbol: "BTCUSDT"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrDataUnavailable))
}

func TestBacktestService_Execute_EmptyWindow(t *testing.T) {
	// A loader returning no rows is still a successful zero-trade run
	svc, cancel := newTestService(&stubSource{})
	defer cancel()

	res, err := svc.Execute(context.Background(), 1, model.BacktestRequest{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Metrics.TotalTrades)
	assert.Equal(t, 10000.0, res.Metrics.FinalEquity)
	assert.Empty(t, res.EquityCurve)
}
