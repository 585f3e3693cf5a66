package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/afterall1/backtest-0.2/internal/infrastructure"
	"github.com/afterall1/backtest-0.2/internal/model"
)

// ErrDataUnavailable distinguishes a broken candle store from an empty one.
// An empty window is a valid zero-trade backtest; a store failure is not.
var ErrDataUnavailable = errors.New("market data unavailable")

// CandleSource is the engine-side view of the external market-data
// collaborator. The engine never fetches from an exchange itself: candles
// are whatever the store, fed upstream, contains for the requested window.
type CandleSource interface {
	LoadCandles(ctx context.Context, symbol, timeframe string, limit int, start, end *int64) ([]model.Candle, error)
	ListSymbols(ctx context.Context) ([]string, error)
}

// DataLoader reads candles from the Postgres candle store.
type DataLoader struct {
	pool *pgxpool.Pool
}

func NewDataLoader(pool *pgxpool.Pool) *DataLoader {
	return &DataLoader{pool: pool}
}

// LoadCandles returns candles in ascending time order. Without a date range
// it returns the most recent `limit` bars; with one, the oldest `limit` bars
// inside the range. An empty result is not an error.
func (l *DataLoader) LoadCandles(ctx context.Context, symbol, timeframe string, limit int, start, end *int64) ([]model.Candle, error) {
	infrastructure.DBQueryRate.WithLabelValues("candles").Inc()

	query := `
		SELECT time, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND timeframe = $2`
	args := []interface{}{symbol, timeframe}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND time >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND time <= $%d", len(args))
	}

	descending := start == nil && end == nil
	if descending {
		query += " ORDER BY time DESC"
	} else {
		query += " ORDER BY time ASC"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candles: %w", err)
	}

	if descending {
		for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
			candles[i], candles[j] = candles[j], candles[i]
		}
	}
	return candles, nil
}

// ListSymbols returns every symbol present in the candle store.
func (l *DataLoader) ListSymbols(ctx context.Context) ([]string, error) {
	infrastructure.DBQueryRate.WithLabelValues("symbols").Inc()

	rows, err := l.pool.Query(ctx, "SELECT DISTINCT symbol FROM candles ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
