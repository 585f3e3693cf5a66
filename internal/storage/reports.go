// Package storage persists completed backtest summaries so past runs can be
// listed and compared without rerunning the pipeline.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/infrastructure"
	"github.com/afterall1/backtest-0.2/internal/model"
)

type ReportStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewReportStore(pool *pgxpool.Pool, logger *zap.Logger) *ReportStore {
	return &ReportStore{pool: pool, logger: logger}
}

// Save inserts the scalar summary of one run. The full equity curve and trade
// list are not stored; they are cheap to recompute and large to keep.
func (s *ReportStore) Save(ctx context.Context, userID int64, res model.BacktestResult) error {
	infrastructure.DBQueryRate.WithLabelValues("backtest_reports").Inc()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO backtest_reports
			(user_id, symbol, timeframe, strategy_name, initial_capital,
			 final_equity, total_trades, win_rate, profit_factor,
			 sharpe_ratio, sortino_ratio, max_drawdown_pct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())`,
		userID, res.Symbol, res.Timeframe, res.StrategyName, res.InitialCapital,
		res.Metrics.FinalEquity, res.Metrics.TotalTrades, res.Metrics.WinRate,
		res.Metrics.ProfitFactor, res.Metrics.SharpeRatio,
		res.Metrics.SortinoRatio, res.Metrics.MaxDrawdownPct,
	)
	if err != nil {
		return fmt.Errorf("insert backtest report: %w", err)
	}
	return nil
}
