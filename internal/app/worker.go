package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/chaos"
	"github.com/afterall1/backtest-0.2/internal/engine"
	"github.com/afterall1/backtest-0.2/internal/infrastructure"
	"github.com/afterall1/backtest-0.2/internal/model"
	"github.com/afterall1/backtest-0.2/internal/storage"
)

// NormalizeSymbol unifies symbol formats into a standard one (e.g. BTCUSDT)
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// BacktestService ties the request path together: candle loading, strategy
// synthesis, the worker pool, and report fan-out.
type BacktestService struct {
	loader  engine.CandleSource
	pool    *engine.WorkerPool
	synth   chaos.Provider
	js      nats.JetStreamContext
	reports *storage.ReportStore
	logger  *zap.Logger
}

func NewBacktestService(
	loader engine.CandleSource,
	pool *engine.WorkerPool,
	synth chaos.Provider,
	js nats.JetStreamContext,
	reports *storage.ReportStore,
	logger *zap.Logger,
) *BacktestService {
	return &BacktestService{
		loader:  loader,
		pool:    pool,
		synth:   synth,
		js:      js,
		reports: reports,
		logger:  logger,
	}
}

// Execute runs one backtest end to end. The pipeline itself never blocks on
// I/O, so the request context only guards the candle load and queue wait.
func (s *BacktestService) Execute(ctx context.Context, userID int64, req model.BacktestRequest) (model.BacktestResult, error) {
	req.Defaults()
	req.Symbol = NormalizeSymbol(req.Symbol)
	started := time.Now()

	candles, err := s.loader.LoadCandles(ctx, req.Symbol, req.Timeframe, req.Limit, req.StartDate, req.EndDate)
	if err != nil {
		infrastructure.BacktestRuns.WithLabelValues("data_error").Inc()
		return model.BacktestResult{}, fmt.Errorf("%w: %v", engine.ErrDataUnavailable, err)
	}

	desc, err := s.synth.Synthesize(req)
	if err != nil {
		infrastructure.BacktestRuns.WithLabelValues("config_error").Inc()
		return model.BacktestResult{}, err
	}

	job := engine.Job{
		Candles:    candles,
		Request:    req,
		Descriptor: desc,
		Result:     make(chan engine.JobResult, 1),
	}
	if err := s.pool.Submit(ctx, job); err != nil {
		infrastructure.BacktestRuns.WithLabelValues("canceled").Inc()
		return model.BacktestResult{}, err
	}

	select {
	case <-ctx.Done():
		infrastructure.BacktestRuns.WithLabelValues("canceled").Inc()
		return model.BacktestResult{}, ctx.Err()
	case out := <-job.Result:
		if out.Err != nil {
			infrastructure.BacktestRuns.WithLabelValues("config_error").Inc()
			return model.BacktestResult{}, out.Err
		}
		infrastructure.BacktestRuns.WithLabelValues("ok").Inc()
		infrastructure.BacktestDuration.WithLabelValues(req.Symbol, req.Timeframe).
			Observe(time.Since(started).Seconds())
		s.fanOut(ctx, userID, out.Result)
		return out.Result, nil
	}
}

// fanOut publishes the finished report and persists its summary. Both are
// best effort: a NATS or DB hiccup must not fail a computed backtest.
func (s *BacktestService) fanOut(ctx context.Context, userID int64, res model.BacktestResult) {
	if s.js != nil {
		subject := fmt.Sprintf("backtest.report.%s", res.Symbol)
		data, err := json.Marshal(res)
		if err == nil {
			_, err = s.js.Publish(subject, data)
		}
		if err != nil {
			s.logger.Error("failed to publish backtest report", zap.Error(err))
		}
	}
	if s.reports != nil {
		if err := s.reports.Save(ctx, userID, res); err != nil {
			s.logger.Error("failed to save backtest report", zap.Error(err))
		}
	}
}
