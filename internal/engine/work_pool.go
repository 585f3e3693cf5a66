package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/internal/infrastructure"
	"github.com/afterall1/backtest-0.2/internal/model"
)

// Job is one queued backtest. Result receives exactly one value; the channel
// must be buffered so a worker never blocks on a caller that gave up.
type Job struct {
	Candles    []model.Candle
	Request    model.BacktestRequest
	Descriptor model.StrategyDescriptor
	Result     chan JobResult
}

type JobResult struct {
	Result model.BacktestResult
	Err    error
}

// WorkerPool bounds how many backtests run at once. Runs are independent and
// share nothing, so the pool exists purely to cap CPU use under concurrent
// API load.
type WorkerPool struct {
	jobQueue    chan Job
	workerCount int
	backtester  *Backtester
	logger      *zap.Logger
}

func NewWorkerPool(workerCount, bufferSize int, backtester *Backtester, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		jobQueue:    make(chan Job, bufferSize),
		workerCount: workerCount,
		backtester:  backtester,
		logger:      logger,
	}
}

func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, i)
	}
	p.logger.Info("started backtest worker pool", zap.Int("workers", p.workerCount))
}

// Submit queues a job, blocking until it is accepted or the context ends.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobQueue <- job:
		infrastructure.QueueDepth.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			infrastructure.QueueDepth.Dec()
			res, err := p.backtester.Run(job.Candles, job.Request, job.Descriptor)
			if err != nil {
				p.logger.Warn("backtest rejected",
					zap.Int("worker_id", id),
					zap.String("symbol", job.Request.Symbol),
					zap.Error(err),
				)
			}
			job.Result <- JobResult{Result: res, Err: err}
		}
	}
}
