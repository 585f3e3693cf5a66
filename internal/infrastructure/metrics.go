package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BacktestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "backtest_duration_seconds",
		Help: "Wall time of a full backtest pipeline run",
	}, []string{"symbol", "timeframe"})

	BacktestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_runs_total",
		Help: "Total number of backtest runs by outcome",
	}, []string{"status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	DBQueryRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_query_total",
		Help: "Total number of candle-store queries",
	}, []string{"table"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backtest_queue_depth",
		Help: "Number of backtest jobs waiting in the worker pool",
	})
)
