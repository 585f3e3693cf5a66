package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/afterall1/backtest-0.2/api"
	"github.com/afterall1/backtest-0.2/internal/chaos"
	"github.com/afterall1/backtest-0.2/internal/config"
	"github.com/afterall1/backtest-0.2/internal/engine"
	"github.com/afterall1/backtest-0.2/internal/infrastructure"
	"github.com/afterall1/backtest-0.2/internal/push"
	"github.com/afterall1/backtest-0.2/internal/storage"
)

// App defines the application structure and its dependencies
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *pgxpool.Pool
	NC          *nats.Conn
	JS          nats.JetStreamContext
	Loader      *engine.DataLoader
	Pool        *engine.WorkerPool
	Service     *BacktestService
	PushGateway *push.PushGateway
	HTTPServer  *http.Server
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	infrastructure.Init()
	logger := infrastructure.Logger

	return &App{
		Config: &cfg,
		Logger: logger,
	}, nil
}

// Init initializes all application components
func (a *App) Init(ctx context.Context) error {
	// 1. Database
	dbPool, err := pgxpool.Connect(ctx, a.Config.DB_DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = dbPool

	if err := a.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 2. NATS
	nc, js, err := infrastructure.InitNATS(a.Config.NatsURL, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.NC = nc
	a.JS = js

	// 3. Services
	a.Loader = engine.NewDataLoader(a.DB)
	a.Pool = engine.NewWorkerPool(a.Config.WorkerCount, a.Config.QueueSize,
		engine.NewBacktester(a.Logger), a.Logger)
	a.Service = NewBacktestService(
		a.Loader,
		a.Pool,
		chaos.NewSynthesizer(a.Logger),
		a.JS,
		storage.NewReportStore(a.DB, a.Logger),
		a.Logger,
	)
	a.PushGateway = push.NewPushGateway(js, a.Logger)

	return nil
}

// Run starts the worker pool and the HTTP server
func (a *App) Run(ctx context.Context) error {
	a.Pool.Start(ctx)

	a.HTTPServer = &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: a.setupRouter(),
	}

	go func() {
		a.Logger.Info("starting http server", zap.String("port", a.Config.Port))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	return a.waitForShutdown()
}

// waitForShutdown handles graceful shutdown signals
func (a *App) waitForShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	a.Logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.NC.Close()
	a.DB.Close()

	return nil
}

// initDatabase runs the database initialization script
func (a *App) initDatabase(ctx context.Context) error {
	sqlFile := "scripts/init.sql"
	content, err := os.ReadFile(sqlFile)
	if err != nil {
		return fmt.Errorf("failed to read init script: %w", err)
	}

	_, err = a.DB.Exec(ctx, string(content))
	if err != nil {
		return fmt.Errorf("failed to execute init script: %w", err)
	}

	a.Logger.Info("database initialized successfully")
	return nil
}

// setupRouter configures the Gin router and its routes
func (a *App) setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "online",
			"engine":      "Trader Backtest v0.2",
			"data_source": "candle-store",
			"mock_data":   false,
		})
	})
	r.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up"})
	})

	apiHandler := api.NewHandler(a.DB, a.Loader, a.Service, a.Config.JWTSecret, a.Logger)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/register", apiHandler.Register)
		v1.POST("/login", apiHandler.Login)
		v1.GET("/symbols", apiHandler.GetSymbols)
		v1.GET("/ohlcv/:symbol", apiHandler.GetOHLCV)
	}

	protected := r.Group("/api/v1")
	protected.Use(api.AuthMiddleware(a.Config.JWTSecret))
	{
		protected.POST("/backtest", apiHandler.RunBacktest)
	}

	r.GET("/ws", func(c *gin.Context) {
		a.PushGateway.ServeHTTP(c.Writer, c.Request)
	})

	return r
}
