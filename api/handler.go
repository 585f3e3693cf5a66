package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/afterall1/backtest-0.2/internal/chaos"
	"github.com/afterall1/backtest-0.2/internal/engine"
	"github.com/afterall1/backtest-0.2/internal/model"
)

// BacktestRunner is the application service the backtest endpoint delegates
// to. Defined here so the api package does not depend on the app wiring.
type BacktestRunner interface {
	Execute(ctx context.Context, userID int64, req model.BacktestRequest) (model.BacktestResult, error)
}

type Handler struct {
	db        *pgxpool.Pool
	loader    engine.CandleSource
	runner    BacktestRunner
	jwtSecret string
	logger    *zap.Logger
}

func NewHandler(db *pgxpool.Pool, loader engine.CandleSource, runner BacktestRunner, jwtSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		loader:    loader,
		runner:    runner,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Auth Handlers

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	var userID int64
	err = h.db.QueryRow(c.Request.Context(),
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id",
		req.Email, string(hash)).Scan(&userID)

	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "id": userID})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID int64
	var hash string
	err := h.db.QueryRow(c.Request.Context(),
		"SELECT id, password_hash FROM users WHERE email = $1", req.Email).Scan(&userID, &hash)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := GenerateToken(userID, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Data Handlers

func (h *Handler) GetSymbols(c *gin.Context) {
	symbols, err := h.loader.ListSymbols(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list symbols", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(symbols), "symbols": symbols})
}

func (h *Handler) GetOHLCV(c *gin.Context) {
	symbol := c.Param("symbol")
	timeframe := c.DefaultQuery("timeframe", "1h")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	candles, err := h.loader.LoadCandles(c.Request.Context(), symbol, timeframe, limit, nil, nil)
	if err != nil {
		h.logger.Error("failed to load candles", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"count":     len(candles),
		"data":      candles,
	})
}

// RunBacktest executes the full pipeline for one request. Configuration
// errors come back as client errors; a broken candle store as 503. An empty
// candle window is a normal zero-trade result, not a failure.
func (h *Handler) RunBacktest(c *gin.Context) {
	var req model.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get(ContextUserID)
	uid, _ := userID.(int64)

	result, err := h.runner.Execute(c.Request.Context(), uid, req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, chaos.ErrConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrDataUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data unavailable"})
	default:
		h.logger.Error("backtest failed", zap.String("symbol", req.Symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
