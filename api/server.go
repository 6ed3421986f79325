// Package api exposes read-only HTTP endpoints over account state and
// execution history.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"minos/exchange"
	"minos/logger"
)

// Server HTTP API server
type Server struct {
	router  *gin.Engine
	account exchange.AccountState
	market  exchange.MarketData
	history *logger.ExecutionLogger
	address string
	port    int
}

// NewServer creates the API server
func NewServer(account exchange.AccountState, market exchange.MarketData, history *logger.ExecutionLogger, address string, port int) *Server {
	// Release mode reduces log output
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()
	router.Use(corsMiddleware())

	s := &Server{
		router:  router,
		account: account,
		market:  market,
		history: history,
		address: address,
		port:    port,
	}
	s.setupRoutes()
	return s
}

// corsMiddleware CORS middleware
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Cache-Control")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.Any("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/account", s.handleAccount)
		api.GET("/positions", s.handlePositions)
		api.GET("/advice/latest", s.handleLatestAdvice)
		api.GET("/runs", s.handleRuns)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("route not found: %s %s", c.Request.Method, c.Request.URL.Path),
		})
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAccount balances and margin overview
func (s *Server) handleAccount(c *gin.Context) {
	withdrawable, err := s.account.WithdrawableBalance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to get balance: %v", err),
		})
		return
	}
	margin, err := s.account.MarginSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to get margin summary: %v", err),
		})
		return
	}
	spot, err := s.account.SpotBalances()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to get spot balances: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":           s.address,
		"withdrawable":      withdrawable,
		"account_value":     margin.AccountValue,
		"total_margin_used": margin.TotalMarginUsed,
		"spot_balances":     spot,
	})
}

// handlePositions open perpetual positions
func (s *Server) handlePositions(c *gin.Context) {
	positions, err := s.account.Positions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to get positions: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(positions),
		"positions": positions,
	})
}

// handleLatestAdvice most recent advice run with its executions
func (s *Server) handleLatestAdvice(c *gin.Context) {
	run, err := s.history.LatestRun()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to load advice history: %v", err),
		})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no advice recorded yet"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleRuns recent advice runs, newest first
func (s *Server) handleRuns(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	runs, err := s.history.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to load advice history: %v", err),
		})
		return
	}
	if runs == nil {
		runs = []logger.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("🌐 API server listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
