package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qsim/internal/backtest"
	"qsim/internal/config"
	"qsim/internal/database"
	"qsim/internal/logger"
	"qsim/internal/monitoring"
)

// Server is the HTTP API server.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	ws         *WebSocketHandler
	metrics    *monitoring.Metrics
	log        logger.Logger
}

// NewServer assembles the API server. The result store may be nil when the
// server runs without a database; persistence endpoints then respond 503.
func NewServer(cfg *config.Config, engine *backtest.Engine, store *database.ResultStore, metrics *monitoring.Metrics, log logger.Logger) *Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:   cfg,
		router:   gin.New(),
		handlers: NewHandlers(engine, store, cfg.Auth, log),
		ws:       NewWebSocketHandler(engine, log),
		metrics:  metrics,
		log:      log,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(rateLimitMiddleware(50, 100))
	if s.metrics != nil {
		s.router.Use(s.metrics.GinMiddleware())
	}

	if s.config.Monitoring.PrometheusEnabled && s.metrics != nil {
		s.router.GET(s.config.Monitoring.PrometheusPath, s.metrics.Handler())
	}

	s.router.GET("/health", s.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/auth/login", s.handlers.Login)

		protected := v1.Group("")
		if s.config.Auth.Enabled {
			protected.Use(authMiddleware(s.config.Auth.JWTSecret))
		}
		{
			protected.POST("/backtest", s.handlers.RunBacktest)
			protected.GET("/backtests", s.handlers.ListBacktests)
			protected.GET("/backtests/:id", s.handlers.GetBacktest)
		}
	}

	s.router.GET("/ws/backtest", s.ws.BacktestStream)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.config.App.Version,
		"time":    time.Now().UTC(),
	})
}

// Router exposes the underlying handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.log.Info("starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
