// Package server assembles the marketplace HTTP server from its middleware,
// routes and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keychainmdip/dex-market/internal/api/middleware"
	"github.com/keychainmdip/dex-market/internal/api/rest"
	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/logger"
	"github.com/keychainmdip/dex-market/internal/metrics"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigin   string
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	handler    rest.Handler
	sessions   *auth.Sessions
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, handler rest.Handler, sessions *auth.Sessions) *Server {
	return &Server{
		config:   cfg,
		handler:  handler,
		sessions: sessions,
	}
}

// Start initializes and starts the HTTP server. It blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start() error {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.CORSOrigin))
	router.Use(middleware.Identity(s.sessions))
	router.Use(metrics.Instrument())

	metrics.Register()
	router.GET("/metrics", metrics.Handler())

	rest.SetupRoutes(router, s.handler)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server", zap.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}
