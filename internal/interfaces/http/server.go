// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/routes"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Dependencies is everything the HTTP server needs from the composition root
type Dependencies struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Metrics  metrics.Sink
	Handlers routes.Handlers
	Tokens   middleware.TokenValidator

	// RateCounter backs the per-IP rate limiter. Nil disables limiting.
	RateCounter middleware.WindowCounter
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
	// Checks are run by /health, keyed by dependency name
	Checks map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     logrus.FieldLogger
	gin        *gin.Engine
	httpServer *http.Server
	checks     map[string]HealthCheck
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance with middleware and routes wired
func NewServer(deps Dependencies) *Server {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    deps.Config,
		logger:    deps.Logger,
		gin:       gin.New(),
		checks:    deps.Checks,
		startedAt: time.Now(),
	}

	if err := s.gin.SetTrustedProxies(deps.Config.Security.TrustedProxies); err != nil {
		s.logger.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware(deps)
	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         ":" + deps.Config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) setupMiddleware(deps Dependencies) {
	cfg := deps.Config

	s.gin.Use(middleware.Recovery(deps.Logger))
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(deps.Logger))
	s.gin.Use(middleware.Metrics(deps.Metrics))
	s.gin.Use(middleware.CORS(cfg.Security))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RequestSizeLimit(cfg.Server.MaxBodyBytes))
	s.gin.Use(middleware.RateLimit(deps.RateCounter, cfg.Security.RateLimitPerMinute, deps.Logger))
	s.gin.Use(middleware.Timeout(cfg.Server.RequestTimeout))
}

func (s *Server) setupRoutes(deps Dependencies) {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	if deps.MetricsHandler != nil {
		s.gin.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	api := s.gin.Group("/api")
	routes.SetupRoutes(api, deps.Handlers, deps.Tokens)

	s.gin.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// healthCheck pings every registered dependency
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(gin.H, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.WithError(err).WithField("component", name).Warn("health check failed")
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":      state,
		"components":  components,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck reports that the process is serving
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
