package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	outboxHTTP "github.com/GarciaKevinFab/academico-sync/internal/outbox/http"
	reconciliationHTTP "github.com/GarciaKevinFab/academico-sync/internal/reconciliation/http"
)

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Event          *outboxHTTP.EventHandler
	DeadLetter     *outboxHTTP.DeadLetterHandler
	Reconciliation *reconciliationHTTP.ReconciliationHandler
}

// Options carries the server knobs taken from configuration.
type Options struct {
	Host             string
	Port             int
	GinMode          string
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	CORSEnabled      bool
	CORSAllowOrigins string
}

// Server is the operator API server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and mounts all routes.
func NewServer(opts Options, handlers Handlers, logger *slog.Logger) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler)

	v1 := router.Group("/v1")
	if opts.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst, logger))
	}

	if handlers.Event != nil {
		v1.POST("/events", handlers.Event.CreateHandler)
		v1.GET("/events", handlers.Event.ListHandler)
		v1.POST("/events/reprocess", handlers.Event.ReprocessHandler)
		v1.GET("/events/:id", handlers.Event.GetHandler)
		v1.DELETE("/events/:id", handlers.Event.DeleteHandler)
		v1.GET("/stats", handlers.Event.StatsHandler)
		v1.POST("/maintenance/purge-acked", handlers.Event.PurgeAckedHandler)
		v1.POST("/maintenance/reset-stuck", handlers.Event.ResetStuckHandler)
	}
	if handlers.DeadLetter != nil {
		v1.GET("/dead-letters", handlers.DeadLetter.ListHandler)
		v1.DELETE("/dead-letters/:id", handlers.DeadLetter.DeleteHandler)
		v1.POST("/dead-letters/:id/reprocess", handlers.DeadLetter.ReprocessHandler)
	}
	if handlers.Reconciliation != nil {
		v1.POST("/reconciliations", handlers.Reconciliation.RunHandler)
		v1.GET("/reconciliations", handlers.Reconciliation.ListHandler)
		v1.GET("/reconciliations/:id", handlers.Reconciliation.GetHandler)
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// HealthHandler reports liveness.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ReadinessHandler reports readiness to receive traffic.
func ReadinessHandler(c *gin.Context) {
	select {
	case <-c.Request.Context().Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
