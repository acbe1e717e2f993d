// Package api exposes the review pipeline over HTTP: synchronous report
// generation, queued generation, and stored report retrieval.
package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/jobqueue"
	"github.com/sqlreview/internal/review"
	"github.com/sqlreview/internal/store"
)

// Generator runs the review pipeline for one request.
type Generator interface {
	GenerateReport(ctx context.Context, req review.Request) (*review.Result, error)
}

// ReportStore reads stored report rows.
type ReportStore interface {
	Get(ctx context.Context, projectID, path string) (*store.ReportRow, error)
}

// Enqueuer inserts report generation jobs into the queue.
type Enqueuer interface {
	EnqueueReport(ctx context.Context, args jobqueue.ReportJobArgs) (int64, error)
}

// Server represents the API server. The store and queue may be nil when no
// database is configured; the endpoints that need them answer 503.
type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	service Generator
	reports ReportStore
	queue   Enqueuer
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, service Generator, reports ReportStore, queue Enqueuer) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:    e,
		cfg:     cfg,
		service: service,
		reports: reports,
		queue:   queue,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 group
	v1 := s.echo.Group("/api/v1")

	// Report endpoints
	v1.POST("/reports", s.createReport)
	v1.POST("/reports/enqueue", s.enqueueReport)
	v1.GET("/reports/:project_id/*", s.getReport)
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(s.cfg.ListenAddr()); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
