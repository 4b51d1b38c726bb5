// Package server exposes the analytics tool registry over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/tools"
)

// Server identity reported by GET /.
const (
	Name        = "Google Analytics MCP Server"
	Description = "Simulated Google Analytics data server using MCP protocol"
)

// ShutdownTimeout bounds graceful shutdown once the run context is done.
const ShutdownTimeout = 10 * time.Second

// Server serves the tool registry.
type Server struct {
	registry *tools.Registry
	logger   logging.Logger
	metrics  *Collector
	version  string
	router   *gin.Engine
}

// New builds a server and its router.
func New(registry *tools.Registry, logger logging.Logger, version string) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		registry: registry,
		logger:   logger,
		metrics:  NewCollector(version),
		version:  version,
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(s.metrics.Middleware())

	router.GET("/", s.handleRoot)
	router.GET("/tools", s.handleTools)
	router.POST("/tools/:name", s.handleNamedTool)
	router.POST("/call_tool", s.handleCallTool)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": s.version})
	})
	router.GET("/metrics", s.metrics.Handler())
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logging.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logging.Fields{
			"addr":  ln.Addr().String(),
			"tools": s.registry.Names(),
		}).Info("Starting HTTP server")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
