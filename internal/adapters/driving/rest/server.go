// Package rest exposes the intelligence orchestrator over HTTP using echo.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synapse-labs/synapse/internal/core/ports/driving"
	"github.com/synapse-labs/synapse/internal/logger"
)

// ErrMissingGatherer is returned when the intelligence gatherer is not provided.
var ErrMissingGatherer = errors.New("rest: intelligence gatherer is required")

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Gatherer runs the fan-out. Required.
	Gatherer driving.IntelligenceGatherer

	// Catalogue lists the configured sources. Optional.
	Catalogue driving.SourceCatalogue

	// Cache manages cached payloads. Optional.
	Cache driving.CacheAdmin

	// Warmer tracks businesses to keep warm. Optional.
	Warmer driving.Warmer

	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer

	// MCP is mounted on /mcp when set.
	MCP http.Handler
}

// Server is the HTTP API.
type Server struct {
	ports *Ports
	echo  *echo.Echo
	log   logger.Component
}

// NewServer builds the router for the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if ports == nil || ports.Gatherer == nil {
		return nil, ErrMissingGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{ports: ports, echo: e, log: logger.For("http")}

	e.Use(middleware.Recover())
	e.Use(s.requestLog)
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if ports.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(ports.Metrics, promhttp.HandlerOpts{})))
	}
	if ports.MCP != nil {
		e.Any("/mcp", echo.WrapHandler(ports.MCP))
	}

	v1 := e.Group("/v1")
	v1.POST("/intelligence", s.gather)
	v1.GET("/sources", s.listSources)
	v1.GET("/sources/:id", s.getSource)
	v1.DELETE("/cache", s.clearCache)
	v1.DELETE("/cache/:source", s.clearCache)
	v1.GET("/warm", s.listWarmTargets)
	v1.POST("/warm", s.trackWarmTarget)

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		req := c.Request()
		s.log.Debug("%s %s -> %d in %s", req.Method, req.URL.Path, c.Response().Status, time.Since(start))
		return err
	}
}

// handleError renders every error as {"error": "..."} JSON.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	if code >= http.StatusInternalServerError {
		req := c.Request()
		s.log.Error("%d %s %s: %v", code, req.Method, req.URL.Path, err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}
