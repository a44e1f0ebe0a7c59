package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SadnessofAtlantis/kibana/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named health check function. A Degradable check only
// gates startup; once serving, its failure degrades renders and does not
// fail readiness.
type HealthCheck struct {
	Name       string
	Check      func(ctx context.Context) error
	Degradable bool
}

func (s *Server) registerHealthRoutes(g *echo.Group) {
	g.GET("/health/startup", s.handleStartup)
	g.GET("/health/live", s.handleLiveness)
	g.GET("/health/ready", s.handleReadiness)
	g.GET("/version", s.handleVersion)
	if s.metricsHandler != nil {
		g.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
}

func (s *Server) handleStartup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), startupProbeTimeout)
	defer cancel()

	return s.runHealthChecks(ctx, c, true)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	return s.runHealthChecks(ctx, c, false)
}

func (s *Server) runHealthChecks(ctx context.Context, c echo.Context, includeDegradable bool) error {
	for _, hc := range s.healthChecks {
		if hc.Degradable && !includeDegradable {
			continue
		}
		err := hc.Check(ctx)
		if err == nil {
			continue
		}

		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": hc.Name,
			"error":        err.Error(),
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "ready"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
