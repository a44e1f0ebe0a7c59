package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SadnessofAtlantis/kibana/internal/adapter/metrics"
	"github.com/SadnessofAtlantis/kibana/internal/app"
	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/platform/config"
	"github.com/SadnessofAtlantis/kibana/internal/status"
	"github.com/SadnessofAtlantis/kibana/web"
)

const statusTemplate = "status.html"

type appRenderer interface {
	AppByID(id string) (domain.Application, error)
	Serve(ctx context.Context, rb app.ResponseBuilder, application domain.Application) error
}

type statusSource interface {
	Overview() status.Overview
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	renderer appRenderer
	status   statusSource

	templates *template.Template

	healthChecks   []HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	startTime      time.Time
}

type Option func(*Server)

// WithHealthChecks sets the checks run by the startup and readiness probes.
func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// WithMetrics records HTTP metrics and serves handler on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, handler http.Handler) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.metricsHandler = handler
	}
}

func NewServer(cfg *config.Config, renderer appRenderer, status statusSource, opts ...Option) (*Server, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		echo:      echoNew(),
		config:    cfg,
		renderer:  renderer,
		status:    status,
		templates: templates,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv, nil
}

// ParseTemplates loads the embedded page templates with the helper
// functions they rely on.
func ParseTemplates() (*template.Template, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// AppTemplates lists the embedded templates applications may render with.
// The status page template is reserved.
func AppTemplates() ([]string, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, t := range templates.Templates() {
		name := t.Name()
		if name == statusTemplate || !strings.HasSuffix(name, ".html") {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode template value: %w", err)
		}
		return string(encoded), nil
	},
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "base_path", s.config.ServerBasePath)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, code int, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "template", name, "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(code, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

func echoNew() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}
