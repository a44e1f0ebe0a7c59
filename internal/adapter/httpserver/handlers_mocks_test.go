package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SadnessofAtlantis/kibana/internal/app"
	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/platform/config"
	"github.com/SadnessofAtlantis/kibana/internal/status"
)

// --- Mock implementations ---

type mockRenderer struct {
	appByIDFn func(id string) (domain.Application, error)
	serveFn   func(ctx context.Context, rb app.ResponseBuilder, application domain.Application) error
}

func (m *mockRenderer) AppByID(id string) (domain.Application, error) {
	if m.appByIDFn != nil {
		return m.appByIDFn(id)
	}
	if id == "kibana" {
		return domain.Application{ID: "kibana", Title: "Kibana", TemplateName: "ui_app.html"}, nil
	}
	return domain.Application{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, id)
}

func (m *mockRenderer) Serve(ctx context.Context, rb app.ResponseBuilder, application domain.Application) error {
	if m.serveFn != nil {
		return m.serveFn(ctx, rb, application)
	}
	return rb.View(application.TemplateName, app.ViewData{
		App:        application,
		Payload:    &app.Payload{App: application},
		BundlePath: "/bundles",
	})
}

type mockStatus struct {
	overview status.Overview
}

func (m *mockStatus) Overview() status.Overview {
	return m.overview
}

// --- Test helpers ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:         "5601",
		ServerName:   "kibana-test",
		BundleDir:    t.TempDir(),
		DefaultApp:   "kibana",
		AppRateLimit: 1000,
		AppRateBurst: 1000,
	}
}

func newTestServer(t *testing.T, renderer appRenderer, opts ...Option) *Server {
	t.Helper()

	templates, err := ParseTemplates()
	require.NoError(t, err)

	srv := &Server{
		echo:      echoNew(),
		config:    testConfig(t),
		renderer:  renderer,
		status:    &mockStatus{overview: status.Overview{State: status.StateGreen}},
		templates: templates,
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withBasePath(basePath string) Option {
	return func(s *Server) {
		s.config.ServerBasePath = basePath
	}
}

func withStatus(src statusSource) Option {
	return func(s *Server) {
		s.status = src
	}
}

func withRateLimit(ratePerSecond float64, burst int) Option {
	return func(s *Server) {
		s.config.AppRateLimit = ratePerSecond
		s.config.AppRateBurst = burst
	}
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	return doRequest(srv, http.MethodGet, target)
}
