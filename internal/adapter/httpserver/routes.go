package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/SadnessofAtlantis/kibana/internal/platform/correlation"
)

func (s *Server) registerRoutes() {
	basePath := s.config.ServerBasePath

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:        correlation.NewID,
		RequestIDHandler: bindCorrelationID,
	}))
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"frame-ancestors 'self'",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}))
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware(basePath))
	}

	g := s.echo.Group(basePath)

	s.registerRootRedirect(g)
	s.registerHealthRoutes(g)
	s.registerStatusRoutes(g)
	s.registerAppRoutes(g)

	g.Static("/bundles", s.config.BundleDir)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
