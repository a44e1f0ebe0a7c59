package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SadnessofAtlantis/kibana/internal/app"
	"github.com/SadnessofAtlantis/kibana/internal/domain"
	apperrors "github.com/SadnessofAtlantis/kibana/internal/platform/errors"
)

func (s *Server) registerAppRoutes(g *echo.Group) {
	limiter := newRateLimiter(s.config.AppRateLimit, s.config.AppRateBurst)
	g.GET("/app/:id", s.handleApp, limiter)
}

func (s *Server) registerRootRedirect(g *echo.Group) {
	g.GET("/", s.handleRoot)
	if s.config.ServerBasePath != "" {
		g.GET("", s.handleRoot)
	}
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.Redirect(http.StatusFound, s.config.ServerBasePath+"/app/"+s.config.DefaultApp)
}

const maxAppIDLength = 128

// validAppID accepts the characters plugins use for application ids.
func validAppID(id string) bool {
	if id == "" || len(id) > maxAppIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == ':', r == '.':
		default:
			return false
		}
	}
	return true
}

func (s *Server) handleApp(c echo.Context) error {
	id := c.Param("id")
	if !validAppID(id) {
		return apperrors.ValidationError("Invalid app id")
	}

	application, err := s.renderer.AppByID(id)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		return apperrors.NotFoundError("Unknown app "+id, err).WithField("app_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to look up app", err).WithField("app_id", id)
	}

	if err := s.renderer.Serve(c.Request().Context(), echoResponse{s: s, c: c}, application); err != nil {
		return apperrors.InternalError("failed to render app", err).WithField("app_id", id)
	}
	return nil
}

// echoResponse writes render results to the echo response.
type echoResponse struct {
	s *Server
	c echo.Context
}

var _ app.ResponseBuilder = echoResponse{}

func (r echoResponse) View(name string, data app.ViewData) error {
	return r.s.renderTemplate(r.c, http.StatusOK, name, data)
}

func (r echoResponse) StatusPage() error {
	return r.s.renderTemplate(r.c, http.StatusServiceUnavailable, statusTemplate, r.s.statusPageData())
}
