package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SadnessofAtlantis/kibana/internal/platform/version"
	"github.com/SadnessofAtlantis/kibana/internal/status"
)

type statusPageData struct {
	ServerName string
	Overview   status.Overview
}

type statusResponse struct {
	Name    string          `json:"name"`
	Version version.Info    `json:"version"`
	Status  status.Overview `json:"status"`
}

func (s *Server) registerStatusRoutes(g *echo.Group) {
	g.GET("/status", s.handleStatus)
}

func (s *Server) statusPageData() statusPageData {
	return statusPageData{
		ServerName: s.config.ServerName,
		Overview:   s.status.Overview(),
	}
}

// handleStatus reports component states. It answers 200 even when degraded,
// so monitoring can read the details.
func (s *Server) handleStatus(c echo.Context) error {
	response := statusResponse{
		Name:    s.config.ServerName,
		Version: version.Get(),
		Status:  s.status.Overview(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write status response: %w", err)
	}
	return nil
}
