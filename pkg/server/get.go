package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "Moodtoon Diary API",
		"status":  "ok",
	})
}

// GET /health
func (s *Server) handleGetHealth(c echo.Context) error {
	status, storeStatus := "healthy", "disabled"
	if s.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		storeStatus = "connected"
		if err := s.Store.Ping(ctx); err != nil {
			status, storeStatus = "degraded", "unreachable"
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    status,
		"store":     storeStatus,
		"images":    s.Images != nil,
		"timestamp": s.now().UTC(),
	})
}
