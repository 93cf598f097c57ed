package server

import (
	"cmp"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"moodtoon/pkg/inference"
	"moodtoon/pkg/utils"
)

type generateImageReq struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

var imageSizes = map[string]inference.ImageSize{
	"":          inference.SizeSquare,
	"1024x1024": inference.SizeSquare,
	"1792x1024": inference.SizeWide,
	"1024x1792": inference.SizeTall,
}

// POST /api/generate_image
func (s *Server) handlePostGenerateImage(c echo.Context) error {
	var req generateImageReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("prompt is required"))
	}
	size, ok := imageSizes[req.Size]
	if !ok {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("unsupported size "+req.Size))
	}
	if s.Images == nil {
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON("image generation is not configured"))
	}

	url, err := s.Images.Generate(c.Request().Context(), req.Prompt, size, cmp.Or(strings.TrimSpace(req.Quality), s.ImageQuality))
	if err != nil {
		log.Error("image generation failed", "error", err)
		return c.JSON(http.StatusBadGateway, utils.ErrJSON("image generation failed"))
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
