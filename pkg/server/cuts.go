package server

import (
	"cmp"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"moodtoon/pkg/schema"
	"moodtoon/pkg/story"
	"moodtoon/pkg/utils"
)

type cutsReq struct {
	Text          string `json:"text"`
	Emotion       string `json:"emotion"`
	CharacterName string `json:"character_name"`
}

// analysisFor uses the caller's emotion when it is in the vocabulary and
// runs the extractor otherwise.
func (s *Server) analysisFor(c echo.Context, req cutsReq) schema.AnalysisRecord {
	if e, ok := s.Vocabulary.Normalize(req.Emotion); ok {
		return schema.AnalysisRecord{
			Emotion:   e,
			Intensity: 5,
			Summary:   req.Text,
			OneLine:   utils.TruncateRunes(req.Text, 100, "..."),
			Success:   true,
		}
	}
	return s.Extractor.Analyze(c.Request().Context(), req.Text)
}

func (s *Server) composeCuts(c echo.Context, panels int) (schema.Story, schema.AnalysisRecord, error) {
	var req cutsReq
	if err := c.Bind(&req); err != nil {
		return schema.Story{}, schema.AnalysisRecord{}, echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return schema.Story{}, schema.AnalysisRecord{}, echo.NewHTTPError(http.StatusBadRequest, "text is empty")
	}
	a := s.analysisFor(c, req)
	st, err := s.Composer.Compose(c.Request().Context(), a, cmp.Or(req.CharacterName, s.DefaultCharacterName), panels)
	return st, a, err
}

// POST /api/generate_4cuts
func (s *Server) handlePostFourCuts(c echo.Context) error {
	st, a, err := s.composeCuts(c, story.LegacyPanels)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"panels":  st.Panels,
		"emotion": a.Emotion,
		"success": st.Success,
	})
}

// POST /api/generate_daily_cut
func (s *Server) handlePostDailyCut(c echo.Context) error {
	st, a, err := s.composeCuts(c, story.DailyPanels)
	if err != nil {
		return err
	}
	p := st.Panels[0]
	return c.JSON(http.StatusOK, map[string]any{
		"scene":    p.Scene,
		"dialogue": p.Dialogue,
		"mood":     a.Emotion,
		"success":  st.Success,
	})
}
