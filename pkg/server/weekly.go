package server

import (
	"cmp"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"moodtoon/pkg/schema"
	"moodtoon/pkg/store"
	"moodtoon/pkg/story"
	"moodtoon/pkg/utils"
	"moodtoon/pkg/weekly"
)

type dailyAnalysis struct {
	Emotion     string   `json:"emotion"`
	Intensity   int      `json:"emotion_intensity"`
	SubEmotions []string `json:"sub_emotions"`
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	OneLine     string   `json:"one_line"`
}

type weeklyReq struct {
	UserID         string          `json:"user_id"`
	CharacterName  string          `json:"character_name"`
	DailyAnalyses  []dailyAnalysis `json:"daily_analyses"`
	GenerateImages bool            `json:"generate_images"`
}

// records converts client analyses. Labels outside the vocabulary, such as
// ones still carrying a UI emoji prefix, are reduced to their last word and
// otherwise replaced by the fallback emotion.
func (s *Server) records(in []dailyAnalysis) []schema.AnalysisRecord {
	out := make([]schema.AnalysisRecord, len(in))
	for i, d := range in {
		e, ok := s.Vocabulary.Normalize(d.Emotion)
		if !ok {
			if f := strings.Fields(d.Emotion); len(f) > 0 {
				e, ok = s.Vocabulary.Normalize(f[len(f)-1])
			}
		}
		if !ok {
			log.Warn("unknown emotion in weekly input", "day", i+1, "emotion", d.Emotion)
			e = s.Vocabulary.Fallback
		}
		out[i] = schema.AnalysisRecord{
			Emotion:     e,
			Intensity:   min(max(cmp.Or(d.Intensity, 5), 1), 10),
			SubEmotions: d.SubEmotions,
			Summary:     d.Summary,
			Keywords:    d.Keywords,
			OneLine:     cmp.Or(strings.TrimSpace(d.OneLine), strings.TrimSpace(d.Summary)),
			Success:     true,
		}
	}
	return out
}

// POST /api/diary/generate_weekly_narrative
func (s *Server) handlePostWeeklyNarrative(c echo.Context) error {
	var req weeklyReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.GenerateImages {
		log.Debug("generate_images ignored for weekly narrative")
	}

	ctx := c.Request().Context()
	summary, err := s.Aggregator.Aggregate(ctx, s.records(req.DailyAnalyses))
	if errors.Is(err, weekly.ErrNeedSevenDays) {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(err.Error()))
	}
	if err != nil {
		return err
	}

	if req.UserID != "" {
		doc := store.Weekly{
			ID:        ksuid.New().String(),
			UserID:    req.UserID,
			Summary:   summary,
			CreatedAt: s.now().UTC(),
		}
		s.persist(ctx, store.Weeklies, doc.ID, doc)
	}
	log.Info("weekly narrative ready", "dominant", summary.DominantEmotion, "success", summary.Success)
	return c.JSON(http.StatusOK, summary)
}

// POST /api/diary/generate_weekly_webtoon
func (s *Server) handlePostWeeklyWebtoon(c echo.Context) error {
	var req weeklyReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	st, err := story.ComposeWeek(s.records(req.DailyAnalyses), cmp.Or(req.CharacterName, s.DefaultCharacterName))
	if errors.Is(err, story.ErrWeekLength) {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(err.Error()))
	}
	if err != nil {
		return err
	}

	if req.GenerateImages && s.Illustrator != nil {
		var character *schema.CharacterDescriptor
		if req.UserID != "" {
			character = s.lookupCharacter(c, req.UserID)
		}
		s.Illustrator.IllustrateStory(c.Request().Context(), &st, character)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"story":   st,
		"success": st.Success,
	})
}
