package server

import (
	"cmp"
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"moodtoon/pkg/analysis"
	"moodtoon/pkg/story"
	"moodtoon/pkg/utils"
)

const (
	maxBatchTexts    = 31
	batchConcurrency = 4
)

type summarizeReq struct {
	Text          string   `json:"text"`
	Emotion       string   `json:"emotion"`
	CharacterName string   `json:"character_name"`
	Texts         []string `json:"texts"`
	Type          string   `json:"type"`
}

// ratio is part/whole as a percentage with one decimal.
func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// POST /api/summarize
func (s *Server) handlePostSummarize(c echo.Context) error {
	var req summarizeReq
	if err := c.Bind(&req); err != nil {
		log.Error("invalid JSON in /api/summarize", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	out, err := s.Summarizer.Summarize(c.Request().Context(), req.Text)
	if errors.Is(err, analysis.ErrEmptyText) {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(err.Error()))
	}
	if err != nil {
		return err
	}

	in, got := utf8.RuneCountInString(req.Text), utf8.RuneCountInString(out.Summary)
	log.Info("summarized text", "chars", in, "summary", got, "success", out.Success)
	return c.JSON(http.StatusOK, map[string]any{
		"summary":           out.Summary,
		"original_length":   in,
		"summary_length":    got,
		"compression_ratio": ratio(got, in),
		"success":           out.Success,
	})
}

// emotionLabel maps a request emotion onto the vocabulary, keeping unknown
// labels as given and defaulting to the fallback emotion.
func (s *Server) emotionLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Vocabulary.Fallback.String()
	}
	if e, ok := s.Vocabulary.Normalize(raw); ok {
		return e.String()
	}
	return raw
}

// POST /api/summarize_for_webtoon
func (s *Server) handlePostSummarizeForWebtoon(c echo.Context) error {
	var req summarizeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	ctx := c.Request().Context()

	summary, err := s.Summarizer.SummarizeForWebtoon(ctx, req.Text)
	if errors.Is(err, analysis.ErrEmptyText) {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(err.Error()))
	}
	if err != nil {
		return err
	}

	resp := map[string]any{
		"webtoon_summary":   summary.Summary,
		"scene_description": nil,
		"emotion":           strings.TrimSpace(req.Emotion),
		"original_text":     utils.TruncateRunes(strings.TrimSpace(req.Text), 100, "..."),
		"success":           summary.Success,
	}
	if strings.TrimSpace(req.Emotion) != "" {
		emotion := s.emotionLabel(req.Emotion)
		scene, err := s.Composer.DescribeScene(ctx, req.Text, emotion, s.DefaultCharacterName)
		if err != nil {
			return err
		}
		resp["emotion"] = emotion
		resp["scene_description"] = scene.Description
		resp["success"] = summary.Success && scene.Success
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /api/generate_scene
func (s *Server) handlePostGenerateScene(c echo.Context) error {
	var req summarizeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	emotion := s.emotionLabel(req.Emotion)
	name := cmp.Or(strings.TrimSpace(req.CharacterName), s.DefaultCharacterName)

	scene, err := s.Composer.DescribeScene(c.Request().Context(), req.Text, emotion, name)
	if errors.Is(err, story.ErrEmptyText) {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(err.Error()))
	}
	if err != nil {
		return err
	}
	log.Info("scene described", "emotion", emotion, "success", scene.Success)
	return c.JSON(http.StatusOK, map[string]any{
		"scene_description":         scene.Description,
		"emotion":                   emotion,
		"character_name":            name,
		"suitable_for_illustration": true,
		"success":                   scene.Success,
	})
}

type batchItem struct {
	Index    int    `json:"index"`
	Original string `json:"original"`
	Summary  string `json:"summary"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// POST /api/batch_summarize
func (s *Server) handlePostBatchSummarize(c echo.Context) error {
	var req summarizeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if len(req.Texts) == 0 {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("texts must be a non-empty array"))
	}
	if len(req.Texts) > maxBatchTexts {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("too many texts"))
	}

	var summarize func(context.Context, string) (analysis.Summary, error)
	switch req.Type {
	case "", "basic":
		summarize = s.Summarizer.Summarize
	case "webtoon":
		summarize = s.Summarizer.SummarizeForWebtoon
	default:
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("unknown summary type "+req.Type))
	}

	// Items fail independently; the group only bounds concurrency.
	items := make([]batchItem, len(req.Texts))
	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, text := range req.Texts {
		g.Go(func() error {
			item := batchItem{Index: i, Original: utils.TruncateRunes(strings.TrimSpace(text), 50, "...")}
			out, err := summarize(c.Request().Context(), text)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Summary, item.Success = out.Summary, out.Success
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	var ok int
	for _, item := range items {
		if item.Success {
			ok++
		}
	}
	log.Info("batch summarized", "texts", len(items), "successful", ok, "type", cmp.Or(req.Type, "basic"))
	return c.JSON(http.StatusOK, map[string]any{
		"summaries":        items,
		"total_count":      len(items),
		"successful_count": ok,
		"success_rate":     ratio(ok, len(items)),
	})
}
