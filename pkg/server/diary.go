package server

import (
	"cmp"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"moodtoon/pkg/analysis"
	"moodtoon/pkg/backup"
	"moodtoon/pkg/pipeline"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/store"
	"moodtoon/pkg/story"
	"moodtoon/pkg/utils"
)

type characterInfo struct {
	Description string            `json:"description"`
	BaseImages  map[string]string `json:"base_images"`
}

func (ci *characterInfo) descriptor() *schema.CharacterDescriptor {
	if ci == nil {
		return nil
	}
	return &schema.CharacterDescriptor{Description: strings.TrimSpace(ci.Description), BaseImages: ci.BaseImages}
}

type diaryReq struct {
	Text          string         `json:"text"`
	UserID        string         `json:"user_id"`
	CharacterName string         `json:"character_name"`
	CharacterInfo *characterInfo `json:"character_info"`
}

type webtoonResp struct {
	Analysis schema.AnalysisRecord `json:"analysis"`
	Story    schema.Story          `json:"story"`
	DiaryID  string                `json:"diaryId,omitempty"`
	Saved    bool                  `json:"saved"`
	BackedUp bool                  `json:"backedUp"`
	Success  bool                  `json:"success"`
}

func bindDiary(c echo.Context) (diaryReq, error) {
	var req diaryReq
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Text = strings.TrimSpace(req.Text)
	req.UserID = strings.TrimSpace(req.UserID)
	return req, nil
}

// POST /api/diary/analyze
func (s *Server) handlePostAnalyze(c echo.Context) error {
	req, err := bindDiary(c)
	if err != nil {
		return err
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(analysis.ErrEmptyText.Error()))
	}
	log.Info("analyzing diary", "chars", len(req.Text))
	return c.JSON(http.StatusOK, s.Extractor.Analyze(c.Request().Context(), req.Text))
}

// POST /api/emotion
func (s *Server) handlePostEmotion(c echo.Context) error {
	req, err := bindDiary(c)
	if err != nil {
		return err
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(analysis.ErrEmptyText.Error()))
	}
	a := s.Extractor.Analyze(c.Request().Context(), req.Text)
	return c.JSON(http.StatusOK, map[string]any{
		"emotion":    a.Emotion,
		"confidence": float64(a.Intensity) / 10,
		"success":    a.Success,
	})
}

// POST /api/diary/analyze_with_webtoon
func (s *Server) handlePostAnalyzeWithWebtoon(c echo.Context) error {
	req, err := bindDiary(c)
	if err != nil {
		return err
	}
	return s.runDaily(c, req, false)
}

// POST /api/diary/analyze_with_webtoon_image
func (s *Server) handlePostAnalyzeWithWebtoonImage(c echo.Context) error {
	req, err := bindDiary(c)
	if err != nil {
		return err
	}
	return s.runDaily(c, req, true)
}

func (s *Server) runDaily(c echo.Context, req diaryReq, illustrate bool) error {
	ctx := c.Request().Context()
	character := req.CharacterInfo.descriptor()
	if illustrate && character.IsEmpty() && req.UserID != "" {
		character = s.lookupCharacter(c, req.UserID)
	}

	res, err := s.Daily.Run(ctx, pipeline.DailyRequest{
		Text:          req.Text,
		CharacterName: cmp.Or(req.CharacterName, s.DefaultCharacterName),
		Character:     character,
		Illustrate:    illustrate,
		PanelCount:    story.DailyPanels,
	})
	switch {
	case errors.Is(err, analysis.ErrEmptyText), errors.Is(err, story.ErrPanelCount):
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(err.Error()))
	case err != nil:
		return err
	}

	doc := store.Diary{
		ID:        ksuid.New().String(),
		UserID:    cmp.Or(req.UserID, "anonymous"),
		Text:      req.Text,
		Analysis:  res.Analysis,
		Story:     &res.Story,
		CreatedAt: s.now().UTC(),
	}
	resp := webtoonResp{
		Analysis: res.Analysis,
		Story:    res.Story,
		Saved:    s.persist(ctx, store.Diaries, doc.ID, doc),
		Success:  true,
	}
	if resp.Saved {
		resp.DiaryID = doc.ID
	}
	if illustrate {
		resp.BackedUp = s.backUp(req.UserID, backup.KindDiary, doc)
	}
	log.Info("daily webtoon ready", "emotion", res.Analysis.Emotion, "analysis", res.Analysis.Success, "story", res.Story.Success, "saved", resp.Saved)
	return c.JSON(http.StatusOK, resp)
}

type saveDiaryReq struct {
	UserID   string                 `json:"user_id"`
	Text     string                 `json:"text"`
	Analysis *schema.AnalysisRecord `json:"analysis"`
	Story    *schema.Story          `json:"story"`
}

// POST /api/diary/save
func (s *Server) handlePostSaveDiary(c echo.Context) error {
	var req saveDiaryReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(analysis.ErrEmptyText.Error()))
	}
	if s.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON("storage is not configured"))
	}

	doc := store.Diary{
		ID:        ksuid.New().String(),
		UserID:    cmp.Or(strings.TrimSpace(req.UserID), "anonymous"),
		Text:      req.Text,
		Story:     req.Story,
		CreatedAt: s.now().UTC(),
	}
	if req.Analysis != nil {
		doc.Analysis = *req.Analysis
	}
	if err := s.Store.Put(c.Request().Context(), store.Diaries, doc.ID, doc); err != nil {
		log.Error("failed to save diary", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("failed to save diary"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "diary saved",
		"diary_id": doc.ID,
	})
}

// GET /api/diary/list?user_id=
func (s *Server) handleGetDiaryList(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("user_id is required"))
	}
	if s.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON("storage is not configured"))
	}

	diaries := []store.Diary{}
	if err := s.Store.Query(c.Request().Context(), store.Diaries, store.Filter{"userId": userID}, &diaries); err != nil {
		log.Error("failed to list diaries", "user", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("failed to list diaries"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"diaries": diaries,
	})
}
