package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"moodtoon/pkg/backup"
	"moodtoon/pkg/illustration"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/store"
	"moodtoon/pkg/utils"
)

const portraitTimeout = 2 * time.Minute

type generateCharacterReq struct {
	Prompt               string `json:"prompt"`
	Emotion              string `json:"emotion"`
	CharacterDescription string `json:"character_description"`
}

// POST /api/generate_character
func (s *Server) handlePostGenerateCharacter(c echo.Context) error {
	var req generateCharacterReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	desc := strings.TrimSpace(cmp.Or(req.CharacterDescription, req.Prompt))
	if desc == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("character_description is required"))
	}
	emotion := cmp.Or(strings.TrimSpace(req.Emotion), schema.Neutral.String())
	if e, ok := s.Vocabulary.Normalize(emotion); ok {
		emotion = e.String()
	}

	url, err := s.portrait(c.Request().Context(), desc, emotion)
	if errors.Is(err, illustration.ErrNoGenerator) {
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON(err.Error()))
	}
	if err != nil {
		log.Error("character generation failed", "emotion", emotion, "error", err)
		return c.JSON(http.StatusBadGateway, utils.ErrJSON("character generation failed"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"url":                   url,
		"emotion":               emotion,
		"character_description": desc,
	})
}

// portrait returns a cached portrait or generates one. Identical concurrent
// requests share a single generation.
func (s *Server) portrait(ctx context.Context, desc, emotion string) (string, error) {
	key := strings.ToLower(emotion) + "\x00" + desc
	if url, ok := s.portraits.Get(key); ok {
		log.Debug("portrait cache hit", "emotion", emotion)
		return url.(string), nil
	}

	v, err, shared := s.flight.Do(key, func() (any, error) {
		// Coalesced callers share this generation, so the first caller
		// disconnecting must not cancel it for the rest.
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), portraitTimeout)
		defer cancel()
		url, err := s.Illustrator.Portrait(genCtx, &schema.CharacterDescriptor{Description: desc}, emotion)
		if err != nil {
			return "", err
		}
		s.portraits.Set(key, url, cache.DefaultExpiration)
		return url, nil
	})
	if shared {
		log.Debug("portrait request coalesced", "emotion", emotion)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type saveCharacterReq struct {
	UserID        string            `json:"user_id"`
	Description   string            `json:"description"`
	Images        map[string]string `json:"images"`
	CharacterInfo *characterInfo    `json:"character_info"`
}

// POST /api/save-character
func (s *Server) handlePostSaveCharacter(c echo.Context) error {
	var req saveCharacterReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("user_id is required"))
	}
	if req.CharacterInfo != nil {
		req.Description = cmp.Or(req.Description, req.CharacterInfo.Description)
		if len(req.Images) == 0 {
			req.Images = req.CharacterInfo.BaseImages
		}
	}
	if strings.TrimSpace(req.Description) == "" && len(req.Images) == 0 {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("description or images are required"))
	}

	doc := store.Character{
		ID:          req.UserID,
		Description: strings.TrimSpace(req.Description),
		Images:      req.Images,
		CreatedAt:   s.now().UTC(),
	}
	saved := s.persist(c.Request().Context(), store.Characters, doc.ID, doc)
	backedUp := s.backUp(req.UserID, backup.KindCharacter, doc)
	if !saved && !backedUp {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("character could not be saved"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"saved":    saved,
		"backedUp": backedUp,
	})
}

// GET /api/get-character?user_id=
func (s *Server) handleGetCharacter(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("user_id is required"))
	}
	doc, source, err := s.loadCharacter(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"source":    source,
		"character": doc,
	})
}

var errNoCharacter = errors.New("character not found")

// loadCharacter reads the store first and the local backup second.
func (s *Server) loadCharacter(ctx context.Context, userID string) (store.Character, string, error) {
	var doc store.Character
	if s.Store != nil {
		err := s.Store.Get(ctx, store.Characters, userID, &doc)
		if err == nil {
			return doc, "store", nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("character lookup failed, trying backup", "user", userID, "error", err)
		}
	}
	if s.Backup != nil {
		ok, err := s.Backup.Latest(userID, backup.KindCharacter, &doc)
		if err != nil {
			log.Warn("character backup unreadable", "user", userID, "error", err)
		}
		if ok {
			return doc, "backup", nil
		}
	}
	return store.Character{}, "", fmt.Errorf("%w for %s", errNoCharacter, userID)
}

func (s *Server) lookupCharacter(c echo.Context, userID string) *schema.CharacterDescriptor {
	doc, _, err := s.loadCharacter(c.Request().Context(), userID)
	if err != nil {
		log.Debug("drawing without a saved character", "user", userID)
		return nil
	}
	return doc.Descriptor()
}
