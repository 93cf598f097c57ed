package server

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"moodtoon/pkg/analysis"
	"moodtoon/pkg/backup"
	"moodtoon/pkg/illustration"
	"moodtoon/pkg/inference"
	"moodtoon/pkg/pipeline"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/store"
	"moodtoon/pkg/story"
	"moodtoon/pkg/weekly"
)

// Deps are the components the routes call into. Images, Illustrator and
// Backup may be nil; the routes that need them degrade or answer 503.
type Deps struct {
	Extractor   *analysis.Extractor
	Summarizer  *analysis.Summarizer
	Composer    *story.Composer
	Aggregator  *weekly.Aggregator
	Illustrator *illustration.Illustrator
	Daily       *pipeline.Daily
	Images      inference.ImageGenerator
	Store       store.Store
	Backup      *backup.Log

	Vocabulary           schema.Vocabulary
	StaticDir            string
	DefaultCharacterName string
	ImageQuality         string
}

type Server struct {
	Echo *echo.Echo
	Deps

	portraits *cache.Cache
	flight    singleflight.Group
	now       func() time.Time
}

func NewServer(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("2M"))

	s := &Server{
		Echo:      e,
		Deps:      d,
		portraits: cache.New(6*time.Hour, 30*time.Minute),
		now:       time.Now,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/health", s.handleGetHealth)
	if s.StaticDir != "" {
		s.Echo.Static("/static", s.StaticDir)
	}

	api := s.Echo.Group("/api")

	diary := api.Group("/diary")
	diary.POST("/analyze", s.handlePostAnalyze)
	diary.POST("/analyze_with_webtoon", s.handlePostAnalyzeWithWebtoon)
	diary.POST("/analyze_with_webtoon_image", s.handlePostAnalyzeWithWebtoonImage)
	diary.POST("/save", s.handlePostSaveDiary)
	diary.GET("/list", s.handleGetDiaryList)
	diary.POST("/generate_weekly_narrative", s.handlePostWeeklyNarrative)
	diary.POST("/generate_weekly_webtoon", s.handlePostWeeklyWebtoon)

	api.POST("/generate_4cuts", s.handlePostFourCuts)
	api.POST("/generate_daily_cut", s.handlePostDailyCut)
	api.POST("/generate_character", s.handlePostGenerateCharacter)
	api.POST("/generate_image", s.handlePostGenerateImage)
	api.POST("/save-character", s.handlePostSaveCharacter)
	api.GET("/get-character", s.handleGetCharacter)
	api.POST("/summarize", s.handlePostSummarize)
	api.POST("/summarize_for_webtoon", s.handlePostSummarizeForWebtoon)
	api.POST("/generate_scene", s.handlePostGenerateScene)
	api.POST("/batch_summarize", s.handlePostBatchSummarize)
	api.POST("/emotion", s.handlePostEmotion)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")

	shutDownErr := s.Echo.Shutdown(ctx)
	var compactErr error
	if s.Backup != nil {
		compactErr = s.Backup.Compact()
	}
	var closeErr error
	if s.Store != nil {
		closeErr = s.Store.Close(ctx)
	}
	return errors.Join(shutDownErr, compactErr, closeErr)
}

// persist writes a document without failing the request.
func (s *Server) persist(ctx context.Context, collection, id string, record any) bool {
	if s.Store == nil {
		return false
	}
	if err := s.Store.Put(ctx, collection, id, record); err != nil {
		log.Warn("failed to persist document", "collection", collection, "id", id, "error", err)
		return false
	}
	return true
}

// backUp appends to the local backup log without failing the request.
func (s *Server) backUp(userID, kind string, v any) bool {
	if s.Backup == nil || userID == "" {
		return false
	}
	if err := s.Backup.Append(userID, kind, v); err != nil {
		log.Warn("failed to write local backup", "user", userID, "kind", kind, "error", err)
		return false
	}
	return true
}
