package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	glog "github.com/labstack/gommon/log"

	"moodtoon/pkg/analysis"
	"moodtoon/pkg/backup"
	"moodtoon/pkg/config"
	"moodtoon/pkg/illustration"
	"moodtoon/pkg/inference"
	"moodtoon/pkg/pipeline"
	"moodtoon/pkg/server"
	"moodtoon/pkg/store"
	"moodtoon/pkg/story"
	"moodtoon/pkg/weekly"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	inf, err := newInferencer(ctx, cfg)
	if err != nil {
		log.Fatal("failed to create inferencer", "error", err)
	}

	var images inference.ImageGenerator
	if cfg.OpenAIKey != "" {
		images = inference.NewOpenAIImageGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIImageModel, cfg.ImagesPerMinute)
	} else {
		log.Warn("OPENAI_API_KEY not set, image generation disabled")
	}

	st, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open store", "error", err)
	}

	backups, err := backup.Open(cfg.BackupPath)
	if err != nil {
		log.Warn("local backup disabled", "path", cfg.BackupPath, "error", err)
		backups = nil
	}

	saver := illustration.NewLocalSaver(filepath.Join(cfg.StaticDir, "panels"), "static/panels")
	illustrator := illustration.NewIllustrator(images,
		illustration.WithSaver(saver),
		illustration.WithQuality(cfg.ImageQuality),
	)
	extractor := analysis.NewExtractor(inf, cfg.Vocabulary)
	composer := story.NewComposer(inf)

	srv := server.NewServer(server.Deps{
		Extractor:            extractor,
		Summarizer:           analysis.NewSummarizer(inf),
		Composer:             composer,
		Aggregator:           weekly.NewAggregator(inf),
		Illustrator:          illustrator,
		Daily:                pipeline.NewDaily(extractor, composer, illustrator),
		Images:               images,
		Store:                st,
		Backup:               backups,
		Vocabulary:           cfg.Vocabulary,
		StaticDir:            cfg.StaticDir,
		DefaultCharacterName: cfg.DefaultCharacterName,
		ImageQuality:         cfg.ImageQuality,
	})
	srv.Echo.Logger.SetLevel(glog.INFO)
	if cfg.LogLevel == "debug" {
		srv.Echo.Logger.SetLevel(glog.DEBUG)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		done()
	}
	<-finishedShutDown
}

// newInferencer picks the first provider with a key and falls back to a local
// OpenAI-compatible endpoint when none is set.
func newInferencer(ctx context.Context, cfg config.Config) (inference.Inferencer, error) {
	switch {
	case cfg.AnthropicKey != "":
		log.Info("using anthropic", "model", cfg.AnthropicModel)
		return inference.NewAnthropicInferencer(cfg.AnthropicKey, cfg.AnthropicModel), nil
	case cfg.GeminiKey != "":
		log.Info("using gemini", "model", cfg.GeminiModel)
		return inference.NewGeminiInferencer(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case cfg.GrokKey != "":
		return inference.NewCompatibleInferencer(inference.ProviderGrok, cfg.GrokKey, "")
	case cfg.KimiKey != "":
		return inference.NewCompatibleInferencer(inference.ProviderKimi, cfg.KimiKey, "")
	case cfg.MoonshotKey != "":
		return inference.NewCompatibleInferencer(inference.ProviderMoonshot, cfg.MoonshotKey, "")
	}

	openAI := inference.NewOpenAIInferencer(cfg.OpenAIKey, cfg.OpenAIModel)
	switch {
	case cfg.OpenAIBaseURL != "":
		openAI.ChangeBaseURL(cfg.OpenAIBaseURL)
	case cfg.OpenAIKey == "":
		log.Warn("no provider key set, using local endpoint")
		openAI.ChangeBaseURL("http://localhost:1234/v1")
		openAI.SetModel("")
	}
	return openAI, nil
}

func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.MongoURI == "" {
		log.Warn("MONGO_URI not set, using in-memory store")
		return store.NewMemory(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.NewMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
}
