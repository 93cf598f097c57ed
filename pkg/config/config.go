// Package config reads process configuration from the environment.
package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"moodtoon/pkg/schema"
)

type Config struct {
	Port string

	OpenAIKey        string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIImageModel string
	ImageQuality     string
	ImagesPerMinute  int

	GeminiKey      string
	GeminiModel    string
	AnthropicKey   string
	AnthropicModel string
	GrokKey        string
	KimiKey        string
	MoonshotKey    string

	MongoURI      string
	MongoDatabase string

	StaticDir  string
	BackupPath string

	Vocabulary           schema.Vocabulary
	DefaultCharacterName string

	LogLevel string
}

// Load reads the environment. Unset values fall back to defaults. Malformed
// numbers and a backup path inside the static dir are errors.
func Load() (Config, error) {
	c := Config{
		Port:             cmp.Or(os.Getenv("PORT"), "5000"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      cmp.Or(os.Getenv("OPENAI_MODEL"), "gpt-4o-mini"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIImageModel: cmp.Or(os.Getenv("OPENAI_IMAGE_MODEL"), "dall-e-3"),
		ImageQuality:     cmp.Or(os.Getenv("IMAGE_QUALITY"), "standard"),
		ImagesPerMinute:  30,

		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    os.Getenv("GEMINI_MODEL"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: os.Getenv("ANTHROPIC_MODEL"),
		GrokKey:        os.Getenv("GROK_API_KEY"),
		KimiKey:        os.Getenv("KIMI_API_KEY"),
		MoonshotKey:    os.Getenv("MOONSHOT_API_KEY"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: cmp.Or(os.Getenv("MONGO_DATABASE"), "moodtoon"),

		StaticDir:  cmp.Or(os.Getenv("STATIC_DIR"), "static"),
		BackupPath: os.Getenv("BACKUP_PATH"),

		DefaultCharacterName: cmp.Or(os.Getenv("DEFAULT_CHARACTER_NAME"), "me"),
		LogLevel:             cmp.Or(os.Getenv("LOG_LEVEL"), "info"),
	}
	c.BackupPath = cmp.Or(c.BackupPath, filepath.Join("data", "backup.jsonl"))
	if within(c.BackupPath, c.StaticDir) {
		return Config{}, fmt.Errorf("BACKUP_PATH %q must not be inside STATIC_DIR %q, which is served publicly", c.BackupPath, c.StaticDir)
	}

	if v := os.Getenv("IMAGE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("IMAGE_PER_MINUTE: %w", err)
		}
		c.ImagesPerMinute = n
	}

	var names []string
	if v := os.Getenv("EMOTIONS"); v != "" {
		names = strings.Split(v, ",")
	}
	c.Vocabulary = schema.NewVocabulary(names, os.Getenv("FALLBACK_EMOTION"))

	return c, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
