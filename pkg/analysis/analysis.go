// Package analysis extracts emotions, keywords and summaries from diary text.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"moodtoon/pkg/inference"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/utils"
)

const (
	maxKeywords     = 5
	summaryRunes    = 100
	keywordSameness = 0.85
)

// ErrEmptyText is returned for input that holds nothing to analyze.
var ErrEmptyText = errors.New("text is empty")

// Extractor turns diary text into an AnalysisRecord. It holds no mutable
// state and may be shared between requests.
type Extractor struct {
	inferencer inference.Inferencer
	vocab      schema.Vocabulary
}

func NewExtractor(inf inference.Inferencer, vocab schema.Vocabulary) *Extractor {
	if len(vocab.Emotions) == 0 {
		vocab = schema.DefaultVocabulary()
	}
	return &Extractor{inferencer: inf, vocab: vocab}
}

// Analyze never fails. Any inference error, unparseable output or missing
// field yields Fallback(text).
func (e *Extractor) Analyze(ctx context.Context, text string) schema.AnalysisRecord {
	system := analyzeSystemPrompt(e.vocab.Names())
	user := analyzeUserPrompt(text)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat:      schema.AnalysisResponseFormat(),
		Temperature:         openai.Float(0.7),
		MaxCompletionTokens: openai.Int(int64(utils.CountTokens(system+user)) + 1024),
	}

	out, err := e.inferencer.Infer(ctx, params, system, user)
	if err != nil {
		log.Warn("diary analysis failed, using fallback", "error", err)
		return e.Fallback(text)
	}

	record, err := e.parse(out)
	if err != nil {
		log.Warn("diary analysis unusable, using fallback", "error", err)
		log.Debug("raw output", "output", out)
		return e.Fallback(text)
	}
	return record
}

func (e *Extractor) parse(out string) (schema.AnalysisRecord, error) {
	reply, err := utils.DecodeJSON[schema.AnalysisReply](out)
	if err != nil {
		return schema.AnalysisRecord{}, fmt.Errorf("%w: %w", inference.ErrMalformed, err)
	}

	emotion, ok := e.vocab.Normalize(reply.Emotion)
	if !ok {
		return schema.AnalysisRecord{}, fmt.Errorf("%w: emotion %q outside vocabulary", inference.ErrMalformed, reply.Emotion)
	}
	summary := strings.TrimSpace(reply.Summary)
	oneLine := strings.TrimSpace(reply.OneLine)
	switch {
	case reply.Intensity < 1:
		return schema.AnalysisRecord{}, fmt.Errorf("%w: intensity %d", inference.ErrMalformed, reply.Intensity)
	case summary == "":
		return schema.AnalysisRecord{}, fmt.Errorf("%w: missing summary", inference.ErrMalformed)
	case oneLine == "":
		return schema.AnalysisRecord{}, fmt.Errorf("%w: missing one_line", inference.ErrMalformed)
	}

	keywords := utils.DedupeSimilar(reply.Keywords, keywordSameness)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	subs := utils.DedupeSimilar(reply.SubEmotions, 1)
	if len(subs) == 0 {
		subs = []string{strings.ToLower(emotion.String())}
	}

	return schema.AnalysisRecord{
		Emotion:     emotion,
		Intensity:   min(reply.Intensity, 10),
		SubEmotions: subs,
		Summary:     summary,
		Keywords:    keywords,
		OneLine:     oneLine,
		Success:     true,
	}, nil
}

// Fallback is the record used whenever the model cannot be relied on.
// It depends only on text and the vocabulary's fallback emotion.
func (e *Extractor) Fallback(text string) schema.AnalysisRecord {
	return schema.AnalysisRecord{
		Emotion:     e.vocab.Fallback,
		Intensity:   5,
		SubEmotions: []string{"composed"},
		Summary:     utils.TruncateRunes(strings.TrimSpace(text), summaryRunes, "..."),
		Keywords:    []string{"daily", "day"},
		OneLine:     "an ordinary but meaningful day",
		Success:     false,
	}
}
