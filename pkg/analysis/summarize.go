package analysis

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"moodtoon/pkg/inference"
	"moodtoon/pkg/utils"
)

const (
	// chunkRunes bounds how much text goes into a single summary request.
	chunkRunes          = 6000
	webtoonSummaryRunes = 80
)

// Summary is a plain-text summary. Success is false for the truncation fallback.
type Summary struct {
	Summary string `json:"summary"`
	Success bool   `json:"success"`
}

type Summarizer struct {
	inferencer inference.Inferencer
}

func NewSummarizer(inf inference.Inferencer) *Summarizer {
	return &Summarizer{inferencer: inf}
}

// Summarize condenses text to two or three sentences. Long text is split into
// chunks, each summarized, then merged with one more request.
func (s *Summarizer) Summarize(ctx context.Context, text string) (Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Summary{}, ErrEmptyText
	}

	chunks := utils.ChunkText(text, chunkRunes)
	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := s.infer(ctx, summarizeSystemPrompt, chunk)
		if err != nil {
			log.Warn("summary failed, using truncation", "chunk", i+1, "chunks", len(chunks), "error", err)
			return fallbackSummary(text), nil
		}
		partials = append(partials, out)
	}
	if len(partials) == 1 {
		return Summary{Summary: partials[0], Success: true}, nil
	}

	merged, err := s.infer(ctx, summarizeMergePrompt, strings.Join(partials, "\n\n"))
	if err != nil {
		log.Warn("summary merge failed, using truncation", "error", err)
		return fallbackSummary(text), nil
	}
	return Summary{Summary: merged, Success: true}, nil
}

// SummarizeForWebtoon reduces a diary to the one visual moment a single
// panel can show, in one or two sentences.
func (s *Summarizer) SummarizeForWebtoon(ctx context.Context, text string) (Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Summary{}, ErrEmptyText
	}
	out, err := s.infer(ctx, webtoonSummarySystemPrompt, utils.TruncateRunes(text, chunkRunes, ""))
	if err != nil {
		log.Warn("webtoon summary failed, using truncation", "error", err)
		return Summary{Summary: utils.TruncateRunes(text, webtoonSummaryRunes, "..."), Success: false}, nil
	}
	return Summary{Summary: out, Success: true}, nil
}

func (s *Summarizer) infer(ctx context.Context, system, user string) (string, error) {
	params := &openai.ChatCompletionNewParams{
		Temperature:         openai.Float(0.5),
		MaxCompletionTokens: openai.Int(512),
	}
	out, err := s.inferencer.Infer(ctx, params, system, user)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if i := strings.LastIndex(out, "</think>"); i != -1 {
		out = strings.TrimSpace(out[i+len("</think>"):])
	}
	if out == "" {
		return "", inference.ErrMalformed
	}
	return out, nil
}

func fallbackSummary(text string) Summary {
	return Summary{Summary: utils.TruncateRunes(text, summaryRunes, "..."), Success: false}
}
