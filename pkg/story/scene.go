package story

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"moodtoon/pkg/inference"
)

// ErrEmptyText is returned by DescribeScene for blank diary text.
var ErrEmptyText = errors.New("diary text is empty")

// Scene is a drawable description of one moment of the day.
type Scene struct {
	Description string `json:"description"`
	Success     bool   `json:"success"`
}

// DescribeScene writes one paragraph describing a single panel: the
// character's position, expression and posture, the background and the mood.
// A failed call gives a generic scene with Success false.
func (c *Composer) DescribeScene(ctx context.Context, text, emotion, characterName string) (Scene, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Scene{}, ErrEmptyText
	}

	params := &openai.ChatCompletionNewParams{
		Temperature:         openai.Float(0.8),
		MaxCompletionTokens: openai.Int(400),
	}
	out, err := c.inferencer.Infer(ctx, params, sceneSystemPrompt, sceneUserPrompt(text, emotion, characterName))
	if err == nil {
		out = strings.TrimSpace(out)
		if i := strings.LastIndex(out, "</think>"); i != -1 {
			out = strings.TrimSpace(out[i+len("</think>"):])
		}
		if out == "" {
			err = inference.ErrMalformed
		}
	}
	if err != nil {
		log.Warn("scene description failed, using fallback", "emotion", emotion, "error", err)
		return FallbackScene(emotion), nil
	}
	return Scene{Description: out, Success: true}, nil
}

func FallbackScene(emotion string) Scene {
	return Scene{
		Description: fmt.Sprintf("an everyday scene filled with %s", strings.ToLower(emotion)),
		Success:     false,
	}
}
