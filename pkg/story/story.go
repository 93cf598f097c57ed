// Package story turns an analysis record into an ordered sequence of panels.
package story

import (
	"cmp"
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
	DailyPanels  = 1
	LegacyPanels = 4
	WeeklyPanels = 8

	placeholderDialogue = "..."
)

var (
	// ErrPanelCount is returned for a panel count Compose does not support.
	ErrPanelCount = errors.New("unsupported panel count")
	// ErrWeekLength is returned when ComposeWeek gets other than seven days.
	ErrWeekLength = errors.New("weekly story needs exactly 7 daily analyses")
)

// Composer asks a text generator for story panels. It is safe for concurrent use.
type Composer struct {
	inferencer inference.Inferencer
}

func NewComposer(inf inference.Inferencer) *Composer {
	return &Composer{inferencer: inf}
}

// Compose returns exactly panelCount panels for panelCount 1 or 4. A short
// reply is padded with placeholders and a long one truncated; a failed call
// gives identical panels built from the analysis, with Success false.
func (c *Composer) Compose(ctx context.Context, a schema.AnalysisRecord, characterName string, panelCount int) (schema.Story, error) {
	switch panelCount {
	case DailyPanels, LegacyPanels:
	case WeeklyPanels:
		return schema.Story{}, fmt.Errorf("%w: %d panels are built from a week of analyses, use ComposeWeek", ErrPanelCount, panelCount)
	default:
		return schema.Story{}, fmt.Errorf("%w: %d", ErrPanelCount, panelCount)
	}

	system := composeSystemPrompt
	user := composeUserPrompt(a, characterName, panelCount)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat:      schema.StoryResponseFormat(),
		Temperature:         openai.Float(0.8),
		MaxCompletionTokens: openai.Int(int64(utils.CountTokens(system+user) + 400*panelCount)),
	}

	out, err := c.inferencer.Infer(ctx, params, system, user)
	if err != nil {
		log.Warn("story generation failed, using fallback", "panels", panelCount, "error", err)
		return Fallback(a, panelCount), nil
	}
	reply, err := utils.DecodeJSON[schema.StoryReply](out)
	if err == nil && len(reply.Panels) == 0 {
		err = errors.New("no panels")
	}
	if err != nil {
		log.Warn("story reply unusable, using fallback", "panels", panelCount, "error", fmt.Errorf("%w: %w", inference.ErrMalformed, err))
		log.Debug("raw output", "output", out)
		return Fallback(a, panelCount), nil
	}
	if len(reply.Panels) != panelCount {
		log.Debug("story panel count adjusted", "want", panelCount, "got", len(reply.Panels))
	}

	panels := make([]schema.Panel, panelCount)
	for i := range panels {
		var p schema.PanelReply
		if i < len(reply.Panels) {
			p = reply.Panels[i]
		}
		panels[i] = schema.Panel{
			Scene:    cmp.Or(strings.TrimSpace(p.Scene), Ordinal(i+1)+" moment"),
			Dialogue: cmp.Or(strings.TrimSpace(p.Dialogue), placeholderDialogue),
			Emotion:  a.Emotion.String(),
		}
	}
	return schema.Story{Panels: panels, Success: true}, nil
}

// Fallback builds panelCount identical panels from the analysis alone.
func Fallback(a schema.AnalysisRecord, panelCount int) schema.Story {
	scene := fmt.Sprintf("a scene from a day filled with %s", strings.ToLower(a.Emotion.String()))
	dialogue := cmp.Or(a.OneLine, "Today was a precious day too.")
	panels := make([]schema.Panel, max(panelCount, 1))
	for i := range panels {
		panels[i] = schema.Panel{Scene: scene, Dialogue: dialogue, Emotion: a.Emotion.String()}
	}
	return schema.Story{Panels: panels, Success: false}
}

// Ordinal renders n as "1st", "2nd", "3rd", "4th", "11th" and so on.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
