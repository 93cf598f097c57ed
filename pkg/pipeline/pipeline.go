// Package pipeline chains extraction, story composition and illustration
// for a single diary entry.
package pipeline

import (
	"cmp"
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"moodtoon/pkg/analysis"
	"moodtoon/pkg/illustration"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/story"
)

type DailyRequest struct {
	Text          string
	CharacterName string
	Character     *schema.CharacterDescriptor
	// Illustrate requests an image for every panel.
	Illustrate bool
	// PanelCount defaults to a single panel.
	PanelCount int
}

type DailyResult struct {
	Analysis schema.AnalysisRecord `json:"analysis"`
	Story    schema.Story          `json:"story"`
}

// Daily runs the stages strictly in order; each consumes the previous output.
type Daily struct {
	extractor   *analysis.Extractor
	composer    *story.Composer
	illustrator *illustration.Illustrator
}

func NewDaily(extractor *analysis.Extractor, composer *story.Composer, illustrator *illustration.Illustrator) *Daily {
	return &Daily{extractor: extractor, composer: composer, illustrator: illustrator}
}

// Run returns an error only for invalid input. Generative failures surface as
// fallback data with Success false or panels without images.
func (d *Daily) Run(ctx context.Context, req DailyRequest) (DailyResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return DailyResult{}, analysis.ErrEmptyText
	}
	panels := cmp.Or(req.PanelCount, story.DailyPanels)
	name := cmp.Or(strings.TrimSpace(req.CharacterName), "me")

	start := time.Now()
	record := d.extractor.Analyze(ctx, text)
	log.Debug("diary analyzed", "emotion", record.Emotion, "success", record.Success, "took", time.Since(start))

	st, err := d.composer.Compose(ctx, record, name, panels)
	if err != nil {
		return DailyResult{}, err
	}
	log.Debug("story composed", "panels", len(st.Panels), "success", st.Success)

	if req.Illustrate && d.illustrator != nil {
		d.illustrator.IllustrateStory(ctx, &st, req.Character)
	}

	return DailyResult{Analysis: record, Story: st}, nil
}
