// Package weekly folds seven daily analyses into a connected week narrative.
package weekly

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

// ErrNeedSevenDays is returned for any input other than exactly seven records.
var ErrNeedSevenDays = errors.New("weekly summary needs exactly 7 daily analyses")

const (
	defaultConnector = "And then..."
	systemPrompt     = `You are a moving storyteller who connects a week of diary entries into one storyboard narration.
You reply with a JSON object only.`
)

// Aggregator never generates images; it only asks for text.
type Aggregator struct {
	inferencer inference.Inferencer
}

func NewAggregator(inf inference.Inferencer) *Aggregator {
	return &Aggregator{inferencer: inf}
}

// Aggregate summarizes daily, Monday first. Emotion statistics are computed
// locally and are present even when the narratives fall back to templates.
func (a *Aggregator) Aggregate(ctx context.Context, daily []schema.AnalysisRecord) (schema.WeeklySummary, error) {
	if len(daily) != len(schema.Weekdays) {
		return schema.WeeklySummary{}, fmt.Errorf("%w: got %d", ErrNeedSevenDays, len(daily))
	}

	flow, stats, dominant := schema.Tally(daily)
	summary := schema.WeeklySummary{
		EmotionFlow:     flow,
		EmotionStats:    stats,
		DominantEmotion: dominant,
	}

	user := userPrompt(daily, flow)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat:      schema.WeeklyResponseFormat(),
		Temperature:         openai.Float(0.8),
		MaxCompletionTokens: openai.Int(int64(utils.CountTokens(systemPrompt+user) + 2048)),
	}
	out, err := a.inferencer.Infer(ctx, params, systemPrompt, user)
	if err != nil {
		log.Warn("weekly narrative failed, using templates", "error", err)
		return fallback(summary, daily), nil
	}

	reply, err := utils.DecodeJSON[schema.WeeklyReply](out)
	if err == nil {
		err = validate(reply)
	}
	if err != nil {
		log.Warn("weekly narrative unusable, using templates", "error", fmt.Errorf("%w: %w", inference.ErrMalformed, err))
		log.Debug("raw output", "output", out)
		return fallback(summary, daily), nil
	}

	summary.DailyNarratives = make([]schema.DailyNarrative, len(schema.Weekdays))
	for i, n := range reply.DailyNarratives {
		summary.DailyNarratives[i] = schema.DailyNarrative{
			Day:       schema.Weekdays[i],
			Narrative: strings.TrimSpace(n.Narrative),
			Connector: strings.TrimSpace(n.Connector),
		}
	}
	summary.WeeklySummary = strings.TrimSpace(reply.WeeklySummary)
	summary.EmotionalJourney = cmp.Or(strings.TrimSpace(reply.EmotionalJourney), journey(flow))
	summary.Success = true
	return summary, nil
}

func validate(reply schema.WeeklyReply) error {
	if len(reply.DailyNarratives) != len(schema.Weekdays) {
		return fmt.Errorf("got %d narratives", len(reply.DailyNarratives))
	}
	for i, n := range reply.DailyNarratives {
		if strings.TrimSpace(n.Narrative) == "" {
			return fmt.Errorf("empty narrative for %s", schema.Weekdays[i])
		}
	}
	if strings.TrimSpace(reply.WeeklySummary) == "" {
		return errors.New("missing weekly_summary")
	}
	return nil
}

func userPrompt(daily []schema.AnalysisRecord, flow []schema.Emotion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn this week's emotional journey into a connected storyboard narration.\n\nEmotion flow: %s\n\nEach day:\n", journey(flow))
	for i, d := range daily {
		fmt.Fprintf(&b, "%s: %s (emotion: %s)\n", schema.Weekdays[i], d.OneLine, d.Emotion)
	}
	b.WriteString(`
Requirements:
1. A short narration for each day, two or three sentences, as if describing that day's picture
2. A connector phrase that carries each day's emotion into the next; the last day has an empty connector
3. The whole week reads as one story of growth
4. End on a hopeful note

Return "daily_narratives" (exactly seven, Monday to Sunday, each with "day", "narrative" and "connector"), "weekly_summary" and "emotional_journey".`)
	return b.String()
}

func journey(flow []schema.Emotion) string {
	names := make([]string, len(flow))
	for i, e := range flow {
		names[i] = e.String()
	}
	return strings.Join(names, " → ")
}

func fallback(summary schema.WeeklySummary, daily []schema.AnalysisRecord) schema.WeeklySummary {
	summary.DailyNarratives = make([]schema.DailyNarrative, len(daily))
	for i, d := range daily {
		connector := defaultConnector
		if i == len(daily)-1 {
			connector = ""
		}
		summary.DailyNarratives[i] = schema.DailyNarrative{
			Day:       schema.Weekdays[i],
			Narrative: fmt.Sprintf("%s was a day spent with %s feeling. %s", schema.Weekdays[i], strings.ToLower(d.Emotion.String()), d.OneLine),
			Connector: connector,
		}
	}
	first, last := summary.EmotionFlow[0], summary.EmotionFlow[len(summary.EmotionFlow)-1]
	summary.WeeklySummary = fmt.Sprintf("A meaningful week that began with %s and ended with %s.",
		strings.ToLower(first.String()), strings.ToLower(last.String()))
	summary.EmotionalJourney = journey(summary.EmotionFlow)
	summary.Success = false
	return summary
}
