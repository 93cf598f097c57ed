package story

import (
	"fmt"
	"strings"

	"moodtoon/pkg/schema"
)

// weekSlots are the fixed beats of the eight panel weekly story. The first
// seven take one day each; the last closes the week.
var weekSlots = [WeeklyPanels]string{
	"the start of the week",
	"things getting under way",
	"the middle of the week",
	"facing a challenge",
	"the peak of the week",
	"finding a resolution",
	"wrapping up the week",
	"looking back on how they grew",
}

// ComposeWeek fills the eight weekly slots from seven daily analyses,
// Monday first. It makes no generative call.
func ComposeWeek(daily []schema.AnalysisRecord, characterName string) (schema.Story, error) {
	if len(daily) != len(schema.Weekdays) {
		return schema.Story{}, fmt.Errorf("%w: got %d", ErrWeekLength, len(daily))
	}
	characterName = strings.TrimSpace(characterName)
	if characterName == "" {
		characterName = "the main character"
	}

	panels := make([]schema.Panel, 0, WeeklyPanels)
	for i, a := range daily {
		panels = append(panels, schema.Panel{
			Scene: fmt.Sprintf("%s, %s: %s feeling %s. %s",
				schema.Weekdays[i], weekSlots[i], characterName, strings.ToLower(a.Emotion.String()), a.Summary),
			Dialogue: a.OneLine,
			Emotion:  a.Emotion.String(),
		})
	}

	flow, _, dominant := schema.Tally(daily)
	journey := make([]string, len(flow))
	for i, e := range flow {
		journey[i] = e.String()
	}
	panels = append(panels, schema.Panel{
		Scene: fmt.Sprintf("Sunday night, %s: %s looking back over a week of %s",
			weekSlots[WeeklyPanels-1], characterName, strings.Join(journey, ", ")),
		Dialogue: fmt.Sprintf("A week that was mostly %s, and I made it through all of it.", strings.ToLower(dominant.String())),
		Emotion:  dominant.String(),
	})

	return schema.Story{Panels: panels, Success: true}, nil
}
