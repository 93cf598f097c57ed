package story

import (
	"fmt"
	"strings"

	"moodtoon/pkg/schema"
)

const composeSystemPrompt = `You are a sensitive webtoon writer who captures everyday feelings with care.
You reply with a JSON object holding a "panels" array; each panel has "scene" and "dialogue".`

func composeUserPrompt(a schema.AnalysisRecord, characterName string, panelCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn the day of the character '%s' into a %d-panel webtoon.\n\n", characterName, panelCount)
	fmt.Fprintf(&b, "Emotion of the day: %s (intensity %d/10)\n", a.Emotion, a.Intensity)
	fmt.Fprintf(&b, "Summary: %s\n", a.Summary)
	if len(a.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(a.Keywords, ", "))
	}
	fmt.Fprintf(&b, "One line: %s\n\n", a.OneLine)
	fmt.Fprintf(&b, `Requirements:
1. Exactly %d panels, in reading order
2. Each scene is concrete: the character's position, expression, action and background
3. Each dialogue is a natural line or monologue that fits the emotion
4. Scenes must be drawable in a webtoon style and stay faithful to the diary`, panelCount)
	return b.String()
}

const sceneSystemPrompt = `You direct webtoon scenes and are good at showing feelings and situations visually.
Reply with the scene description only, as a single detailed paragraph.`

func sceneUserPrompt(text, emotion, characterName string) string {
	return fmt.Sprintf(`Describe one webtoon scene based on this diary and emotion.

Character: %s
Emotion: %s
Diary: %s

Requirements:
1. Include the character's position, expression and posture
2. Describe the background and atmosphere
3. Make the %s emotion clearly visible
4. Keep it concrete enough to be drawn`, characterName, emotion, text, emotion)
}
