// Package illustration builds image prompts for story panels and runs them
// through an image generator.
package illustration

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"moodtoon/pkg/inference"
	"moodtoon/pkg/schema"
)

// Layout picks the aspect ratio a prompt asks for.
type Layout int

const (
	// LayoutPanel is a wide story panel.
	LayoutPanel Layout = iota
	// LayoutPortrait is a square character portrait.
	LayoutPortrait
)

func (l Layout) Size() inference.ImageSize {
	if l == LayoutPortrait {
		return inference.SizeSquare
	}
	return inference.SizeWide
}

// DefaultCharacter is drawn when the caller has no character of their own.
const DefaultCharacter = "a young person with expressive eyes, casual clothing"

const neutralExpression = "neutral expression, natural pose"

var expressions = map[schema.Emotion]string{
	schema.Joy:     "bright smile, sparkling eyes, relaxed posture, cheerful body language",
	schema.Sadness: "downcast eyes, slight frown, drooped shoulders, melancholic pose",
	schema.Anger:   "furrowed brows, clenched jaw, tense posture, aggressive stance",
	schema.Anxiety: "wide eyes, nervous expression, fidgeting hands, worried look",
	schema.Calm:    "gentle smile, calm eyes, relaxed stance, peaceful demeanor",
	schema.Neutral: neutralExpression,
}

// Expression returns the facial and body cues for emotion. Labels are
// matched through the default vocabulary; anything unknown is neutral.
func Expression(emotion string) string {
	e, ok := schema.DefaultVocabulary().Normalize(emotion)
	if !ok {
		return neutralExpression
	}
	return cmp.Or(expressions[e], neutralExpression)
}

// BuildPrompt renders the full image prompt for one panel. It is pure. The
// CHARACTER and CONSISTENCY sections depend on character alone, so prompts
// for the same character differ only in the emotion, scene and caption parts.
func BuildPrompt(panel schema.Panel, character *schema.CharacterDescriptor, emotion string, layout Layout) string {
	var b strings.Builder

	switch layout {
	case LayoutPortrait:
		b.WriteString("Character portrait in webtoon style.\n\n")
	default:
		b.WriteString("Single webtoon panel.\n\n")
	}

	b.WriteString("CHARACTER:\n")
	b.WriteString(characterSection(character))
	b.WriteString("\n\n")

	if character.HasBaseImages() {
		b.WriteString("CONSISTENCY:\n")
		b.WriteString(consistencySection(character))
		b.WriteString("\n\n")
	}

	label := strings.TrimSpace(emotion)
	if label == "" {
		label = schema.Neutral.String()
	}
	fmt.Fprintf(&b, "EMOTION: %s\nExpression: %s\n\n", label, Expression(label))

	if scene := strings.TrimSpace(panel.Scene); scene != "" {
		fmt.Fprintf(&b, "SCENE:\n%s\n\n", scene)
	}

	b.WriteString("CAPTION:\n")
	if d := strings.TrimSpace(panel.Dialogue); d != "" && d != "..." {
		fmt.Fprintf(&b, "Draw one speech bubble containing exactly: %q\n\n", d)
	} else {
		b.WriteString("No speech bubble and no text in the image.\n\n")
	}

	b.WriteString("STYLE:\n")
	b.WriteString("Clean line art, flat cel shading, soft pastel colors, minimal shadows and effects.\n")
	switch layout {
	case LayoutPortrait:
		b.WriteString("Square 1:1 image. Facing front, full body visible, plain white background.")
	default:
		b.WriteString("Wide 16:9 panel composition.")
	}
	return b.String()
}

func characterSection(character *schema.CharacterDescriptor) string {
	if character.IsEmpty() || strings.TrimSpace(character.Description) == "" {
		return "The main character is " + DefaultCharacter + "."
	}
	return "The main character is " + strings.TrimSpace(character.Description) + "."
}

func consistencySection(character *schema.CharacterDescriptor) string {
	refs := slices.Sorted(maps.Keys(character.BaseImages))
	var b strings.Builder
	b.WriteString("This exact character has already been drawn. Keep the same face, the same hair, the same outfit and the same body proportions as in every earlier image.\n")
	fmt.Fprintf(&b, "Reference drawings exist for: %s.\n", strings.Join(refs, ", "))
	b.WriteString("Change ONLY the facial expression and body language to match the emotion below. Do not redesign the character.")
	return b.String()
}
