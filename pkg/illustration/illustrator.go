package illustration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"moodtoon/pkg/inference"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/utils"
)

// ErrNoGenerator is returned by Portrait when image generation is not configured.
var ErrNoGenerator = errors.New("image generation is not configured")

// Saver keeps a copy of a generated image and returns the URL to serve it from.
type Saver interface {
	Save(ctx context.Context, remoteURL, name string) (string, error)
}

type Illustrator struct {
	images  inference.ImageGenerator
	saver   Saver
	quality string
}

type Option func(*Illustrator)

// WithSaver stores every generated panel through s.
func WithSaver(s Saver) Option {
	return func(i *Illustrator) { i.saver = s }
}

func WithQuality(q string) Option {
	return func(i *Illustrator) { i.quality = q }
}

func NewIllustrator(images inference.ImageGenerator, opts ...Option) *Illustrator {
	i := &Illustrator{images: images, quality: "standard"}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Illustrate attaches an image to panel. Failures are logged and leave the
// panel without an image; they never stop the caller.
func (i *Illustrator) Illustrate(ctx context.Context, panel *schema.Panel, character *schema.CharacterDescriptor, emotion string) {
	i.illustrate(ctx, panel, character, emotion, BuildPrompt(*panel, character, emotion, LayoutPanel))
}

func (i *Illustrator) illustrate(ctx context.Context, panel *schema.Panel, character *schema.CharacterDescriptor, emotion, prompt string) {
	panel.ImageURL = nil
	panel.ImageSavedLocally = false
	panel.CharacterUsed = false
	if i == nil || i.images == nil {
		return
	}

	url, err := i.images.Generate(ctx, prompt, LayoutPanel.Size(), i.quality)
	if err != nil {
		log.Warn("panel illustration failed", "emotion", emotion, "error", err)
		return
	}

	if i.saver != nil {
		local, err := i.saver.Save(ctx, url, strings.ToLower(emotion))
		if err != nil {
			log.Warn("keeping remote image url, local save failed", "error", err)
		} else {
			url = local
			panel.ImageSavedLocally = true
		}
	}
	panel.ImageURL = &url
	panel.CharacterUsed = !character.IsEmpty()
}

// IllustrateStory illustrates each panel in order using the panel's own emotion.
func (i *Illustrator) IllustrateStory(ctx context.Context, story *schema.Story, character *schema.CharacterDescriptor) {
	var prev string
	for n := range story.Panels {
		p := &story.Panels[n]
		prompt := BuildPrompt(*p, character, p.Emotion, LayoutPanel)
		if prev != "" && log.GetLevel() <= log.DebugLevel {
			log.Debug("panel prompt changed", "panel", n+1, "added", utils.ChangedText(utils.DiffWords(prev, prompt), utils.Added))
		}
		prev = prompt
		i.illustrate(ctx, p, character, p.Emotion, prompt)
	}
}

// Portrait draws a square character sheet showing emotion. Unlike panel
// illustration, the error is returned to the caller.
func (i *Illustrator) Portrait(ctx context.Context, character *schema.CharacterDescriptor, emotion string) (string, error) {
	if i == nil || i.images == nil {
		return "", ErrNoGenerator
	}
	sheet := schema.Panel{Scene: "The exact same character standing alone, drawn as a reference sheet."}
	url, err := i.images.Generate(ctx, BuildPrompt(sheet, character, emotion, LayoutPortrait), LayoutPortrait.Size(), i.quality)
	if err != nil {
		return "", fmt.Errorf("portrait for %s: %w", emotion, err)
	}
	return url, nil
}
