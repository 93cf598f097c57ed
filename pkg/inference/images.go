package inference

import (
	"cmp"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// OpenAIImageGenerator creates images through the OpenAI Images API.
// Calls are paced by a limiter shared by every caller of the generator.
type OpenAIImageGenerator struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAIImageGenerator returns a generator allowing perMinute requests per minute.
// A perMinute of zero or less disables pacing.
func NewOpenAIImageGenerator(apiKey, baseURL, model string, perMinute int) *OpenAIImageGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
	}
	return &OpenAIImageGenerator{
		client:  &client,
		model:   cmp.Or(model, string(openai.ImageModelDallE3)),
		limiter: limiter,
	}
}

func (g *OpenAIImageGenerator) Generate(ctx context.Context, prompt string, size ImageSize, quality string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: waiting for image slot: %w", ErrExternalCall, err)
	}

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(cmp.Or(size, SizeSquare)),
		Quality:        openai.ImageGenerateParamsQuality(cmp.Or(quality, "standard")),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("%w: image generation: %w", ErrExternalCall, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("%w: image generation returned no url", ErrMalformed)
	}
	return resp.Data[0].URL, nil
}
