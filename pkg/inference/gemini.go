package inference

import (
	"cmp"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates a new inferencer instance using the genai client.
func NewGeminiInferencer(ctx context.Context, apiKey string, model string) (*GeminiInferencer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  cmp.Or(model, "gemini-2.5-flash"),
	}, nil
}

func (o *GeminiInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	params = cloneParams(params)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   int32(cmp.Or(params.MaxCompletionTokens.Value, 4096)),
		Temperature:       genai.Ptr(float32(cmp.Or(params.Temperature.Value, 0.7))),
	}
	if wantsJSON(params) {
		config.ResponseMIMEType = "application/json"
	}

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		genai.Text(user),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate content: %w", ErrExternalCall, err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no text", ErrMalformed)
	}
	return text, nil
}
