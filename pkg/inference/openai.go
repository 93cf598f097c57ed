package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"moodtoon/pkg/schema"
)

// OpenAIInferencer implements Inferencer using OpenAI's official Go SDK.
type OpenAIInferencer struct {
	client *openai.Client
	apiKey string
	model  string
	name   string

	// jsonObjectOnly rewrites strict schema requests to plain JSON object mode.
	jsonObjectOnly bool
}

// NewOpenAIInferencer creates a new inferencer instance using OpenAI client.
// Retries are disabled: a failed call is handed straight to the caller's fallback.
func NewOpenAIInferencer(apiKey string, model string) *OpenAIInferencer {
	client := openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &OpenAIInferencer{
		client: &client,
		apiKey: apiKey,
		model:  model,
		name:   "openai",
	}
}

func (o *OpenAIInferencer) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	o.client = &client
}

func (o *OpenAIInferencer) SetModel(model string) {
	o.model = model
}

func (o *OpenAIInferencer) Model() string { return o.model }

// Infer sends text to the chat completion endpoint and returns the output.
func (o *OpenAIInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	params = cloneParams(params)
	params.Model = cmp.Or(params.Model, o.model)
	if o.jsonObjectOnly && params.ResponseFormat.OfJSONSchema != nil {
		params.ResponseFormat = schema.JSONObjectResponseFormat()
	}
	params.Messages = []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.Opt[string]{Value: system},
				},
			}},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: param.Opt[string]{Value: user},
				},
			},
		},
	}

	params.MaxCompletionTokens = openai.Int(cmp.Or(params.MaxCompletionTokens.Value, 4096))
	params.Temperature = openai.Float(cmp.Or(params.Temperature.Value, 0.7))
	params.TopP = openai.Float(cmp.Or(params.TopP.Value, 1.0))

	resp, err := o.client.Chat.Completions.New(ctx, *params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			log.Warn("provider rejected request", "provider", o.name, "status", apiErr.StatusCode)
		}
		return "", fmt.Errorf("%w: %s inference: %w", ErrExternalCall, o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", ErrMalformed, o.name)
	}
	if resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: %s returned empty completion content", ErrMalformed, o.name)
	}

	return resp.Choices[0].Message.Content, nil
}
