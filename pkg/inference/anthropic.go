package inference

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v3"
)

const jsonOnlyInstruction = "\n\nRespond with a single JSON object and nothing else."

// AnthropicInferencer implements Inferencer on the Messages API.
type AnthropicInferencer struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicInferencer(apiKey string, model string) *AnthropicInferencer {
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &AnthropicInferencer{
		client: &client,
		model:  cmp.Or(model, "claude-haiku-4-5-20251001"),
	}
}

func (a *AnthropicInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	params = cloneParams(params)
	if wantsJSON(params) {
		system += jsonOnlyInstruction
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   cmp.Or(params.MaxCompletionTokens.Value, 4096),
		Temperature: anthropic.Float(cmp.Or(params.Temperature.Value, 0.7)),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic messages: %w", ErrExternalCall, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic returned no text blocks", ErrMalformed)
	}
	return sb.String(), nil
}
