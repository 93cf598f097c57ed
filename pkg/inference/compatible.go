package inference

import (
	"cmp"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Provider names an OpenAI-compatible chat completion endpoint.
type Provider string

const (
	ProviderGrok     Provider = "grok"
	ProviderKimi     Provider = "kimi"
	ProviderMoonshot Provider = "moonshot"
)

var compatible = map[Provider]struct {
	baseURL string
	model   string
}{
	ProviderGrok:     {"https://api.x.ai/v1", "grok-4-fast-reasoning"},
	ProviderKimi:     {"https://api.kimi.com/coding/v1", "kimi-for-coding"},
	ProviderMoonshot: {"https://api.moonshot.ai/v1", "kimi-k2-5"},
}

// NewCompatibleInferencer creates an inferencer for an OpenAI-compatible provider.
// These endpoints do not all accept strict JSON schemas, so structured requests
// are downgraded to plain JSON object mode.
func NewCompatibleInferencer(provider Provider, apiKey string, model string) (*OpenAIInferencer, error) {
	p, ok := compatible[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	client := openai.NewClient(
		option.WithBaseURL(p.baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &OpenAIInferencer{
		client: &client,
		apiKey: apiKey,
		model:  cmp.Or(model, p.model),
		name:   string(provider),

		jsonObjectOnly: true,
	}, nil
}
