package inference

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrExternalCall marks a remote generative service that failed or was unreachable.
	ErrExternalCall = errors.New("external call failed")
	// ErrMalformed marks a response that could not be parsed or lacked required fields.
	ErrMalformed = errors.New("malformed response")
)

// Inferencer defines an interface for running text generation.
type Inferencer interface {
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
}

type ImageSize string

const (
	SizeSquare ImageSize = "1024x1024"
	SizeWide   ImageSize = "1792x1024"
	SizeTall   ImageSize = "1024x1792"
)

// ImageGenerator produces one image per call and returns its URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, size ImageSize, quality string) (string, error)
}

// wantsJSON reports whether the caller asked for a JSON-only response.
func wantsJSON(params *openai.ChatCompletionNewParams) bool {
	if params == nil {
		return false
	}
	return params.ResponseFormat.OfJSONSchema != nil || params.ResponseFormat.OfJSONObject != nil
}

func cloneParams(params *openai.ChatCompletionNewParams) *openai.ChatCompletionNewParams {
	if params == nil {
		return new(openai.ChatCompletionNewParams)
	}
	p := *params
	return &p
}
