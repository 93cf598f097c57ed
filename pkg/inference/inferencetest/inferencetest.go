// Package inferencetest provides scripted Inferencer and ImageGenerator doubles.
package inferencetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go/v3"

	"moodtoon/pkg/inference"
)

// Call records one request seen by a double.
type Call struct {
	System string
	User   string
}

// Inferencer replays Replies in order. Once they run out, the last reply repeats.
// When Err is set every call fails with it.
type Inferencer struct {
	Replies []string
	Err     error

	mu    sync.Mutex
	calls []Call
}

func (f *Inferencer) Infer(ctx context.Context, _ *openai.ChatCompletionNewParams, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.calls)
	f.calls = append(f.calls, Call{System: system, User: user})
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", inference.ErrExternalCall, err)
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", fmt.Errorf("%w: no scripted reply", inference.ErrMalformed)
	}
	return f.Replies[min(n, len(f.Replies)-1)], nil
}

func (f *Inferencer) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Images hands out URLs of the form https://img.test/<n>.png.
// FailOn lists 1-based call numbers that return Err instead.
type Images struct {
	Err    error
	FailOn map[int]bool

	mu      sync.Mutex
	prompts []string
	sizes   []inference.ImageSize
}

func (f *Images) Generate(ctx context.Context, prompt string, size inference.ImageSize, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.sizes = append(f.sizes, size)
	n := len(f.prompts)
	if f.FailOn[n] || (f.Err != nil && f.FailOn == nil) {
		err := f.Err
		if err == nil {
			err = inference.ErrExternalCall
		}
		return "", err
	}
	return fmt.Sprintf("https://img.test/%d.png", n), nil
}

func (f *Images) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *Images) Sizes() []inference.ImageSize {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]inference.ImageSize(nil), f.sizes...)
}
