package ai

import (
	"context"
	"fmt"
)

// DemoReply is returned for every prompt while no API key is configured.
const DemoReply = "CaseBuddy is running in demo mode: AI_API_KEY is not configured, so this response was not generated by a language model."

// DemoCompleter stands in for the hosted model when no API key is set, so
// AI-backed routes degrade to their fallback output instead of failing.
type DemoCompleter struct{}

// Complete implements Completer.
func (DemoCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Operation == "" {
		return DemoReply, nil
	}
	return fmt.Sprintf("%s (operation: %s)", DemoReply, req.Operation), nil
}

// New returns a Gemini client when an API key is configured and the demo completer otherwise.
// The returned close function is never nil.
func New(ctx context.Context, apiKey string, build func(context.Context) (*GeminiCompleter, error)) (Completer, func() error, error) {
	if apiKey == "" {
		return DemoCompleter{}, func() error { return nil }, nil
	}
	g, err := build(ctx)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return g, g.Close, nil
}
