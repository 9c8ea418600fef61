// Package ai is the gateway to the hosted language model used by the
// analytics, drafting, research, OCR structuring and search features.
package ai

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyResponse is returned when the model replies without any text.
var ErrEmptyResponse = errors.New("ai: empty response")

// CompletionRequest is a single prompt round-trip.
type CompletionRequest struct {
	// Operation labels the call in logs and metrics, e.g. "predict_outcome".
	Operation   string
	Prompt      string
	System      string
	Temperature *float32
	MaxTokens   int32
}

// Completer sends a prompt to a model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Temperature is a helper for CompletionRequest.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// Observer records the outcome of model calls.
type Observer interface {
	ObserveAICall(operation, outcome string, duration time.Duration)
}

type instrumented struct {
	next     Completer
	observer Observer
}

// Instrument wraps a Completer so every call is reported to observer.
func Instrument(next Completer, observer Observer) Completer {
	if observer == nil {
		return next
	}
	return &instrumented{next: next, observer: observer}
}

func (i *instrumented) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, req)
	outcome := "success"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	op := req.Operation
	if op == "" {
		op = "unknown"
	}
	i.observer.ObserveAICall(op, outcome, time.Since(start))
	return text, err
}
