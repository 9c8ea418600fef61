package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	return s.reply, s.err
}

type recordingObserver struct {
	operation string
	outcome   string
	calls     int
}

func (r *recordingObserver) ObserveAICall(operation, outcome string, _ time.Duration) {
	r.operation = operation
	r.outcome = outcome
	r.calls++
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	obs := &recordingObserver{}
	c := Instrument(stubCompleter{reply: "ok"}, obs)
	out, err := c.Complete(context.Background(), CompletionRequest{Operation: "predict_outcome"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "predict_outcome", obs.operation)
	assert.Equal(t, "success", obs.outcome)

	c = Instrument(stubCompleter{err: context.DeadlineExceeded}, obs)
	_, err = c.Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)
	assert.Equal(t, "unknown", obs.operation)
	assert.Equal(t, "timeout", obs.outcome)

	c = Instrument(stubCompleter{err: errors.New("quota")}, obs)
	_, _ = c.Complete(context.Background(), CompletionRequest{Operation: "brief"})
	assert.Equal(t, "error", obs.outcome)
	assert.Equal(t, 3, obs.calls)
}

func TestInstrumentNilObserver(t *testing.T) {
	base := stubCompleter{reply: "x"}
	assert.Equal(t, base, Instrument(base, nil))
}

func TestDemoCompleter(t *testing.T) {
	out, err := DemoCompleter{}.Complete(context.Background(), CompletionRequest{Operation: "research"})
	require.NoError(t, err)
	assert.Contains(t, out, "demo mode")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DemoCompleter{}.Complete(ctx, CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWithoutKeyUsesDemo(t *testing.T) {
	c, closeFn, err := New(context.Background(), "", func(context.Context) (*GeminiCompleter, error) {
		t.Fatal("builder must not be called without a key")
		return nil, nil
	})
	require.NoError(t, err)
	assert.IsType(t, DemoCompleter{}, c)
	assert.NoError(t, closeFn())
}

func TestNewPropagatesBuildError(t *testing.T) {
	_, closeFn, err := New(context.Background(), "key", func(context.Context) (*GeminiCompleter, error) {
		return nil, errors.New("bad key")
	})
	assert.Error(t, err)
	assert.NoError(t, closeFn())
}

func TestResponseTextJoinsCandidates(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("counsel")}}},
		nil,
		{Content: &genai.Content{Parts: []genai.Part{genai.Text(".")}}},
	}}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Hello, counsel.", text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	_, err = responseText(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
