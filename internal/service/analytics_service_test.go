package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

// stubCompleter answers by operation name and records every request.
type stubCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	fn      func(req ai.CompletionRequest) (string, error)
	err     error
	calls   []ai.CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.fn != nil {
		return s.fn(req)
	}
	return s.replies[req.Operation], nil
}

func (s *stubCompleter) operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		ops = append(ops, c.Operation)
	}
	return ops
}

func predictRequest() dto.PredictOutcomeRequest {
	return dto.PredictOutcomeRequest{
		CaseType:     "contract",
		Jurisdiction: "N.D. Cal.",
		Facts:        "Supplier failed to deliver goods under a signed purchase order.",
		LegalIssues:  []string{"breach of contract", "consequential damages"},
	}
}

func TestPredictOutcomeClampsModelOutput(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{
		"predict_outcome": "Here is the analysis:\n```json\n{\"outcomeProbability\": 1.7, \"confidence\": \"HIGH\", \"keyFactors\": [\"signed PO\"], \"reasoning\": \"strong paper trail\"}\n```",
	}}
	svc := NewLegalAnalyticsService(completer, nil, nil)

	out, err := svc.PredictOutcome(context.Background(), predictRequest())
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.OutcomeProbability)
	assert.Equal(t, "high", out.Confidence)
	assert.Equal(t, []string{"signed PO"}, out.KeyFactors)
	assert.NotNil(t, out.Risks)
	assert.Equal(t, "strong paper trail", out.Reasoning)
	require.Len(t, completer.calls, 1)
	assert.Contains(t, completer.calls[0].Prompt, "- breach of contract")
}

func TestPredictOutcomeFallsBackOnUnparseableReply(t *testing.T) {
	svc := NewLegalAnalyticsService(ai.DemoCompleter{}, nil, nil)

	out, err := svc.PredictOutcome(context.Background(), predictRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.5, out.OutcomeProbability)
	assert.Equal(t, "low", out.Confidence)
	assert.Empty(t, out.KeyFactors)
	assert.Equal(t, fallbackPredictionReasoning, out.Reasoning)
}

func TestPredictOutcomeValidation(t *testing.T) {
	svc := NewLegalAnalyticsService(&stubCompleter{}, nil, nil)
	_, err := svc.PredictOutcome(context.Background(), dto.PredictOutcomeRequest{CaseType: "contract"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestPredictOutcomeModelFailure(t *testing.T) {
	svc := NewLegalAnalyticsService(&stubCompleter{err: errors.New("connection reset")}, nil, nil)
	_, err := svc.PredictOutcome(context.Background(), predictRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAIUnavailable.Code))
}

func TestAnalyzeJudgeKeepsRequestedName(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{
		"analyze_judge": `{"judgeName": "someone else", "rulingPatterns": ["grants summary judgment sparingly"], "reversalRate": -0.2, "averageTimeToRuling": "45 days"}`,
	}}
	svc := NewLegalAnalyticsService(completer, nil, nil)

	out, err := svc.AnalyzeJudge(context.Background(), dto.JudgeAnalysisRequest{JudgeName: "Alsup"})
	require.NoError(t, err)
	assert.Equal(t, "Alsup", out.JudgeName)
	assert.Equal(t, 0.0, out.ReversalRate)
	assert.Equal(t, "45 days", out.AverageTimeToRuling)
	assert.NotNil(t, out.NotableTendencies)
}

func TestAssessRiskNormalisesLevels(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{
		"assess_risk": `{"overallRisk": "severe", "riskScore": 140, "factors": [{"factor": "late disclosure", "severity": "Critical"}]}`,
	}}
	svc := NewLegalAnalyticsService(completer, nil, nil)

	out, err := svc.AssessRisk(context.Background(), dto.RiskAssessmentRequest{CaseSummary: "Missed discovery deadline."})
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.RiskScore)
	assert.Equal(t, "high", out.OverallRisk)
	require.Len(t, out.Factors, 1)
	assert.Equal(t, "medium", out.Factors[0].Severity)
}

func TestAssessRiskFallback(t *testing.T) {
	svc := NewLegalAnalyticsService(&stubCompleter{replies: map[string]string{"assess_risk": "I cannot help with that."}}, nil, nil)

	out, err := svc.AssessRisk(context.Background(), dto.RiskAssessmentRequest{CaseSummary: "x"})
	require.NoError(t, err)
	assert.Equal(t, "medium", out.OverallRisk)
	assert.Equal(t, 50.0, out.RiskScore)
	assert.Empty(t, out.Factors)
}

func TestDashboardRunsBothAnalyses(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{
		"predict_outcome": `{"outcomeProbability": 0.7, "confidence": "medium"}`,
		"assess_risk":     `{"overallRisk": "low", "riskScore": 20}`,
	}}
	svc := NewLegalAnalyticsService(completer, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }

	out, err := svc.Dashboard(context.Background(), dto.AnalyticsDashboardRequest{
		CaseType:     "contract",
		Jurisdiction: "N.D. Cal.",
		Facts:        "Late delivery.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.7, out.Prediction.OutcomeProbability)
	assert.Equal(t, "low", out.Risk.OverallRisk)
	assert.Equal(t, time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC), out.GeneratedAt)
	assert.ElementsMatch(t, []string{"predict_outcome", "assess_risk"}, completer.operations())
}

func TestDashboardFailsWhenOneCallFails(t *testing.T) {
	completer := &stubCompleter{fn: func(req ai.CompletionRequest) (string, error) {
		if req.Operation == "assess_risk" {
			return "", errors.New("quota exceeded")
		}
		return `{"outcomeProbability": 0.4}`, nil
	}}
	svc := NewLegalAnalyticsService(completer, nil, nil)

	_, err := svc.Dashboard(context.Background(), dto.AnalyticsDashboardRequest{
		CaseType:     "tort",
		Jurisdiction: "S.D.N.Y.",
		Facts:        "Slip and fall.",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAIUnavailable.Code))
}
