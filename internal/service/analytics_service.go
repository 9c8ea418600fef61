package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const (
	fallbackPredictionReasoning = "The analysis could not be structured automatically. Review the case facts with counsel before relying on a prediction."
	fallbackJudgeSummary        = "No structured profile could be produced for this judge."
)

const (
	riskLow    = "low"
	riskMedium = "medium"
	riskHigh   = "high"
)

// LegalAnalyticsService produces model-backed outcome, judge and risk analyses.
type LegalAnalyticsService struct {
	completer ai.Completer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLegalAnalyticsService constructs the analytics service.
func NewLegalAnalyticsService(completer ai.Completer, validate *validator.Validate, logger *zap.Logger) *LegalAnalyticsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegalAnalyticsService{completer: completer, validator: validate, logger: logger, now: time.Now}
}

// PredictOutcome estimates the probability of a favourable outcome.
func (s *LegalAnalyticsService) PredictOutcome(ctx context.Context, req dto.PredictOutcomeRequest) (*dto.OutcomePrediction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prediction payload")
	}
	return s.predict(ctx, req)
}

func (s *LegalAnalyticsService) predict(ctx context.Context, req dto.PredictOutcomeRequest) (*dto.OutcomePrediction, error) {
	prompt := fmt.Sprintf(`Analyse the following case and predict its likely outcome.

Case type: %s
Jurisdiction: %s
Judge: %s
Facts:
%s

Legal issues:
%s

Respond with a JSON object:
{"outcomeProbability": number between 0 and 1 (probability of a favourable outcome for our client),
 "confidence": "low" | "medium" | "high",
 "keyFactors": [string], "risks": [string], "recommendations": [string],
 "reasoning": string}`,
		req.CaseType, req.Jurisdiction, orUnspecified(req.JudgeName), ai.Truncate(req.Facts, 8000), bulletList(req.LegalIssues))

	var out dto.OutcomePrediction
	parsed, err := completeJSON(ctx, s.completer, s.logger, ai.CompletionRequest{
		Operation:   "predict_outcome",
		System:      legalSystemPrompt,
		Prompt:      prompt,
		Temperature: ai.Temperature(0.3),
	}, &out)
	if err != nil {
		return nil, err
	}
	if !parsed {
		return fallbackPrediction(), nil
	}
	out.OutcomeProbability = ai.Clamp(out.OutcomeProbability, 0, 1)
	out.Confidence = normaliseLevel(out.Confidence, riskLow)
	out.KeyFactors = nonNilStrings(out.KeyFactors)
	out.Risks = nonNilStrings(out.Risks)
	out.Recommendations = nonNilStrings(out.Recommendations)
	return &out, nil
}

// AnalyzeJudge profiles a judge's ruling tendencies.
func (s *LegalAnalyticsService) AnalyzeJudge(ctx context.Context, req dto.JudgeAnalysisRequest) (*dto.JudgeAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid judge analysis payload")
	}
	prompt := fmt.Sprintf(`Profile the judicial tendencies of Judge %s.

Court: %s
Case type of interest: %s

Respond with a JSON object:
{"rulingPatterns": [string], "averageTimeToRuling": string,
 "reversalRate": number between 0 and 1, "notableTendencies": [string],
 "summary": string}`,
		req.JudgeName, orUnspecified(req.Court), orUnspecified(req.CaseType))

	var out dto.JudgeAnalysis
	parsed, err := completeJSON(ctx, s.completer, s.logger, ai.CompletionRequest{
		Operation:   "analyze_judge",
		System:      legalSystemPrompt,
		Prompt:      prompt,
		Temperature: ai.Temperature(0.3),
	}, &out)
	if err != nil {
		return nil, err
	}
	if !parsed {
		out = dto.JudgeAnalysis{Summary: fallbackJudgeSummary}
	}
	out.JudgeName = req.JudgeName
	out.ReversalRate = ai.Clamp(out.ReversalRate, 0, 1)
	out.RulingPatterns = nonNilStrings(out.RulingPatterns)
	out.NotableTendencies = nonNilStrings(out.NotableTendencies)
	return &out, nil
}

// AssessRisk rates litigation risk from 0 (none) to 100 (severe).
func (s *LegalAnalyticsService) AssessRisk(ctx context.Context, req dto.RiskAssessmentRequest) (*dto.RiskAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid risk assessment payload")
	}
	return s.assess(ctx, req)
}

func (s *LegalAnalyticsService) assess(ctx context.Context, req dto.RiskAssessmentRequest) (*dto.RiskAssessment, error) {
	prompt := fmt.Sprintf(`Assess the litigation risk of this case.

Case summary:
%s

Evidence:
%s

Opposing arguments:
%s

Respond with a JSON object:
{"overallRisk": "low" | "medium" | "high", "riskScore": number between 0 and 100,
 "factors": [{"factor": string, "severity": "low" | "medium" | "high", "mitigation": string}]}`,
		ai.Truncate(req.CaseSummary, 8000), bulletList(req.Evidence), bulletList(req.OpposingArguments))

	var out dto.RiskAssessment
	parsed, err := completeJSON(ctx, s.completer, s.logger, ai.CompletionRequest{
		Operation:   "assess_risk",
		System:      legalSystemPrompt,
		Prompt:      prompt,
		Temperature: ai.Temperature(0.3),
	}, &out)
	if err != nil {
		return nil, err
	}
	if !parsed {
		return &dto.RiskAssessment{OverallRisk: riskMedium, RiskScore: 50, Factors: []dto.RiskFactor{}}, nil
	}
	out.RiskScore = ai.Clamp(out.RiskScore, 0, 100)
	out.OverallRisk = normaliseLevel(out.OverallRisk, riskLevelForScore(out.RiskScore))
	if out.Factors == nil {
		out.Factors = []dto.RiskFactor{}
	}
	for i := range out.Factors {
		out.Factors[i].Severity = normaliseLevel(out.Factors[i].Severity, riskMedium)
	}
	return &out, nil
}

// Dashboard runs the outcome prediction and the risk assessment concurrently.
// Either failure fails the whole dashboard.
func (s *LegalAnalyticsService) Dashboard(ctx context.Context, req dto.AnalyticsDashboardRequest) (*dto.AnalyticsDashboard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analytics payload")
	}

	var (
		prediction *dto.OutcomePrediction
		risk       *dto.RiskAssessment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prediction, err = s.predict(gctx, dto.PredictOutcomeRequest{
			CaseType:     req.CaseType,
			Jurisdiction: req.Jurisdiction,
			Facts:        req.Facts,
			LegalIssues:  req.LegalIssues,
			JudgeName:    req.JudgeName,
		})
		return err
	})
	g.Go(func() error {
		var err error
		risk, err = s.assess(gctx, dto.RiskAssessmentRequest{
			CaseSummary:       fmt.Sprintf("%s case in %s. %s", req.CaseType, req.Jurisdiction, req.Facts),
			Evidence:          req.Evidence,
			OpposingArguments: req.OpposingArguments,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dto.AnalyticsDashboard{Prediction: *prediction, Risk: *risk, GeneratedAt: s.now().UTC()}, nil
}

func fallbackPrediction() *dto.OutcomePrediction {
	return &dto.OutcomePrediction{
		OutcomeProbability: 0.5,
		Confidence:         riskLow,
		KeyFactors:         []string{},
		Risks:              []string{},
		Recommendations:    []string{},
		Reasoning:          fallbackPredictionReasoning,
	}
}

func normaliseLevel(level, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case riskLow:
		return riskLow
	case riskMedium:
		return riskMedium
	case riskHigh:
		return riskHigh
	}
	return fallback
}

func riskLevelForScore(score float64) string {
	switch {
	case score < 34:
		return riskLow
	case score < 67:
		return riskMedium
	default:
		return riskHigh
	}
}
