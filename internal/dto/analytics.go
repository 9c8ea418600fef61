package dto

import "time"

// PredictOutcomeRequest is the payload of POST /legal-analytics/predict.
type PredictOutcomeRequest struct {
	CaseType     string   `json:"caseType" validate:"required,max=100"`
	Jurisdiction string   `json:"jurisdiction" validate:"required,max=200"`
	Facts        string   `json:"facts" validate:"required,max=20000"`
	LegalIssues  []string `json:"legalIssues" validate:"omitempty,max=20,dive,max=500"`
	JudgeName    string   `json:"judgeName" validate:"omitempty,max=200"`
}

// OutcomePrediction is the model's view of how a case is likely to resolve.
type OutcomePrediction struct {
	OutcomeProbability float64  `json:"outcomeProbability"`
	Confidence         string   `json:"confidence"`
	KeyFactors         []string `json:"keyFactors"`
	Risks              []string `json:"risks"`
	Recommendations    []string `json:"recommendations"`
	Reasoning          string   `json:"reasoning"`
}

// JudgeAnalysisRequest is the payload of POST /legal-analytics/judge.
type JudgeAnalysisRequest struct {
	JudgeName string `json:"judgeName" validate:"required,max=200"`
	Court     string `json:"court" validate:"omitempty,max=200"`
	CaseType  string `json:"caseType" validate:"omitempty,max=100"`
}

// JudgeAnalysis summarises a judge's tendencies.
type JudgeAnalysis struct {
	JudgeName           string   `json:"judgeName"`
	RulingPatterns      []string `json:"rulingPatterns"`
	AverageTimeToRuling string   `json:"averageTimeToRuling"`
	ReversalRate        float64  `json:"reversalRate"`
	NotableTendencies   []string `json:"notableTendencies"`
	Summary             string   `json:"summary"`
}

// RiskAssessmentRequest is the payload of POST /legal-analytics/risk.
type RiskAssessmentRequest struct {
	CaseSummary       string   `json:"caseSummary" validate:"required,max=20000"`
	Evidence          []string `json:"evidence" validate:"omitempty,max=50,dive,max=2000"`
	OpposingArguments []string `json:"opposingArguments" validate:"omitempty,max=50,dive,max=2000"`
}

// RiskFactor is one risk and how to mitigate it.
type RiskFactor struct {
	Factor     string `json:"factor"`
	Severity   string `json:"severity"`
	Mitigation string `json:"mitigation"`
}

// RiskAssessment rates the overall litigation risk.
type RiskAssessment struct {
	OverallRisk string       `json:"overallRisk"`
	RiskScore   float64      `json:"riskScore"`
	Factors     []RiskFactor `json:"factors"`
}

// AnalyticsDashboardRequest is the payload of POST /legal-analytics/dashboard.
type AnalyticsDashboardRequest struct {
	CaseType          string   `json:"caseType" validate:"required,max=100"`
	Jurisdiction      string   `json:"jurisdiction" validate:"required,max=200"`
	Facts             string   `json:"facts" validate:"required,max=20000"`
	LegalIssues       []string `json:"legalIssues" validate:"omitempty,max=20,dive,max=500"`
	JudgeName         string   `json:"judgeName" validate:"omitempty,max=200"`
	Evidence          []string `json:"evidence" validate:"omitempty,max=50,dive,max=2000"`
	OpposingArguments []string `json:"opposingArguments" validate:"omitempty,max=50,dive,max=2000"`
}

// AnalyticsDashboard combines an outcome prediction and a risk assessment.
type AnalyticsDashboard struct {
	Prediction  OutcomePrediction `json:"prediction"`
	Risk        RiskAssessment    `json:"risk"`
	GeneratedAt time.Time         `json:"generatedAt"`
}
