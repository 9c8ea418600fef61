package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type legalAnalyticsService interface {
	PredictOutcome(ctx context.Context, req dto.PredictOutcomeRequest) (*dto.OutcomePrediction, error)
	AnalyzeJudge(ctx context.Context, req dto.JudgeAnalysisRequest) (*dto.JudgeAnalysis, error)
	AssessRisk(ctx context.Context, req dto.RiskAssessmentRequest) (*dto.RiskAssessment, error)
	Dashboard(ctx context.Context, req dto.AnalyticsDashboardRequest) (*dto.AnalyticsDashboard, error)
}

// AnalyticsHandler exposes AI case analytics.
type AnalyticsHandler struct {
	service legalAnalyticsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(svc legalAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// Predict godoc
// @Summary Predict case outcome
// @Tags Legal Analytics
// @Accept json
// @Produce json
// @Param payload body dto.PredictOutcomeRequest true "Case facts"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /legal-analytics/predict [post]
func (h *AnalyticsHandler) Predict(c *gin.Context) {
	var req dto.PredictOutcomeRequest
	if !bindJSON(c, &req, "invalid prediction payload") {
		return
	}
	res, err := h.service.PredictOutcome(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Judge godoc
// @Summary Analyze a judge's tendencies
// @Tags Legal Analytics
// @Accept json
// @Produce json
// @Param payload body dto.JudgeAnalysisRequest true "Judge"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /legal-analytics/judge [post]
func (h *AnalyticsHandler) Judge(c *gin.Context) {
	var req dto.JudgeAnalysisRequest
	if !bindJSON(c, &req, "invalid judge analysis payload") {
		return
	}
	res, err := h.service.AnalyzeJudge(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Risk godoc
// @Summary Assess litigation risk
// @Tags Legal Analytics
// @Accept json
// @Produce json
// @Param payload body dto.RiskAssessmentRequest true "Case facts"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /legal-analytics/risk [post]
func (h *AnalyticsHandler) Risk(c *gin.Context) {
	var req dto.RiskAssessmentRequest
	if !bindJSON(c, &req, "invalid risk assessment payload") {
		return
	}
	res, err := h.service.AssessRisk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Dashboard godoc
// @Summary Combined prediction and risk report
// @Tags Legal Analytics
// @Accept json
// @Produce json
// @Param payload body dto.AnalyticsDashboardRequest true "Case facts"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /legal-analytics/dashboard [post]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	var req dto.AnalyticsDashboardRequest
	if !bindJSON(c, &req, "invalid analytics payload") {
		return
	}
	res, err := h.service.Dashboard(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
