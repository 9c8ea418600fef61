package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type researchService interface {
	Research(ctx context.Context, req dto.PrecedentResearchRequest) (*dto.ResearchResult, error)
	AnalyzeCitation(ctx context.Context, req dto.CitationAnalysisRequest) (*dto.CitationAnalysis, error)
}

// ResearchHandler serves precedent and citation research.
type ResearchHandler struct {
	service researchService
}

// NewResearchHandler constructs the handler.
func NewResearchHandler(svc researchService) *ResearchHandler {
	return &ResearchHandler{service: svc}
}

// Precedents godoc
// @Summary Research precedents and statutes
// @Tags Legal Research
// @Accept json
// @Produce json
// @Param payload body dto.PrecedentResearchRequest true "Research question"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /legal-research/precedents [post]
func (h *ResearchHandler) Precedents(c *gin.Context) {
	var req dto.PrecedentResearchRequest
	if !bindJSON(c, &req, "invalid research payload") {
		return
	}
	res, err := h.service.Research(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Citation godoc
// @Summary Analyze a citation
// @Tags Legal Research
// @Accept json
// @Produce json
// @Param payload body dto.CitationAnalysisRequest true "Citation"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /legal-research/citation [post]
func (h *ResearchHandler) Citation(c *gin.Context) {
	var req dto.CitationAnalysisRequest
	if !bindJSON(c, &req, "invalid citation payload") {
		return
	}
	res, err := h.service.AnalyzeCitation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
