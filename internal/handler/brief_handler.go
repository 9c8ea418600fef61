package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/service"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type briefService interface {
	Generate(ctx context.Context, req dto.GenerateBriefRequest) (*dto.GeneratedBrief, error)
	ExportPDF(brief dto.GeneratedBrief) ([]byte, string, error)
	ExportPDFLink(ctx context.Context, actor service.Actor, brief dto.GeneratedBrief) (*dto.ExportLink, error)
}

// BriefHandler drafts briefs and renders them to PDF.
type BriefHandler struct {
	service briefService
}

// NewBriefHandler constructs the handler.
func NewBriefHandler(svc briefService) *BriefHandler {
	return &BriefHandler{service: svc}
}

// Generate godoc
// @Summary Draft a brief
// @Description Drafts a brief and splits it into headed sections with citations
// @Tags Brief Generation
// @Accept json
// @Produce json
// @Param payload body dto.GenerateBriefRequest true "Brief inputs"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /brief-generation/generate [post]
func (h *BriefHandler) Generate(c *gin.Context) {
	var req dto.GenerateBriefRequest
	if !bindJSON(c, &req, "invalid brief payload") {
		return
	}
	brief, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, brief, nil)
}

// PDF godoc
// @Summary Render a brief to PDF
// @Description Returns the PDF, or a signed download link when link is true
// @Tags Brief Generation
// @Accept json
// @Produce application/pdf
// @Param payload body dto.BriefPDFRequest true "Brief"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /brief-generation/pdf [post]
func (h *BriefHandler) PDF(c *gin.Context) {
	var req dto.BriefPDFRequest
	if !bindJSON(c, &req, "invalid brief payload") {
		return
	}
	if req.Link {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		link, err := h.service.ExportPDFLink(c.Request.Context(), actor, req.Brief)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, link, nil)
		return
	}

	body, filename, err := h.service.ExportPDF(req.Brief)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", body)
}
