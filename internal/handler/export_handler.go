package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/service"
	"github.com/casebuddy/casebuddy-api/pkg/response"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

const csvContentType = "text/csv; charset=utf-8"

type exportService interface {
	CasesCSV(ctx context.Context, actor service.Actor) ([]byte, string, error)
	DeadlinesCSV(ctx context.Context, actor service.Actor) ([]byte, string, error)
	Download(ctx context.Context, token string) (io.ReadCloser, string, error)
}

// ExportHandler streams CSV exports and signed downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Cases godoc
// @Summary Export cases as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exports/cases.csv [get]
func (h *ExportHandler) Cases(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	body, filename, err := h.service.CasesCSV(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, csvContentType, body)
}

// Deadlines godoc
// @Summary Export deadlines as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exports/deadlines.csv [get]
func (h *ExportHandler) Deadlines(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	body, filename, err := h.service.DeadlinesCSV(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, csvContentType, body)
}

// Download godoc
// @Summary Download a signed export
// @Description Streams a stored export; the signed token is the only credential
// @Tags Exports
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	rc, filename, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, -1, storage.ContentType(filename), rc, nil)
}
