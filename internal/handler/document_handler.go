package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/middleware"
	"github.com/casebuddy/casebuddy-api/internal/service"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

const defaultSimilarLimit = 5

type documentAnalyzer interface {
	Analyze(ctx context.Context, actor service.Actor, upload service.DocumentUpload, opts dto.UploadOptions) (*dto.OCRAnalysisResponse, error)
	Submit(ctx context.Context, actor service.Actor, upload service.DocumentUpload, opts dto.UploadOptions) (*dto.DocumentStatusResponse, error)
}

type documentSearcher interface {
	Search(ctx context.Context, actor service.Actor, req dto.SearchRequest) (*dto.SearchResponse, error)
	FindSimilar(ctx context.Context, actor service.Actor, id string, limit int) (*dto.SearchResponse, error)
	IndexDocument(ctx context.Context, actor service.Actor, req dto.IndexDocumentRequest) (*dto.DocumentItem, error)
	List(ctx context.Context, actor service.Actor, query dto.DocumentListQuery) []dto.DocumentItem
	Get(ctx context.Context, actor service.Actor, id string) (*dto.DocumentDetail, error)
	Status(ctx context.Context, actor service.Actor, id string) (*dto.DocumentStatusResponse, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// DocumentHandler serves uploads, the document index and semantic search.
type DocumentHandler struct {
	analyzer  documentAnalyzer
	searcher  documentSearcher
	maxUpload int64
}

// NewDocumentHandler constructs the handler. maxUpload caps the request body; zero disables the cap.
func NewDocumentHandler(analyzer documentAnalyzer, searcher documentSearcher, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{analyzer: analyzer, searcher: searcher, maxUpload: maxUpload}
}

// Upload godoc
// @Summary Upload and analyze a document
// @Description Extracts text, structures it and optionally indexes it. With async=true the work is queued and 202 is returned.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Param caseId formData string false "Case ID"
// @Param title formData string false "Title"
// @Param type formData string false "Document type"
// @Param index formData bool false "Add to the search index"
// @Param async formData bool false "Process in the background"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	upload, file, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	var opts dto.UploadOptions
	if err := c.ShouldBind(&opts); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload options"))
		return
	}

	if opts.Async {
		status, err := h.analyzer.Submit(c.Request.Context(), actor, upload, opts)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, status)
		return
	}

	res, err := h.analyzer.Analyze(c.Request.Context(), actor, upload, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Index godoc
// @Summary Index a text document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.IndexDocumentRequest true "Document"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/index [post]
func (h *DocumentHandler) Index(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.IndexDocumentRequest
	if !bindJSON(c, &req, "invalid document payload") {
		return
	}
	item, err := h.searcher.IndexDocument(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Search godoc
// @Summary Semantic document search
// @Description Ranks the caller's documents against the query by AI-rated relevance
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.SearchRequest true "Query and filters"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/search [post]
func (h *DocumentHandler) Search(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SearchRequest
	if !bindJSON(c, &req, "invalid search payload") {
		return
	}
	res, err := h.searcher.Search(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithHits(c, res)
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param caseId query string false "Case ID"
// @Param type query []string false "Document types"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q dto.DocumentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items := h.searcher.List(c.Request.Context(), actor, q)
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"total": len(items)})
}

// Get godoc
// @Summary Get document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	doc, err := h.searcher.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Status godoc
// @Summary Document processing status
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/status [get]
func (h *DocumentHandler) Status(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	status, err := h.searcher.Status(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Similar godoc
// @Summary Documents similar to one
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Param limit query int false "Max results" default(5)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/similar [get]
func (h *DocumentHandler) Similar(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultSimilarLimit)
	if !ok {
		return
	}
	res, err := h.searcher.FindSimilar(c.Request.Context(), actor, c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithHits(c, res)
}

// Delete godoc
// @Summary Remove document
// @Description Drops the document from the index and deletes the stored file
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.searcher.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func respondWithHits(c *gin.Context, res *dto.SearchResponse) {
	middleware.SetMeta(c, "totalCandidates", res.TotalCandidates)
	middleware.SetMeta(c, "totalMatches", res.TotalMatches)
	middleware.SetMeta(c, "query", res.Query)
	response.JSON(c, http.StatusOK, res.Results, nil, middleware.ExtractMeta(c))
}
