package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/internal/service"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type caseService interface {
	List(ctx context.Context, actor service.Actor, q dto.CaseListQuery) ([]models.Case, *models.Pagination, error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.Case, error)
	Create(ctx context.Context, actor service.Actor, req dto.CreateCaseRequest) (*models.Case, error)
	Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateCaseRequest) (*models.Case, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// CaseHandler serves case CRUD for the authenticated user.
type CaseHandler struct {
	service caseService
}

// NewCaseHandler constructs the handler.
func NewCaseHandler(svc caseService) *CaseHandler {
	return &CaseHandler{service: svc}
}

// List godoc
// @Summary List cases
// @Description Lists the caller's cases; admins see every case
// @Tags Cases
// @Produce json
// @Param status query string false "open, pending, closed or archived"
// @Param priority query string false "low, medium, high or urgent"
// @Param search query string false "Title, number or client"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q dto.CaseListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	cases, pagination, err := h.service.List(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, pagination)
}

// Get godoc
// @Summary Get case
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create case
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.CreateCaseRequest true "Case"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCaseRequest
	if !bindJSON(c, &req, "invalid case payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.UpdateCaseRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id} [put]
func (h *CaseHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateCaseRequest
	if !bindJSON(c, &req, "invalid case payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete case
// @Description Deletes the case with its motions and deadlines
// @Tags Cases
// @Param id path string true "Case ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id} [delete]
func (h *CaseHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
