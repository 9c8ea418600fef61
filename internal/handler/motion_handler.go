package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/internal/service"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type motionService interface {
	ListByCase(ctx context.Context, actor service.Actor, caseID string) ([]models.Motion, error)
	Create(ctx context.Context, actor service.Actor, caseID string, req dto.CreateMotionRequest) (*models.Motion, error)
	Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateMotionRequest) (*models.Motion, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// MotionHandler serves the motions filed in a case.
type MotionHandler struct {
	service motionService
}

// NewMotionHandler constructs the handler.
func NewMotionHandler(svc motionService) *MotionHandler {
	return &MotionHandler{service: svc}
}

// ListByCase godoc
// @Summary List motions of a case
// @Tags Motions
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id}/motions [get]
func (h *MotionHandler) ListByCase(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	motions, err := h.service.ListByCase(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, motions, nil)
}

// Create godoc
// @Summary Add motion to a case
// @Tags Motions
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.CreateMotionRequest true "Motion"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id}/motions [post]
func (h *MotionHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateMotionRequest
	if !bindJSON(c, &req, "invalid motion payload") {
		return
	}
	motion, err := h.service.Create(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, motion)
}

// Update godoc
// @Summary Update motion
// @Tags Motions
// @Accept json
// @Produce json
// @Param id path string true "Motion ID"
// @Param payload body dto.UpdateMotionRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /motions/{id} [put]
func (h *MotionHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateMotionRequest
	if !bindJSON(c, &req, "invalid motion payload") {
		return
	}
	motion, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, motion, nil)
}

// Delete godoc
// @Summary Delete motion
// @Tags Motions
// @Param id path string true "Motion ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /motions/{id} [delete]
func (h *MotionHandler) Delete(c *gin.Context) {
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
