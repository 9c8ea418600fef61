package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/service"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

const defaultUpcomingDays = 7

type deadlineService interface {
	ListByCase(ctx context.Context, actor service.Actor, caseID string) ([]dto.DeadlineItem, error)
	Upcoming(ctx context.Context, actor service.Actor, days int) ([]dto.DeadlineItem, error)
	Create(ctx context.Context, actor service.Actor, caseID string, req dto.CreateDeadlineRequest) (*dto.DeadlineItem, error)
	Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateDeadlineRequest) (*dto.DeadlineItem, error)
	Complete(ctx context.Context, actor service.Actor, id string) (*dto.DeadlineItem, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// DeadlineHandler serves case deadlines and the upcoming calendar.
type DeadlineHandler struct {
	service deadlineService
}

// NewDeadlineHandler constructs the handler.
func NewDeadlineHandler(svc deadlineService) *DeadlineHandler {
	return &DeadlineHandler{service: svc}
}

// ListByCase godoc
// @Summary List deadlines of a case
// @Tags Deadlines
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id}/deadlines [get]
func (h *DeadlineHandler) ListByCase(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.ListByCase(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Upcoming godoc
// @Summary Upcoming deadlines
// @Description Pending deadlines due within the window, soonest first
// @Tags Deadlines
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /deadlines/upcoming [get]
func (h *DeadlineHandler) Upcoming(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	days, ok := queryInt(c, "days", defaultUpcomingDays)
	if !ok {
		return
	}
	items, err := h.service.Upcoming(c.Request.Context(), actor, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Add deadline to a case
// @Tags Deadlines
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.CreateDeadlineRequest true "Deadline"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /cases/{id}/deadlines [post]
func (h *DeadlineHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateDeadlineRequest
	if !bindJSON(c, &req, "invalid deadline payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update deadline
// @Tags Deadlines
// @Accept json
// @Produce json
// @Param id path string true "Deadline ID"
// @Param payload body dto.UpdateDeadlineRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /deadlines/{id} [put]
func (h *DeadlineHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateDeadlineRequest
	if !bindJSON(c, &req, "invalid deadline payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Complete godoc
// @Summary Mark deadline completed
// @Tags Deadlines
// @Produce json
// @Param id path string true "Deadline ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /deadlines/{id}/complete [post]
func (h *DeadlineHandler) Complete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	item, err := h.service.Complete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete deadline
// @Tags Deadlines
// @Param id path string true "Deadline ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /deadlines/{id} [delete]
func (h *DeadlineHandler) Delete(c *gin.Context) {
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
