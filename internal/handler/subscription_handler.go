package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type subscriptionService interface {
	Status(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error)
	StartTrial(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error)
	Activate(ctx context.Context, userID string, req dto.ActivateSubscriptionRequest) (*dto.ActivationResult, error)
	Cancel(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error)
}

// SubscriptionHandler exposes the caller's trial and subscription state.
type SubscriptionHandler struct {
	service subscriptionService
}

// NewSubscriptionHandler constructs the handler.
func NewSubscriptionHandler(svc subscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc}
}

// Status godoc
// @Summary Subscription status
// @Tags Subscription
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /subscription/status [get]
func (h *SubscriptionHandler) Status(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.Status(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// StartTrial godoc
// @Summary Start free trial
// @Tags Subscription
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /subscription/trial [post]
func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.StartTrial(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Activate godoc
// @Summary Activate a paid plan
// @Description Activates the plan, redeeming an optional coupon against its price
// @Tags Subscription
// @Accept json
// @Produce json
// @Param payload body dto.ActivateSubscriptionRequest true "Plan and coupon"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /subscription/activate [post]
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ActivateSubscriptionRequest
	if !bindJSON(c, &req, "invalid activation payload") {
		return
	}
	res, err := h.service.Activate(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Cancel godoc
// @Summary Cancel subscription
// @Tags Subscription
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subscription/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.Cancel(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
