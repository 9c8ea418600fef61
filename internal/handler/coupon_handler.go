package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type couponService interface {
	ValidateCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponValidation, error)
	ApplyCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponApplication, error)
	CreateCoupon(ctx context.Context, req dto.CreateCouponRequest, adminID string) (*models.CouponCode, error)
	ListCoupons(ctx context.Context, q dto.CouponListQuery) ([]models.CouponCode, *models.Pagination, error)
	GetCoupon(ctx context.Context, id string) (*models.CouponCode, error)
	UpdateCoupon(ctx context.Context, id string, req dto.UpdateCouponRequest) (*models.CouponCode, error)
	DeactivateCoupon(ctx context.Context, id string) (*models.CouponCode, error)
	CouponUsage(ctx context.Context, id string) (*dto.CouponUsageReport, error)
}

// CouponHandler serves coupon redemption and the admin coupon console.
type CouponHandler struct {
	service couponService
}

// NewCouponHandler constructs the handler.
func NewCouponHandler(svc couponService) *CouponHandler {
	return &CouponHandler{service: svc}
}

// Validate godoc
// @Summary Validate coupon
// @Description Checks a coupon against an order without redeeming it
// @Tags Coupons
// @Accept json
// @Produce json
// @Param payload body dto.ValidateCouponRequest true "Coupon and order"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ValidateCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}
	res, err := h.service.ValidateCoupon(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Apply godoc
// @Summary Apply coupon
// @Description Redeems a coupon and records the usage
// @Tags Coupons
// @Accept json
// @Produce json
// @Param payload body dto.ValidateCouponRequest true "Coupon and order"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /coupons/apply [post]
func (h *CouponHandler) Apply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ValidateCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}
	res, err := h.service.ApplyCoupon(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// List godoc
// @Summary List coupons
// @Tags Admin Coupons
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Code or description"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	var q dto.CouponListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	coupons, pagination, err := h.service.ListCoupons(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupons, pagination)
}

// Create godoc
// @Summary Create coupon
// @Description Creates a coupon, generating a unique code when none is given
// @Tags Admin Coupons
// @Accept json
// @Produce json
// @Param payload body dto.CreateCouponRequest true "Coupon"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}
	coupon, err := h.service.CreateCoupon(c.Request.Context(), req, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coupon)
}

// Get godoc
// @Summary Get coupon
// @Tags Admin Coupons
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons/{id} [get]
func (h *CouponHandler) Get(c *gin.Context) {
	coupon, err := h.service.GetCoupon(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupon, nil)
}

// Update godoc
// @Summary Update coupon
// @Tags Admin Coupons
// @Accept json
// @Produce json
// @Param id path string true "Coupon ID"
// @Param payload body dto.UpdateCouponRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons/{id} [put]
func (h *CouponHandler) Update(c *gin.Context) {
	var req dto.UpdateCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}
	coupon, err := h.service.UpdateCoupon(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupon, nil)
}

// Deactivate godoc
// @Summary Deactivate coupon
// @Tags Admin Coupons
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons/{id}/deactivate [post]
func (h *CouponHandler) Deactivate(c *gin.Context) {
	coupon, err := h.service.DeactivateCoupon(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupon, nil)
}

// Usage godoc
// @Summary Coupon usage report
// @Tags Admin Coupons
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons/{id}/usage [get]
func (h *CouponHandler) Usage(c *gin.Context) {
	report, err := h.service.CouponUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
