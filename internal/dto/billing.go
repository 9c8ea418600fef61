package dto

import (
	"time"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

// SubscriptionStatusResponse is the payload of GET /subscription/status.
type SubscriptionStatusResponse struct {
	Status               models.SubscriptionStatus `json:"status"`
	Plan                 *string                   `json:"plan,omitempty"`
	TrialEndsAt          *time.Time                `json:"trialEndsAt,omitempty"`
	SubscriptionEndsAt   *time.Time                `json:"subscriptionEndsAt,omitempty"`
	IsTrialActive        bool                      `json:"isTrialActive"`
	IsSubscriptionActive bool                      `json:"isSubscriptionActive"`
	DaysRemaining        int                       `json:"daysRemaining"`
}

// ActivateSubscriptionRequest is the payload of POST /subscription/activate.
type ActivateSubscriptionRequest struct {
	Plan       string `json:"plan" validate:"required,max=50"`
	CouponCode string `json:"couponCode" validate:"omitempty,max=32"`
}

// ActivationResult reports the price paid for an activation.
type ActivationResult struct {
	Subscription   SubscriptionStatusResponse `json:"subscription"`
	OrderAmount    float64                    `json:"orderAmount"`
	DiscountAmount float64                    `json:"discountAmount"`
	FinalAmount    float64                    `json:"finalAmount"`
	CouponCode     string                     `json:"couponCode,omitempty"`
}

// ValidateCouponRequest is the payload of POST /coupons/validate and /coupons/apply.
type ValidateCouponRequest struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Plan        string  `json:"plan" validate:"required,max=50"`
	OrderAmount float64 `json:"orderAmount" validate:"gte=0"`
}

// CouponValidation is the outcome of checking a coupon against an order.
type CouponValidation struct {
	Valid          bool               `json:"valid"`
	Message        string             `json:"message"`
	Coupon         *models.CouponCode `json:"coupon,omitempty"`
	DiscountAmount float64            `json:"discountAmount"`
	FinalAmount    float64            `json:"finalAmount"`
}

// CouponApplication is the result of redeeming a coupon.
type CouponApplication struct {
	CouponCode     string    `json:"couponCode"`
	UsageID        string    `json:"usageId"`
	OrderAmount    float64   `json:"orderAmount"`
	DiscountAmount float64   `json:"discountAmount"`
	FinalAmount    float64   `json:"finalAmount"`
	UsedAt         time.Time `json:"usedAt"`
}

// CreateCouponRequest is the payload of POST /admin/coupons. An empty code is generated.
type CreateCouponRequest struct {
	Code            string     `json:"code" validate:"omitempty,alphanum,min=4,max=32"`
	Description     *string    `json:"description" validate:"omitempty,max=500"`
	DiscountType    string     `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue   float64    `json:"discountValue" validate:"required,gt=0"`
	MaxUses         *int       `json:"maxUses" validate:"omitempty,min=1"`
	ValidFrom       *time.Time `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
	ApplicablePlans []string   `json:"applicablePlans" validate:"omitempty,dive,max=50"`
	IsActive        *bool      `json:"isActive"`
}

// UpdateCouponRequest is the payload of PUT /admin/coupons/:id.
type UpdateCouponRequest struct {
	Description     *string    `json:"description" validate:"omitempty,max=500"`
	DiscountType    *string    `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue   *float64   `json:"discountValue" validate:"omitempty,gt=0"`
	MaxUses         *int       `json:"maxUses" validate:"omitempty,min=1"`
	ValidFrom       *time.Time `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
	ApplicablePlans []string   `json:"applicablePlans" validate:"omitempty,dive,max=50"`
	IsActive        *bool      `json:"isActive"`
}

// CouponListQuery is the query string of GET /admin/coupons.
type CouponListQuery struct {
	Active    *bool  `form:"active"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// CouponUsageReport lists the redemptions of one coupon.
type CouponUsageReport struct {
	Coupon        models.CouponCode    `json:"coupon"`
	Usages        []models.CouponUsage `json:"usages"`
	TotalUses     int                  `json:"totalUses"`
	TotalDiscount float64              `json:"totalDiscount"`
	TotalRevenue  float64              `json:"totalRevenue"`
}
