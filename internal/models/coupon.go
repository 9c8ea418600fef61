package models

import (
	"time"

	"github.com/lib/pq"
)

// DiscountType selects how a coupon reduces the order amount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// CouponCode is a promotional code redeemable against a plan purchase.
type CouponCode struct {
	ID              string         `db:"id" json:"id"`
	Code            string         `db:"code" json:"code"`
	Description     *string        `db:"description" json:"description,omitempty"`
	DiscountType    DiscountType   `db:"discount_type" json:"discount_type"`
	DiscountValue   float64        `db:"discount_value" json:"discount_value"`
	MaxUses         *int           `db:"max_uses" json:"max_uses,omitempty"`
	CurrentUses     int            `db:"current_uses" json:"current_uses"`
	ValidFrom       time.Time      `db:"valid_from" json:"valid_from"`
	ValidUntil      *time.Time     `db:"valid_until" json:"valid_until,omitempty"`
	ApplicablePlans pq.StringArray `db:"applicable_plans" json:"applicable_plans"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedBy       *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Exhausted reports whether the usage cap has been reached.
func (c *CouponCode) Exhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}

// AppliesTo reports whether the coupon may be used for plan. No plans means every plan.
func (c *CouponCode) AppliesTo(plan string) bool {
	if len(c.ApplicablePlans) == 0 {
		return true
	}
	for _, p := range c.ApplicablePlans {
		if p == plan {
			return true
		}
	}
	return false
}

// CouponUsage records one redemption.
type CouponUsage struct {
	ID             string    `db:"id" json:"id"`
	CouponID       string    `db:"coupon_id" json:"coupon_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	OrderAmount    float64   `db:"order_amount" json:"order_amount"`
	DiscountAmount float64   `db:"discount_amount" json:"discount_amount"`
	FinalAmount    float64   `db:"final_amount" json:"final_amount"`
	Plan           *string   `db:"plan" json:"plan,omitempty"`
	UsedAt         time.Time `db:"used_at" json:"used_at"`
}

// CouponFilter narrows the admin coupon listing.
type CouponFilter struct {
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
