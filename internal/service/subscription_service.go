package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

// PlanPrices is the monthly price of each plan.
var PlanPrices = map[string]float64{
	"solo":         49,
	"professional": 99,
	"firm":         249,
}

type subscriptionUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateSubscription(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type couponRedeemer interface {
	ValidateCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponValidation, error)
	ApplyCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponApplication, error)
}

// SubscriptionParams groups dependencies for SubscriptionService.
type SubscriptionParams struct {
	Users      subscriptionUserRepository
	Coupons    couponRedeemer
	Validator  *validator.Validate
	Logger     *zap.Logger
	TrialDays  int
	PeriodDays int
	Now        func() time.Time
}

// SubscriptionService derives entitlement from stored timestamps and runs the
// simulated plan lifecycle.
type SubscriptionService struct {
	users      subscriptionUserRepository
	coupons    couponRedeemer
	validator  *validator.Validate
	logger     *zap.Logger
	trialDays  int
	periodDays int
	now        func() time.Time
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(p SubscriptionParams) *SubscriptionService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.TrialDays <= 0 {
		p.TrialDays = 14
	}
	if p.PeriodDays <= 0 {
		p.PeriodDays = 30
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &SubscriptionService{
		users:      p.Users,
		coupons:    p.Coupons,
		validator:  p.Validator,
		logger:     p.Logger,
		trialDays:  p.TrialDays,
		periodDays: p.PeriodDays,
		now:        p.Now,
	}
}

// IsTrialActive reports whether the user's trial window is still open.
func IsTrialActive(user *models.User, now time.Time) bool {
	return user != nil && user.TrialEndsAt != nil && user.TrialEndsAt.After(now)
}

// IsSubscriptionActive reports whether user is entitled to gated features at
// now: an open trial counts whatever the stored status says.
func IsSubscriptionActive(user *models.User, now time.Time) bool {
	if user == nil {
		return false
	}
	if IsTrialActive(user, now) {
		return true
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		return false
	}
	return user.SubscriptionEndsAt == nil || user.SubscriptionEndsAt.After(now)
}

// Status describes the subscription of userID.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := statusOf(user, s.now())
	return &resp, nil
}

// IsActive loads userID and evaluates IsSubscriptionActive.
func (s *SubscriptionService) IsActive(ctx context.Context, userID string) (bool, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return IsSubscriptionActive(user, s.now()), nil
}

// StartTrial opens the trial window for a user that never had one.
func (s *SubscriptionService) StartTrial(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TrialEndsAt != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "trial already used")
	}
	if user.SubscriptionStatus == models.SubscriptionActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subscription already active")
	}

	now := s.now().UTC()
	ends := now.AddDate(0, 0, s.trialDays)
	user.SubscriptionStatus = models.SubscriptionTrial
	user.TrialEndsAt = &ends
	if err := s.save(ctx, user, fmt.Sprintf(`{"status":"trial","trial_days":%d}`, s.trialDays)); err != nil {
		return nil, err
	}
	resp := statusOf(user, now)
	return &resp, nil
}

// Activate starts a paid period for plan. A couponCode is checked before the
// subscription is saved and redeemed only after the save succeeds; if the
// redemption then fails the previous subscription state is restored.
func (s *SubscriptionService) Activate(ctx context.Context, userID string, req dto.ActivateSubscriptionRequest) (*dto.ActivationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activation payload")
	}
	plan := strings.ToLower(strings.TrimSpace(req.Plan))
	price, ok := PlanPrices[plan]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown plan %q", req.Plan))
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &dto.ActivationResult{OrderAmount: price, FinalAmount: price}
	var couponReq *dto.ValidateCouponRequest
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		if s.coupons == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "coupons are not available")
		}
		couponReq = &dto.ValidateCouponRequest{Code: code, Plan: plan, OrderAmount: price}
		validation, err := s.coupons.ValidateCoupon(ctx, userID, *couponReq)
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, appErrors.Clone(appErrors.ErrValidation, validation.Message)
		}
		result.DiscountAmount = validation.DiscountAmount
		result.FinalAmount = validation.FinalAmount
	}

	previous := *user
	now := s.now().UTC()
	ends := now.AddDate(0, 0, s.periodDays)
	user.SubscriptionStatus = models.SubscriptionActive
	user.SubscriptionEndsAt = &ends
	user.Plan = &plan
	if err := s.save(ctx, user, fmt.Sprintf(`{"status":"active","plan":%q,"final_amount":%.2f}`, plan, result.FinalAmount)); err != nil {
		return nil, err
	}

	if couponReq != nil {
		applied, err := s.coupons.ApplyCoupon(ctx, userID, *couponReq)
		if err != nil {
			s.restore(ctx, &previous)
			return nil, err
		}
		result.DiscountAmount = applied.DiscountAmount
		result.FinalAmount = applied.FinalAmount
		result.CouponCode = applied.CouponCode
	}

	result.Subscription = statusOf(user, now)
	return result, nil
}

// Cancel marks the subscription canceled. The paid period end is kept.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.SubscriptionStatus == models.SubscriptionCanceled {
		resp := statusOf(user, s.now())
		return &resp, nil
	}
	user.SubscriptionStatus = models.SubscriptionCanceled
	if err := s.save(ctx, user, `{"status":"canceled"}`); err != nil {
		return nil, err
	}
	resp := statusOf(user, s.now())
	return &resp, nil
}

func (s *SubscriptionService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *SubscriptionService) save(ctx context.Context, user *models.User, audit string) error {
	if err := s.users.UpdateSubscription(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
	}
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionSubscription,
		Resource:   "subscription",
		ResourceID: &user.ID,
		NewValues:  []byte(audit),
	}); err != nil {
		s.logger.Warn("failed to record subscription audit log", zap.Error(err))
	}
	return nil
}

// restore writes back the subscription fields of previous after a failed
// coupon redemption.
func (s *SubscriptionService) restore(ctx context.Context, previous *models.User) {
	if err := s.users.UpdateSubscription(ctx, previous); err != nil {
		s.logger.Error("failed to restore subscription after coupon failure",
			zap.String("user_id", previous.ID), zap.Error(err))
		return
	}
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &previous.ID,
		Action:     models.AuditActionSubscription,
		Resource:   "subscription",
		ResourceID: &previous.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q,"reason":"coupon_redeem_failed"}`, previous.SubscriptionStatus)),
	}); err != nil {
		s.logger.Warn("failed to record subscription audit log", zap.Error(err))
	}
}

func statusOf(user *models.User, now time.Time) dto.SubscriptionStatusResponse {
	resp := dto.SubscriptionStatusResponse{
		Status:               user.SubscriptionStatus,
		Plan:                 user.Plan,
		TrialEndsAt:          user.TrialEndsAt,
		SubscriptionEndsAt:   user.SubscriptionEndsAt,
		IsTrialActive:        IsTrialActive(user, now),
		IsSubscriptionActive: IsSubscriptionActive(user, now),
	}
	switch {
	case resp.IsTrialActive:
		resp.DaysRemaining = daysUntil(*user.TrialEndsAt, now)
	case resp.IsSubscriptionActive && user.SubscriptionEndsAt != nil:
		resp.DaysRemaining = daysUntil(*user.SubscriptionEndsAt, now)
	}
	return resp
}

// daysUntil rounds partial days up, so anything left in the final day counts as one.
func daysUntil(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
