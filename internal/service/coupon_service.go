package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const (
	couponCodeLength   = 8
	couponCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	couponCodeAttempts = 10
)

// Validation messages returned to clients.
const (
	msgCouponInvalid      = "Invalid coupon code"
	msgCouponInactive     = "This coupon is no longer active"
	msgCouponNotStarted   = "This coupon is not yet valid"
	msgCouponExpired      = "This coupon has expired"
	msgCouponExhausted    = "This coupon has reached its usage limit"
	msgCouponAlreadyUsed  = "You have already used this coupon"
	msgCouponPlanMismatch = "This coupon is not valid for the selected plan"
	msgCouponValid        = "Coupon applied"
)

type couponRepository interface {
	FindByCode(ctx context.Context, code string) (*models.CouponCode, error)
	FindByID(ctx context.Context, id string) (*models.CouponCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	HasUserRedeemed(ctx context.Context, couponID, userID string) (bool, error)
	List(ctx context.Context, filter models.CouponFilter) ([]models.CouponCode, int, error)
	Create(ctx context.Context, c *models.CouponCode) error
	Update(ctx context.Context, c *models.CouponCode) error
	ListUsage(ctx context.Context, couponID string) ([]models.CouponUsage, error)
	Redeem(ctx context.Context, couponID string, usage *models.CouponUsage, check func(*models.CouponCode, bool) error) error
}

// CouponService validates, redeems and administers discount codes.
type CouponService struct {
	repo      couponRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	generate  func() (string, error)
}

// NewCouponService constructs a CouponService.
func NewCouponService(repo couponRepository, validate *validator.Validate, logger *zap.Logger) *CouponService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{repo: repo, validator: validate, logger: logger, now: time.Now, generate: randomCouponCode}
}

// ValidateCoupon checks code against an order without redeeming it. Rule
// failures are reported through the result; only storage errors are returned.
func (s *CouponService) ValidateCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponValidation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}

	coupon, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.CouponValidation{Valid: false, Message: msgCouponInvalid, FinalAmount: round2(req.OrderAmount)}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coupon")
	}

	used, err := s.repo.HasUserRedeemed(ctx, coupon.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coupon usage")
	}

	if msg := couponRuleViolation(coupon, used, req.Plan, s.now()); msg != "" {
		return &dto.CouponValidation{Valid: false, Message: msg, FinalAmount: round2(req.OrderAmount)}, nil
	}

	discount, final := CalculateDiscount(coupon, req.OrderAmount)
	return &dto.CouponValidation{
		Valid:          true,
		Message:        msgCouponValid,
		Coupon:         coupon,
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

// ApplyCoupon validates and redeems code for userID. The usage cap and the
// single-use rule are re-checked under the coupon row lock.
func (s *CouponService) ApplyCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponApplication, error) {
	validation, err := s.ValidateCoupon(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, appErrors.Clone(appErrors.ErrValidation, validation.Message)
	}

	plan := req.Plan
	usage := &models.CouponUsage{
		UserID:         userID,
		OrderAmount:    round2(req.OrderAmount),
		DiscountAmount: validation.DiscountAmount,
		FinalAmount:    validation.FinalAmount,
		Plan:           &plan,
		UsedAt:         s.now().UTC(),
	}

	err = s.repo.Redeem(ctx, validation.Coupon.ID, usage, func(locked *models.CouponCode, used bool) error {
		if msg := couponRuleViolation(locked, used, plan, s.now()); msg != "" {
			return appErrors.Clone(appErrors.ErrConflict, msg)
		}
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgCouponInvalid)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem coupon")
	}

	s.logger.Info("coupon redeemed",
		zap.String("coupon_id", validation.Coupon.ID),
		zap.String("user_id", userID),
		zap.Float64("discount", usage.DiscountAmount))

	return &dto.CouponApplication{
		CouponCode:     validation.Coupon.Code,
		UsageID:        usage.ID,
		OrderAmount:    usage.OrderAmount,
		DiscountAmount: usage.DiscountAmount,
		FinalAmount:    usage.FinalAmount,
		UsedAt:         usage.UsedAt,
	}, nil
}

// CalculateDiscount returns the discount and final amount for orderAmount,
// both rounded to cents. The discount never exceeds the order.
func CalculateDiscount(coupon *models.CouponCode, orderAmount float64) (float64, float64) {
	if orderAmount < 0 {
		orderAmount = 0
	}
	var discount float64
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = orderAmount * coupon.DiscountValue / 100
	case models.DiscountFixed:
		discount = coupon.DiscountValue
	}
	discount = math.Min(math.Max(discount, 0), orderAmount)
	final := math.Max(orderAmount-discount, 0)
	return round2(discount), round2(final)
}

// CreateCoupon stores a new coupon. An empty code is generated.
func (s *CouponService) CreateCoupon(ctx context.Context, req dto.CreateCouponRequest, adminID string) (*models.CouponCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}

	coupon := &models.CouponCode{
		Description:     req.Description,
		DiscountType:    models.DiscountType(req.DiscountType),
		DiscountValue:   req.DiscountValue,
		MaxUses:         req.MaxUses,
		ValidUntil:      req.ValidUntil,
		ApplicablePlans: req.ApplicablePlans,
		IsActive:        true,
		CreatedBy:       &adminID,
	}
	if coupon.ApplicablePlans == nil {
		coupon.ApplicablePlans = []string{}
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = req.ValidFrom.UTC()
	} else {
		coupon.ValidFrom = s.now().UTC()
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if err := validateCouponTerms(coupon); err != nil {
		return nil, err
	}

	if req.Code != "" {
		code := strings.ToUpper(strings.TrimSpace(req.Code))
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coupon code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "coupon code already exists")
		}
		coupon.Code = code
	} else {
		code, err := s.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		coupon.Code = code
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coupon")
	}
	return coupon, nil
}

// ListCoupons returns a page of coupons.
func (s *CouponService) ListCoupons(ctx context.Context, q dto.CouponListQuery) ([]models.CouponCode, *models.Pagination, error) {
	filter := models.CouponFilter{
		Active:    q.Active,
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	coupons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coupons")
	}
	page, size := normalisePage(q.Page, q.PageSize)
	return coupons, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetCoupon returns a coupon by id.
func (s *CouponService) GetCoupon(ctx context.Context, id string) (*models.CouponCode, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coupon not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coupon")
	}
	return coupon, nil
}

// UpdateCoupon applies a partial update.
func (s *CouponService) UpdateCoupon(ctx context.Context, id string, req dto.UpdateCouponRequest) (*models.CouponCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}
	coupon, err := s.GetCoupon(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		coupon.Description = req.Description
	}
	if req.DiscountType != nil {
		coupon.DiscountType = models.DiscountType(*req.DiscountType)
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MaxUses != nil {
		coupon.MaxUses = req.MaxUses
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = req.ValidFrom.UTC()
	}
	if req.ValidUntil != nil {
		coupon.ValidUntil = req.ValidUntil
	}
	if req.ApplicablePlans != nil {
		coupon.ApplicablePlans = req.ApplicablePlans
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if err := validateCouponTerms(coupon); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coupon not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coupon")
	}
	return coupon, nil
}

// DeactivateCoupon switches a coupon off. Existing usages are kept.
func (s *CouponService) DeactivateCoupon(ctx context.Context, id string) (*models.CouponCode, error) {
	inactive := false
	return s.UpdateCoupon(ctx, id, dto.UpdateCouponRequest{IsActive: &inactive})
}

// CouponUsage reports every redemption of a coupon with totals.
func (s *CouponService) CouponUsage(ctx context.Context, id string) (*dto.CouponUsageReport, error) {
	coupon, err := s.GetCoupon(ctx, id)
	if err != nil {
		return nil, err
	}
	usages, err := s.repo.ListUsage(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coupon usage")
	}
	report := &dto.CouponUsageReport{Coupon: *coupon, Usages: usages, TotalUses: len(usages)}
	if report.Usages == nil {
		report.Usages = []models.CouponUsage{}
	}
	for _, u := range usages {
		report.TotalDiscount += u.DiscountAmount
		report.TotalRevenue += u.FinalAmount
	}
	report.TotalDiscount = round2(report.TotalDiscount)
	report.TotalRevenue = round2(report.TotalRevenue)
	return report, nil
}

func (s *CouponService) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < couponCodeAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate coupon code")
		}
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coupon code")
		}
		if !exists {
			return code, nil
		}
		s.logger.Debug("generated coupon code collided", zap.Int("attempt", attempt+1))
	}
	return "", appErrors.Clone(appErrors.ErrCodeGenerationFailure, "")
}

func couponRuleViolation(c *models.CouponCode, usedByUser bool, plan string, now time.Time) string {
	switch {
	case !c.IsActive:
		return msgCouponInactive
	case now.Before(c.ValidFrom):
		return msgCouponNotStarted
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return msgCouponExpired
	case c.Exhausted():
		return msgCouponExhausted
	case usedByUser:
		return msgCouponAlreadyUsed
	case !c.AppliesTo(plan):
		return msgCouponPlanMismatch
	}
	return ""
}

func validateCouponTerms(c *models.CouponCode) error {
	if c.DiscountType == models.DiscountPercentage && c.DiscountValue > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "percentage discount cannot exceed 100")
	}
	if c.ValidUntil != nil && !c.ValidUntil.After(c.ValidFrom) {
		return appErrors.Clone(appErrors.ErrValidation, "validUntil must be after validFrom")
	}
	return nil
}

func randomCouponCode() (string, error) {
	limit := big.NewInt(int64(len(couponCodeAlphabet)))
	buf := make([]byte, couponCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = couponCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
