package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

type memorySubscriptionRepo struct {
	users     map[string]*models.User
	audits    int
	updates   int
	updateErr error
}

func (m *memorySubscriptionRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memorySubscriptionRepo) UpdateSubscription(ctx context.Context, user *models.User) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memorySubscriptionRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits++
	return nil
}

var subNow = time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func newTestSubscriptionService(users []*models.User, coupons couponRedeemer) (*SubscriptionService, *memorySubscriptionRepo) {
	repo := &memorySubscriptionRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	svc := NewSubscriptionService(SubscriptionParams{
		Users:   repo,
		Coupons: coupons,
		Now:     func() time.Time { return subNow },
	})
	return svc, repo
}

func TestIsSubscriptionActive(t *testing.T) {
	cases := []struct {
		name string
		user *models.User
		want bool
	}{
		{name: "future trial", user: &models.User{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(subNow.Add(48 * time.Hour))}, want: true},
		{name: "future trial with stale status", user: &models.User{SubscriptionStatus: models.SubscriptionExpired, TrialEndsAt: timePtr(subNow.Add(time.Hour))}, want: true},
		{name: "past trial no subscription", user: &models.User{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(subNow.Add(-time.Hour))}, want: false},
		{name: "active open ended", user: &models.User{SubscriptionStatus: models.SubscriptionActive}, want: true},
		{name: "active lapsed", user: &models.User{SubscriptionStatus: models.SubscriptionActive, SubscriptionEndsAt: timePtr(subNow.Add(-time.Minute))}, want: false},
		{name: "canceled within period", user: &models.User{SubscriptionStatus: models.SubscriptionCanceled, SubscriptionEndsAt: timePtr(subNow.Add(72 * time.Hour))}, want: false},
		{name: "nil user", user: nil, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSubscriptionActive(tc.user, subNow))
		})
	}
}

func TestSubscriptionStatusDaysRemaining(t *testing.T) {
	user := &models.User{ID: "u1", SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(subNow.Add(36 * time.Hour))}
	svc, _ := newTestSubscriptionService([]*models.User{user}, nil)

	status, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, status.IsTrialActive)
	assert.True(t, status.IsSubscriptionActive)
	assert.Equal(t, 2, status.DaysRemaining)

	_, err = svc.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStartTrialOnce(t *testing.T) {
	user := &models.User{ID: "u1", SubscriptionStatus: models.SubscriptionExpired}
	svc, repo := newTestSubscriptionService([]*models.User{user}, nil)

	status, err := svc.StartTrial(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionTrial, status.Status)
	assert.Equal(t, 14, status.DaysRemaining)
	assert.Equal(t, 1, repo.audits)

	_, err = svc.StartTrial(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

type stubCouponRedeemer struct {
	req        dto.ValidateCouponRequest
	invalid    string
	applyErr   error
	applyCalls int
}

func (s *stubCouponRedeemer) ValidateCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponValidation, error) {
	s.req = req
	if s.invalid != "" {
		return &dto.CouponValidation{Valid: false, Message: s.invalid, FinalAmount: req.OrderAmount}, nil
	}
	return &dto.CouponValidation{Valid: true, Message: msgCouponValid, DiscountAmount: 9.9, FinalAmount: 89.1}, nil
}

func (s *stubCouponRedeemer) ApplyCoupon(ctx context.Context, userID string, req dto.ValidateCouponRequest) (*dto.CouponApplication, error) {
	s.applyCalls++
	s.req = req
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return &dto.CouponApplication{CouponCode: req.Code, OrderAmount: req.OrderAmount, DiscountAmount: 9.9, FinalAmount: 89.1}, nil
}

func TestActivateWithCoupon(t *testing.T) {
	user := &models.User{ID: "u1", SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(subNow.Add(-time.Hour))}
	coupons := &stubCouponRedeemer{}
	svc, repo := newTestSubscriptionService([]*models.User{user}, coupons)

	result, err := svc.Activate(context.Background(), "u1", dto.ActivateSubscriptionRequest{Plan: "Professional", CouponCode: "SAVE10"})
	require.NoError(t, err)
	assert.Equal(t, "professional", coupons.req.Plan)
	assert.Equal(t, 99.0, coupons.req.OrderAmount)
	assert.Equal(t, 89.1, result.FinalAmount)
	assert.Equal(t, "SAVE10", result.CouponCode)
	assert.Equal(t, 1, coupons.applyCalls)
	assert.True(t, result.Subscription.IsSubscriptionActive)
	assert.Equal(t, 30, result.Subscription.DaysRemaining)
	require.NotNil(t, repo.users["u1"].Plan)
	assert.Equal(t, "professional", *repo.users["u1"].Plan)
}

func TestActivateRejectsUnknownPlanAndBadCoupon(t *testing.T) {
	user := &models.User{ID: "u1"}
	coupons := &stubCouponRedeemer{invalid: msgCouponExpired}
	svc, repo := newTestSubscriptionService([]*models.User{user}, coupons)

	_, err := svc.Activate(context.Background(), "u1", dto.ActivateSubscriptionRequest{Plan: "enterprise"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Activate(context.Background(), "u1", dto.ActivateSubscriptionRequest{Plan: "solo", CouponCode: "OLD"})
	require.Error(t, err)
	assert.Equal(t, msgCouponExpired, appErrors.FromError(err).Message)
	assert.Equal(t, 0, repo.audits)
	assert.Equal(t, 0, repo.updates)
	assert.Equal(t, 0, coupons.applyCalls)
}

func TestActivateKeepsCouponWhenSaveFails(t *testing.T) {
	user := &models.User{ID: "u1", SubscriptionStatus: models.SubscriptionExpired}
	coupons := &stubCouponRedeemer{}
	svc, repo := newTestSubscriptionService([]*models.User{user}, coupons)
	repo.updateErr = errors.New("connection reset")

	_, err := svc.Activate(context.Background(), "u1", dto.ActivateSubscriptionRequest{Plan: "solo", CouponCode: "SAVE10"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, coupons.applyCalls)
	assert.Equal(t, 0, repo.audits)
}

func TestActivateRestoresSubscriptionWhenRedeemFails(t *testing.T) {
	user := &models.User{ID: "u1", SubscriptionStatus: models.SubscriptionExpired}
	coupons := &stubCouponRedeemer{applyErr: appErrors.Clone(appErrors.ErrConflict, msgCouponExhausted)}
	svc, repo := newTestSubscriptionService([]*models.User{user}, coupons)

	_, err := svc.Activate(context.Background(), "u1", dto.ActivateSubscriptionRequest{Plan: "firm", CouponCode: "LAST1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, coupons.applyCalls)
	assert.Equal(t, 2, repo.updates)

	stored := repo.users["u1"]
	assert.Equal(t, models.SubscriptionExpired, stored.SubscriptionStatus)
	assert.Nil(t, stored.Plan)
	assert.Nil(t, stored.SubscriptionEndsAt)
}

func TestCancelKeepsPeriodEnd(t *testing.T) {
	ends := subNow.Add(10 * 24 * time.Hour)
	user := &models.User{ID: "u1", SubscriptionStatus: models.SubscriptionActive, SubscriptionEndsAt: &ends}
	svc, repo := newTestSubscriptionService([]*models.User{user}, nil)

	status, err := svc.Cancel(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, status.Status)
	assert.False(t, status.IsSubscriptionActive)
	assert.Equal(t, ends, *repo.users["u1"].SubscriptionEndsAt)
}
