package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	internalmiddleware "github.com/casebuddy/casebuddy-api/internal/middleware"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/internal/service"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type caseServiceIntegrationMock struct{}

func (caseServiceIntegrationMock) List(context.Context, service.Actor, dto.CaseListQuery) ([]models.Case, *models.Pagination, error) {
	return []models.Case{{ID: "case-1", Title: "Doe v. Roe"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (caseServiceIntegrationMock) Get(_ context.Context, _ service.Actor, id string) (*models.Case, error) {
	return &models.Case{ID: id}, nil
}

func (caseServiceIntegrationMock) Create(context.Context, service.Actor, dto.CreateCaseRequest) (*models.Case, error) {
	return &models.Case{ID: "case-2"}, nil
}

func (caseServiceIntegrationMock) Update(_ context.Context, _ service.Actor, id string, _ dto.UpdateCaseRequest) (*models.Case, error) {
	return &models.Case{ID: id}, nil
}

func (caseServiceIntegrationMock) Delete(context.Context, service.Actor, string) error {
	return nil
}

type subscriptionServiceIntegrationMock struct{}

func (subscriptionServiceIntegrationMock) Status(context.Context, string) (*dto.SubscriptionStatusResponse, error) {
	return &dto.SubscriptionStatusResponse{Status: models.SubscriptionExpired}, nil
}

func (subscriptionServiceIntegrationMock) StartTrial(context.Context, string) (*dto.SubscriptionStatusResponse, error) {
	return &dto.SubscriptionStatusResponse{}, nil
}

func (subscriptionServiceIntegrationMock) Activate(context.Context, string, dto.ActivateSubscriptionRequest) (*dto.ActivationResult, error) {
	return &dto.ActivationResult{}, nil
}

func (subscriptionServiceIntegrationMock) Cancel(context.Context, string) (*dto.SubscriptionStatusResponse, error) {
	return &dto.SubscriptionStatusResponse{}, nil
}

type couponServiceIntegrationMock struct{}

func (couponServiceIntegrationMock) ValidateCoupon(context.Context, string, dto.ValidateCouponRequest) (*dto.CouponValidation, error) {
	return &dto.CouponValidation{Valid: true}, nil
}

func (couponServiceIntegrationMock) ApplyCoupon(context.Context, string, dto.ValidateCouponRequest) (*dto.CouponApplication, error) {
	return &dto.CouponApplication{}, nil
}

func (couponServiceIntegrationMock) CreateCoupon(context.Context, dto.CreateCouponRequest, string) (*models.CouponCode, error) {
	return &models.CouponCode{}, nil
}

func (couponServiceIntegrationMock) ListCoupons(context.Context, dto.CouponListQuery) ([]models.CouponCode, *models.Pagination, error) {
	return []models.CouponCode{}, &models.Pagination{Page: 1}, nil
}

func (couponServiceIntegrationMock) GetCoupon(context.Context, string) (*models.CouponCode, error) {
	return &models.CouponCode{}, nil
}

func (couponServiceIntegrationMock) UpdateCoupon(context.Context, string, dto.UpdateCouponRequest) (*models.CouponCode, error) {
	return &models.CouponCode{}, nil
}

func (couponServiceIntegrationMock) DeactivateCoupon(context.Context, string) (*models.CouponCode, error) {
	return &models.CouponCode{}, nil
}

func (couponServiceIntegrationMock) CouponUsage(context.Context, string) (*dto.CouponUsageReport, error) {
	return &dto.CouponUsageReport{}, nil
}

type routeTokenValidator struct{}

func (routeTokenValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "user-token" {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: "u7", Role: models.RoleUser}, nil
}

// buildAPIRouter authenticates from X-Test-User/X-Test-Role and treats
// X-Test-Subscribed as the subscription state.
func buildAPIRouter(audited *[]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	authenticate := func(c *gin.Context) {
		user := c.GetHeader("X-Test-User")
		if user == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: user, Role: models.UserRole(c.GetHeader("X-Test-Role"))})
		c.Next()
	}
	subscription := func(c *gin.Context) {
		if c.GetHeader("X-Test-Subscribed") == "" {
			response.Error(c, appErrors.ErrSubscriptionRequired)
			c.Abort()
			return
		}
		c.Next()
	}

	RegisterRoutes(router.Group("/api"), Handlers{
		Cases:        NewCaseHandler(caseServiceIntegrationMock{}),
		Subscription: NewSubscriptionHandler(subscriptionServiceIntegrationMock{}),
		Coupons:      NewCouponHandler(couponServiceIntegrationMock{}),
		Exports:      NewExportHandler(&fakeExportService{}),
	}, RouteMiddleware{
		Authenticate: authenticate,
		Identify:     internalmiddleware.OptionalJWT(routeTokenValidator{}, "casebuddy_token"),
		RequireAdmin: internalmiddleware.RequireRoles(models.RoleAdmin),
		Subscription: subscription,
		Audit: func(action, resource string) gin.HandlerFunc {
			return func(c *gin.Context) {
				c.Next()
				entry := action + " " + resource
				if claims, ok := internalmiddleware.Claims(c); ok {
					entry += "@" + claims.UserID
				}
				*audited = append(*audited, entry)
			}
		},
	})
	return router
}

func TestAPIRoutesIntegration(t *testing.T) {
	var audited []string
	router := buildAPIRouter(&audited)

	t.Run("cases require auth", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/cases", nil)
		require.Equal(t, http.StatusUnauthorized, performRequest(router, req).Code)
	})

	t.Run("cases require subscription", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/cases", nil)
		req.Header.Set("X-Test-User", "u1")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
		require.Contains(t, resp.Body.String(), appErrors.ErrSubscriptionRequired.Code)
	})

	t.Run("cases list with subscription", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/cases", nil)
		req.Header.Set("X-Test-User", "u1")
		req.Header.Set("X-Test-Subscribed", "yes")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"pagination"`)
	})

	t.Run("subscription status is not gated", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/subscription/status", nil)
		req.Header.Set("X-Test-User", "u1")
		require.Equal(t, http.StatusOK, performRequest(router, req).Code)
	})

	t.Run("admin coupons forbidden for users", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/admin/coupons", nil)
		req.Header.Set("X-Test-User", "u1")
		req.Header.Set("X-Test-Role", string(models.RoleUser))
		require.Equal(t, http.StatusForbidden, performRequest(router, req).Code)
	})

	t.Run("admin coupons for admins", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/admin/coupons", nil)
		req.Header.Set("X-Test-User", "a1")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		require.Equal(t, http.StatusOK, performRequest(router, req).Code)
	})

	t.Run("download needs no session", func(t *testing.T) {
		audited = audited[:0]
		req, _ := http.NewRequest(http.MethodGet, "/api/exports/download/good", nil)
		require.Equal(t, http.StatusOK, performRequest(router, req).Code)
		require.Equal(t, []string{models.AuditActionExportDownload + " export"}, audited)
	})

	t.Run("download with bad session stays anonymous", func(t *testing.T) {
		audited = audited[:0]
		req, _ := http.NewRequest(http.MethodGet, "/api/exports/download/good", nil)
		req.Header.Set("Authorization", "Bearer expired")
		require.Equal(t, http.StatusOK, performRequest(router, req).Code)
		require.Equal(t, []string{models.AuditActionExportDownload + " export"}, audited)
	})

	t.Run("download attributes a valid session", func(t *testing.T) {
		audited = audited[:0]
		req, _ := http.NewRequest(http.MethodGet, "/api/exports/download/good", nil)
		req.Header.Set("Authorization", "Bearer user-token")
		require.Equal(t, http.StatusOK, performRequest(router, req).Code)
		require.Equal(t, []string{models.AuditActionExportDownload + " export@u7"}, audited)
	})

	t.Run("mutations are audited", func(t *testing.T) {
		audited = audited[:0]
		req, _ := http.NewRequest(http.MethodDelete, "/api/cases/case-1", nil)
		req.Header.Set("X-Test-User", "u1")
		req.Header.Set("X-Test-Subscribed", "yes")
		require.Equal(t, http.StatusNoContent, performRequest(router, req).Code)
		require.Equal(t, []string{models.AuditActionDelete + " case@u1"}, audited)
	})
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
