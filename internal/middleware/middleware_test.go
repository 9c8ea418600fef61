package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	tokens map[string]*models.JWTClaims
}

func (f fakeValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var (
	userClaims  = &models.JWTClaims{UserID: "u1", Role: models.RoleUser}
	adminClaims = &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	validator   = fakeValidator{tokens: map[string]*models.JWTClaims{"user-token": userClaims, "admin-token": adminClaims}}
)

func whoAmI(c *gin.Context) {
	if claims, ok := Claims(c); ok {
		c.String(http.StatusOK, claims.UserID)
		return
	}
	c.String(http.StatusOK, "anonymous")
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestJWTReadsHeaderAndCookie(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(validator, "casebuddy_token"), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "casebuddy_token", Value: "admin-token"})
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", w.Body.String())
}

func TestJWTRejectsMissingOrInvalidTokens(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(validator, "casebuddy_token"), whoAmI)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(t, w))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token user-token")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestOptionalJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", OptionalJWT(validator, "casebuddy_token"), whoAmI)

	assert.Equal(t, "anonymous", serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	assert.Equal(t, "anonymous", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	assert.Equal(t, "u1", serve(r, req).Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/admin", JWT(validator, ""), RequireRoles(models.RoleAdmin), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, w))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	bare := gin.New()
	bare.GET("/admin", RequireRoles(models.RoleAdmin), whoAmI)
	assert.Equal(t, http.StatusUnauthorized, serve(bare, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
}

type fakeChecker struct {
	active map[string]bool
	err    error
	calls  int
}

func (f *fakeChecker) IsActive(ctx context.Context, userID string) (bool, error) {
	f.calls++
	return f.active[userID], f.err
}

func gated(checker subscriptionChecker, enabled bool) *gin.Engine {
	r := gin.New()
	r.GET("/cases", JWT(validator, ""), SubscriptionGate(checker, enabled), whoAmI)
	return r
}

func authed(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSubscriptionGate(t *testing.T) {
	checker := &fakeChecker{active: map[string]bool{}}

	w := serve(gated(checker, true), authed("/cases", "user-token"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.ErrSubscriptionRequired.Code, errorCode(t, w))

	checker.active["u1"] = true
	assert.Equal(t, http.StatusOK, serve(gated(checker, true), authed("/cases", "user-token")).Code)

	calls := checker.calls
	assert.Equal(t, http.StatusOK, serve(gated(checker, true), authed("/cases", "admin-token")).Code)
	assert.Equal(t, calls, checker.calls)
}

func TestSubscriptionGateDisabledAndErrors(t *testing.T) {
	checker := &fakeChecker{active: map[string]bool{}}
	assert.Equal(t, http.StatusOK, serve(gated(checker, false), authed("/cases", "user-token")).Code)
	assert.Zero(t, checker.calls)

	failing := &fakeChecker{err: appErrors.Clone(appErrors.ErrNotFound, "user not found")}
	assert.Equal(t, http.StatusNotFound, serve(gated(failing, true), authed("/cases", "user-token")).Code)
}

type recordedRequest struct {
	method, path string
	status       int
}

type fakeObserver struct{ seen []recordedRequest }

func (f *fakeObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	f.seen = append(f.seen, recordedRequest{method, path, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &fakeObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/cases/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, httptest.NewRequest(http.MethodGet, "/cases/42", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, observer.seen, 2)
	assert.Equal(t, recordedRequest{http.MethodGet, "/cases/:id", http.StatusNoContent}, observer.seen[0])
	assert.Equal(t, recordedRequest{http.MethodGet, "unmatched", http.StatusNotFound}, observer.seen[1])
}

type fakeAuditRecorder struct {
	entries []*models.AuditLog
	err     error
}

func (f *fakeAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.entries = append(f.entries, log)
	return f.err
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	recorder := &fakeAuditRecorder{}
	r := gin.New()
	r.PUT("/cases/:id", JWT(validator, ""), Audit(recorder, nil, models.AuditActionUpdate, "case"), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	req := authed("/cases/c-9", "user-token")
	req.Method = http.MethodPut
	serve(r, req)

	req = authed("/cases/c-9?fail=1", "user-token")
	req.Method = http.MethodPut
	serve(r, req)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Equal(t, "case", entry.Resource)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "c-9", *entry.ResourceID)
	assert.Contains(t, string(entry.NewValues), `"path":"/cases/:id"`)

	recorder.err = errors.New("db down")
	req = authed("/cases/c-9", "user-token")
	req.Method = http.MethodPut
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.Use(func(c *gin.Context) {
		c.Next()
		meta = ExtractMeta(c)
	})
	r.GET("/dashboard", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "total", 3)
		c.Status(http.StatusOK)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NotNil(t, meta)
	assert.Equal(t, true, meta[cacheHitKey])
	assert.Equal(t, 3, meta["total"])
	assert.Nil(t, ExtractMeta(nil))
}
