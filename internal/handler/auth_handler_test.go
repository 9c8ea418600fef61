package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/middleware"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

type fakeAuthService struct {
	login       *models.LoginResponse
	loginErr    error
	lastLogin   models.LoginRequest
	logoutUser  string
	logoutToken string
	changedUser string
	me          *models.UserInfo
}

func (f *fakeAuthService) Register(_ context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	return f.login, f.loginErr
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	return f.login, f.loginErr
}

func (f *fakeAuthService) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "refreshed", ExpiresIn: 60}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, userID, refreshToken, ip, userAgent string) error {
	f.logoutUser = userID
	f.logoutToken = refreshToken
	return nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, userID string, req models.ChangePasswordRequest) error {
	f.changedUser = userID
	return nil
}

func (f *fakeAuthService) Me(context.Context, string) (*models.UserInfo, error) {
	return f.me, nil
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{login: &models.LoginResponse{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 900}}
	handler := NewAuthHandler(svc, CookieConfig{Name: "casebuddy_token"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"secret123"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("User-Agent", "test-agent")

	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.co", svc.lastLogin.Email)
	assert.Equal(t, "test-agent", svc.lastLogin.UserAgent)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "casebuddy_token", cookies[0].Name)
	assert.Equal(t, "access-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 900, cookies[0].MaxAge)
}

func TestAuthHandlerLoginErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{loginErr: appErrors.ErrInvalidCredentials}
	handler := NewAuthHandler(svc, CookieConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":`))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"nope"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Login(c)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Status, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandlerLogoutWithoutBodyRevokesAllSessions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc, CookieConfig{Name: "casebuddy_token"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})

	handler.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", svc.logoutUser)
	assert.Empty(t, svc.logoutToken)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthService{me: &models.UserInfo{ID: "u1"}}, CookieConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})
	handler.Me(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u1"`)
}
