package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/middleware"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/internal/service"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

type fakeExportService struct {
	actor service.Actor
}

func (f *fakeExportService) CasesCSV(_ context.Context, actor service.Actor) ([]byte, string, error) {
	f.actor = actor
	return []byte("id,title\ncase-1,Doe v. Roe\n"), "cases-20260701.csv", nil
}

func (f *fakeExportService) DeadlinesCSV(context.Context, service.Actor) ([]byte, string, error) {
	return []byte("id\n"), "deadlines.csv", nil
}

func (f *fakeExportService) Download(_ context.Context, token string) (io.ReadCloser, string, error) {
	if token != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	return io.NopCloser(bytes.NewBufferString("%PDF-1.3")), "brief.pdf", nil
}

func TestExportCasesCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeExportService{}
	handler := NewExportHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/cases.csv", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})

	handler.Cases(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csvContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cases-20260701.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Doe v. Roe")
	assert.True(t, svc.actor.IsAdmin())
}

func TestExportDownloadUsesTokenOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/exports/download/:token", NewExportHandler(&fakeExportService{}).Download)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/download/good", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/download/forged", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type fakeBriefService struct {
	linked bool
}

func (f *fakeBriefService) Generate(_ context.Context, req dto.GenerateBriefRequest) (*dto.GeneratedBrief, error) {
	return &dto.GeneratedBrief{Title: req.BriefType + ": " + req.CaseTitle, GeneratedAt: time.Now()}, nil
}

func (f *fakeBriefService) ExportPDF(brief dto.GeneratedBrief) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "brief.pdf", nil
}

func (f *fakeBriefService) ExportPDFLink(_ context.Context, actor service.Actor, brief dto.GeneratedBrief) (*dto.ExportLink, error) {
	f.linked = true
	return &dto.ExportLink{URL: "/api/exports/download/tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestBriefPDFReturnsFileOrLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeBriefService{}
	handler := NewBriefHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/brief-generation/pdf", bytes.NewBufferString(`{"brief":{"title":"Motion"}}`))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.PDF(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.False(t, svc.linked)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/brief-generation/pdf", bytes.NewBufferString(`{"brief":{"title":"Motion"},"link":true}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})
	handler.PDF(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.linked)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "/api/exports/download/tok", envelope.Data["url"])
}

func TestBriefGenerateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBriefHandler(&fakeBriefService{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/brief-generation/generate", bytes.NewBufferString(`{"caseTitle":`))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}
