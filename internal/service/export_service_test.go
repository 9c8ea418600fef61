package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

type stubExportSource struct {
	cases     []models.Case
	deadlines []models.DeadlineWithCase
}

func (s stubExportSource) ListAll(ctx context.Context, userID string) ([]models.Case, error) {
	return s.cases, nil
}

func (s stubExportSource) ListAllForUser(ctx context.Context, userID string) ([]models.DeadlineWithCase, error) {
	return s.deadlines, nil
}

func newTestExportService(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	court := "S.D.N.Y."
	src := stubExportSource{
		cases: []models.Case{{ID: "c1", Title: "=Smith v. Jones", Court: &court, Status: models.CaseStatusOpen, Priority: models.PriorityHigh, CreatedAt: deadlineNow}},
		deadlines: []models.DeadlineWithCase{{
			Deadline:  models.Deadline{Title: "Answer", DueDate: deadlineNow.Add(5 * 24 * time.Hour), Status: models.DeadlineStatusPending, Priority: models.PriorityHigh},
			CaseTitle: "Smith v. Jones",
		}},
	}
	return NewExportService(ExportParams{
		Cases:     src,
		Deadlines: src,
		Store:     store,
		Signer:    storage.NewSignedURLSigner("export-secret", time.Hour),
		Config:    ExportConfig{APIPrefix: "/api"},
		Now:       func() time.Time { return deadlineNow },
	})
}

func TestExportCasesCSV(t *testing.T) {
	svc := newTestExportService(t)
	body, name, err := svc.CasesCSV(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "cases-20260701.csv", name)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Title,Case Number,Client,Court"))
	assert.True(t, strings.HasPrefix(lines[1], "'=Smith v. Jones,,,S.D.N.Y.,,open,high"))
}

func TestExportDeadlinesCSV(t *testing.T) {
	svc := newTestExportService(t)
	body, _, err := svc.DeadlinesCSV(context.Background(), owner)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Smith v. Jones,Answer,2026-07-06T09:00:00Z,pending,high,upcoming,5")
}

func TestExportBriefLinkRoundTrip(t *testing.T) {
	svc := newTestExportService(t)
	brief := dto.GeneratedBrief{
		Title:    "Motion for Summary Judgment",
		Sections: []dto.BriefSection{{Heading: "Argument", Content: "See Celotex Corp. v. Catrett, 477 U.S. 317.", Citations: []string{"477 U.S. 317"}}},
	}

	link, err := svc.BriefPDFLink(context.Background(), owner, brief)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "/api/exports/download/"))

	token := strings.TrimPrefix(link.URL, "/api/exports/download/")
	rc, name, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "motion-for-summary-judgment-20260701.pdf", name)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	_, _, err = svc.Download(context.Background(), token+"x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportBriefRequiresContent(t *testing.T) {
	svc := newTestExportService(t)
	_, _, err := svc.BriefPDF(dto.GeneratedBrief{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
