package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

type stubCaseCounter struct {
	calls int
}

func (s *stubCaseCounter) CountByStatus(ctx context.Context, userID string) ([]models.CaseCount, error) {
	s.calls++
	return []models.CaseCount{{Key: "open", Count: 3}, {Key: "closed", Count: 2}}, nil
}

func (s *stubCaseCounter) CountByPriority(ctx context.Context, userID string) ([]models.CaseCount, error) {
	return []models.CaseCount{{Key: "high", Count: 4}, {Key: "low", Count: 1}}, nil
}

type stubMotionCounter struct{}

func (stubMotionCounter) CountByStatus(ctx context.Context, userID string) ([]models.CaseCount, error) {
	return []models.CaseCount{{Key: "filed", Count: 2}}, nil
}

type stubDeadlineSummary struct {
	rows  []models.DeadlineWithCase
	from  time.Time
	until time.Time
	limit int
}

func (s *stubDeadlineSummary) ListUpcoming(ctx context.Context, userID string, from, until time.Time, limit int) ([]models.DeadlineWithCase, error) {
	s.from, s.until, s.limit = from, until, limit
	rows := s.rows
	if rows == nil {
		rows = []models.DeadlineWithCase{{
			Deadline:  models.Deadline{ID: "d1", Title: "Reply brief", DueDate: deadlineNow.Add(12 * time.Hour), Status: models.DeadlineStatusPending},
			CaseTitle: "Smith v. Jones",
		}}
	}
	var out []models.DeadlineWithCase
	for _, row := range rows {
		if row.DueDate.Before(from) || row.DueDate.After(until) {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *stubDeadlineSummary) CountOverdue(ctx context.Context, userID string, now time.Time) (int, error) {
	if s.rows == nil {
		return 1, nil
	}
	n := 0
	for _, row := range s.rows {
		if row.DueDate.Before(now) {
			n++
		}
	}
	return n, nil
}

func TestDashboardSummaryComposesAndCaches(t *testing.T) {
	cases := &stubCaseCounter{}
	deadlines := &stubDeadlineSummary{}
	cacheRepo := newMemoryCacheRepo()
	svc := NewDashboardService(DashboardServiceParams{
		Cases:     cases,
		Motions:   stubMotionCounter{},
		Deadlines: deadlines,
		Cache:     NewCacheService(cacheRepo, nil, 0, nil, true),
		Now:       func() time.Time { return deadlineNow },
	})

	summary, hit, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 5, summary.TotalCases)
	assert.Equal(t, 4, summary.CasesByPriority["high"])
	assert.Equal(t, 2, summary.MotionsByStatus["filed"])
	assert.Equal(t, 1, summary.OverdueDeadlines)
	require.Len(t, summary.UpcomingDeadlines, 1)
	assert.Equal(t, models.UrgencyCritical, summary.UpcomingDeadlines[0].Urgency)
	assert.Equal(t, deadlineNow, deadlines.from)
	assert.Equal(t, deadlineNow.Add(14*24*time.Hour), deadlines.until)
	assert.Equal(t, 5, deadlines.limit)
	assert.Contains(t, cacheRepo.store, "dash:user:u1")

	cached, hit, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 5, cached.TotalCases)
	assert.Equal(t, 1, cases.calls)
}

func TestDashboardSummaryWithoutCache(t *testing.T) {
	cases := &stubCaseCounter{}
	svc := NewDashboardService(DashboardServiceParams{
		Cases:     cases,
		Motions:   stubMotionCounter{},
		Deadlines: &stubDeadlineSummary{},
		Now:       func() time.Time { return deadlineNow },
	})
	_, hit, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	_, _, err = svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, cases.calls)
}

func TestDashboardUpcomingSkipsOverdueDeadlines(t *testing.T) {
	var rows []models.DeadlineWithCase
	for i := 1; i <= 6; i++ {
		rows = append(rows, models.DeadlineWithCase{
			Deadline:  models.Deadline{ID: fmt.Sprintf("late-%d", i), DueDate: deadlineNow.Add(-time.Duration(i) * 24 * time.Hour), Status: models.DeadlineStatusPending},
			CaseTitle: "Smith v. Jones",
		})
	}
	rows = append(rows, models.DeadlineWithCase{
		Deadline:  models.Deadline{ID: "soon", DueDate: deadlineNow.Add(4 * 24 * time.Hour), Status: models.DeadlineStatusPending},
		CaseTitle: "Smith v. Jones",
	})
	svc := NewDashboardService(DashboardServiceParams{
		Cases:     &stubCaseCounter{},
		Motions:   stubMotionCounter{},
		Deadlines: &stubDeadlineSummary{rows: rows},
		Now:       func() time.Time { return deadlineNow },
	})

	summary, _, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, summary.OverdueDeadlines)
	require.Len(t, summary.UpcomingDeadlines, 1)
	assert.Equal(t, "soon", summary.UpcomingDeadlines[0].ID)
	assert.Equal(t, models.UrgencyUrgent, summary.UpcomingDeadlines[0].Urgency)
}
