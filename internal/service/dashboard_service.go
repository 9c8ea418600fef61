package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

type caseCounter interface {
	CountByStatus(ctx context.Context, userID string) ([]models.CaseCount, error)
	CountByPriority(ctx context.Context, userID string) ([]models.CaseCount, error)
}

type motionCounter interface {
	CountByStatus(ctx context.Context, userID string) ([]models.CaseCount, error)
}

type deadlineSummaryRepository interface {
	ListUpcoming(ctx context.Context, userID string, from, until time.Time, limit int) ([]models.DeadlineWithCase, error)
	CountOverdue(ctx context.Context, userID string, now time.Time) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	UpcomingWindow time.Duration
	UpcomingLimit  int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Cases     caseCounter
	Motions   motionCounter
	Deadlines deadlineSummaryRepository
	Cache     dashboardCache
	Logger    *zap.Logger
	Config    DashboardServiceConfig
	Now       func() time.Time
}

// DashboardService composes the per-user case overview.
type DashboardService struct {
	cases     caseCounter
	motions   motionCounter
	deadlines deadlineSummaryRepository
	cache     dashboardCache
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = 14 * 24 * time.Hour
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		cases:     params.Cases,
		motions:   params.Motions,
		deadlines: params.Deadlines,
		cache:     params.Cache,
		logger:    logger,
		now:       now,
		cfg:       cfg,
	}
}

// Summary returns the dashboard of userID and whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*dto.DashboardSummary, bool, error) {
	if userID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "user is required")
	}
	key := DashboardCacheKey(userID)
	if s.cache != nil {
		var cached dto.DashboardSummary
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, userID string) (*dto.DashboardSummary, error) {
	byStatus, err := s.cases.CountByStatus(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	byPriority, err := s.cases.CountByPriority(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	motions, err := s.motions.CountByStatus(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count motions")
	}

	now := s.now()
	upcoming, err := s.deadlines.ListUpcoming(ctx, userID, now, now.Add(s.cfg.UpcomingWindow), s.cfg.UpcomingLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deadlines")
	}
	overdue, err := s.deadlines.CountOverdue(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count overdue deadlines")
	}

	summary := &dto.DashboardSummary{
		CasesByStatus:     countsToMap(byStatus),
		CasesByPriority:   countsToMap(byPriority),
		MotionsByStatus:   countsToMap(motions),
		UpcomingDeadlines: make([]dto.DeadlineItem, 0, len(upcoming)),
		OverdueDeadlines:  overdue,
		GeneratedAt:       now.UTC(),
	}
	for _, c := range byStatus {
		summary.TotalCases += c.Count
	}
	for _, d := range upcoming {
		summary.UpcomingDeadlines = append(summary.UpcomingDeadlines, newDeadlineItem(d.Deadline, d.CaseTitle, now))
	}
	return summary, nil
}

func countsToMap(counts []models.CaseCount) map[string]int {
	out := make(map[string]int, len(counts))
	for _, c := range counts {
		out[c.Key] = c.Count
	}
	return out
}
