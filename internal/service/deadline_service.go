package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const (
	defaultUpcomingDays = 14
	maxUpcomingDays     = 365
	upcomingListLimit   = 100
)

type deadlineRepository interface {
	ListByCase(ctx context.Context, caseID string) ([]models.Deadline, error)
	ListUpcoming(ctx context.Context, userID string, from, until time.Time, limit int) ([]models.DeadlineWithCase, error)
	FindByID(ctx context.Context, id string) (*models.Deadline, error)
	Create(ctx context.Context, d *models.Deadline) error
	Update(ctx context.Context, d *models.Deadline) error
	Delete(ctx context.Context, id string) error
}

// DeadlineParams groups dependencies for DeadlineService.
type DeadlineParams struct {
	Repo      deadlineRepository
	Cases     caseFinder
	Cache     dashboardInvalidator
	Validator *validator.Validate
	Logger    *zap.Logger
	Now       func() time.Time
}

// DeadlineService manages case deadlines and their urgency.
type DeadlineService struct {
	repo      deadlineRepository
	cases     caseFinder
	cache     dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeadlineService constructs a DeadlineService.
func NewDeadlineService(p DeadlineParams) *DeadlineService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &DeadlineService{repo: p.Repo, cases: p.Cases, cache: p.Cache, validator: p.Validator, logger: p.Logger, now: p.Now}
}

// DeadlineUrgency classifies a deadline relative to now and returns the
// whole days left, negative once it has passed.
func DeadlineUrgency(due time.Time, status models.DeadlineStatus, now time.Time) (models.Urgency, int) {
	days := int(math.Floor(due.Sub(now).Hours() / 24))
	if status == models.DeadlineStatusCompleted {
		return models.UrgencyCompleted, days
	}
	if status == models.DeadlineStatusMissed || due.Before(now) {
		return models.UrgencyOverdue, days
	}
	switch {
	case days <= 2:
		return models.UrgencyCritical, days
	case days <= 7:
		return models.UrgencyUrgent, days
	case days <= 30:
		return models.UrgencyUpcoming, days
	}
	return models.UrgencyScheduled, days
}

func newDeadlineItem(d models.Deadline, caseTitle string, now time.Time) dto.DeadlineItem {
	urgency, days := DeadlineUrgency(d.DueDate, d.Status, now)
	return dto.DeadlineItem{Deadline: d, CaseTitle: caseTitle, Urgency: urgency, DaysUntil: days}
}

// ListByCase returns a case's deadlines with urgency.
func (s *DeadlineService) ListByCase(ctx context.Context, actor Actor, caseID string) ([]dto.DeadlineItem, error) {
	c, err := authorizeCase(ctx, s.cases, actor, caseID)
	if err != nil {
		return nil, err
	}
	deadlines, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deadlines")
	}
	now := s.now()
	items := make([]dto.DeadlineItem, 0, len(deadlines))
	for _, d := range deadlines {
		items = append(items, newDeadlineItem(d, c.Title, now))
	}
	return items, nil
}

// Upcoming returns the actor's pending deadlines due within days. Overdue ones are left out.
func (s *DeadlineService) Upcoming(ctx context.Context, actor Actor, days int) ([]dto.DeadlineItem, error) {
	if days <= 0 {
		days = defaultUpcomingDays
	}
	if days > maxUpcomingDays {
		days = maxUpcomingDays
	}
	now := s.now()
	rows, err := s.repo.ListUpcoming(ctx, actor.UserID, now, now.Add(time.Duration(days)*24*time.Hour), upcomingListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming deadlines")
	}
	items := make([]dto.DeadlineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, newDeadlineItem(row.Deadline, row.CaseTitle, now))
	}
	return items, nil
}

// Create adds a deadline to a case.
func (s *DeadlineService) Create(ctx context.Context, actor Actor, caseID string, req dto.CreateDeadlineRequest) (*dto.DeadlineItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}
	c, err := authorizeCase(ctx, s.cases, actor, caseID)
	if err != nil {
		return nil, err
	}
	d := &models.Deadline{
		CaseID:      c.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		Status:      models.DeadlineStatusPending,
		Priority:    models.Priority(req.Priority),
	}
	if d.Priority == "" {
		d.Priority = models.PriorityMedium
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deadline")
	}
	s.invalidate(ctx, c.UserID)
	item := newDeadlineItem(*d, c.Title, s.now())
	return &item, nil
}

// Update applies a partial update to a deadline.
func (s *DeadlineService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateDeadlineRequest) (*dto.DeadlineItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}
	d, c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		d.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		d.Description = req.Description
	}
	if req.DueDate != nil {
		d.DueDate = req.DueDate.UTC()
	}
	if req.Status != nil {
		d.Status = models.DeadlineStatus(*req.Status)
	}
	if req.Priority != nil {
		d.Priority = models.Priority(*req.Priority)
	}
	return s.save(ctx, d, c)
}

// Complete marks a deadline completed.
func (s *DeadlineService) Complete(ctx context.Context, actor Actor, id string) (*dto.DeadlineItem, error) {
	d, c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	d.Status = models.DeadlineStatusCompleted
	return s.save(ctx, d, c)
}

// Delete removes a deadline.
func (s *DeadlineService) Delete(ctx context.Context, actor Actor, id string) error {
	_, c, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "deadline not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete deadline")
	}
	s.invalidate(ctx, c.UserID)
	return nil
}

func (s *DeadlineService) save(ctx context.Context, d *models.Deadline, c *models.Case) (*dto.DeadlineItem, error) {
	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deadline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deadline")
	}
	s.invalidate(ctx, c.UserID)
	item := newDeadlineItem(*d, c.Title, s.now())
	return &item, nil
}

func (s *DeadlineService) load(ctx context.Context, actor Actor, id string) (*models.Deadline, *models.Case, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "deadline not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deadline")
	}
	c, err := authorizeCase(ctx, s.cases, actor, d.CaseID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "deadline not found")
		}
		return nil, nil, err
	}
	return d, c, nil
}

func (s *DeadlineService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.InvalidateDashboard(ctx, userID)
	}
}
