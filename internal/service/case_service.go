package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

// Actor identifies the caller of an ownership-scoped operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type caseRepository interface {
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error)
	FindByID(ctx context.Context, id string) (*models.Case, error)
	Create(ctx context.Context, c *models.Case) error
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id string) error
}

type caseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
}

type dashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context, userID string)
}

// CaseService manages the cases owned by a user.
type CaseService struct {
	repo      caseRepository
	cache     dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCaseService constructs a CaseService. cache may be nil.
func NewCaseService(repo caseRepository, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the actor's cases. Admins list every owner.
func (s *CaseService) List(ctx context.Context, actor Actor, q dto.CaseListQuery) ([]models.Case, *models.Pagination, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case query")
	}
	filter := models.CaseFilter{
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	if q.Status != "" {
		status := models.CaseStatus(q.Status)
		filter.Status = &status
	}
	if q.Priority != "" {
		priority := models.Priority(q.Priority)
		filter.Priority = &priority
	}

	cases, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}
	if cases == nil {
		cases = []models.Case{}
	}
	page, size := normalisePage(q.Page, q.PageSize)
	return cases, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a case visible to actor.
func (s *CaseService) Get(ctx context.Context, actor Actor, id string) (*models.Case, error) {
	return authorizeCase(ctx, s.repo, actor, id)
}

// Create stores a new case owned by actor.
func (s *CaseService) Create(ctx context.Context, actor Actor, req dto.CreateCaseRequest) (*models.Case, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case payload")
	}
	c := &models.Case{
		UserID:          actor.UserID,
		Title:           strings.TrimSpace(req.Title),
		CaseNumber:      req.CaseNumber,
		ClientName:      req.ClientName,
		Jurisdiction:    req.Jurisdiction,
		Court:           req.Court,
		CaseType:        req.CaseType,
		Status:          models.CaseStatus(req.Status),
		Priority:        models.Priority(req.Priority),
		Description:     req.Description,
		FilingDate:      req.FilingDate,
		NextHearingDate: req.NextHearingDate,
	}
	if c.Status == "" {
		c.Status = models.CaseStatusOpen
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create case")
	}
	s.invalidate(ctx, c.UserID)
	return c, nil
}

// Update applies a partial update to a case.
func (s *CaseService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateCaseRequest) (*models.Case, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case payload")
	}
	c, err := authorizeCase(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = strings.TrimSpace(*req.Title)
	}
	if req.CaseNumber != nil {
		c.CaseNumber = req.CaseNumber
	}
	if req.ClientName != nil {
		c.ClientName = req.ClientName
	}
	if req.Jurisdiction != nil {
		c.Jurisdiction = req.Jurisdiction
	}
	if req.Court != nil {
		c.Court = req.Court
	}
	if req.CaseType != nil {
		c.CaseType = req.CaseType
	}
	if req.Status != nil {
		c.Status = models.CaseStatus(*req.Status)
	}
	if req.Priority != nil {
		c.Priority = models.Priority(*req.Priority)
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.FilingDate != nil {
		c.FilingDate = req.FilingDate
	}
	if req.NextHearingDate != nil {
		c.NextHearingDate = req.NextHearingDate
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update case")
	}
	s.invalidate(ctx, c.UserID)
	return c, nil
}

// Delete removes a case with its motions and deadlines.
func (s *CaseService) Delete(ctx context.Context, actor Actor, id string) error {
	c, err := authorizeCase(ctx, s.repo, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete case")
	}
	s.invalidate(ctx, c.UserID)
	return nil
}

func (s *CaseService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.InvalidateDashboard(ctx, userID)
	}
}

// authorizeCase loads a case and hides it from non-owners as not found.
func authorizeCase(ctx context.Context, repo caseFinder, actor Actor, id string) (*models.Case, error) {
	c, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if !actor.IsAdmin() && c.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
	}
	return c, nil
}
