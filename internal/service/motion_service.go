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

type motionRepository interface {
	ListByCase(ctx context.Context, caseID string) ([]models.Motion, error)
	FindByID(ctx context.Context, id string) (*models.Motion, error)
	Create(ctx context.Context, m *models.Motion) error
	Update(ctx context.Context, m *models.Motion) error
	Delete(ctx context.Context, id string) error
}

// MotionService manages motions filed on a case.
type MotionService struct {
	repo      motionRepository
	cases     caseFinder
	cache     dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMotionService constructs a MotionService.
func NewMotionService(repo motionRepository, cases caseFinder, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *MotionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MotionService{repo: repo, cases: cases, cache: cache, validator: validate, logger: logger}
}

// ListByCase returns the motions of a case visible to actor.
func (s *MotionService) ListByCase(ctx context.Context, actor Actor, caseID string) ([]models.Motion, error) {
	if _, err := authorizeCase(ctx, s.cases, actor, caseID); err != nil {
		return nil, err
	}
	motions, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list motions")
	}
	if motions == nil {
		motions = []models.Motion{}
	}
	return motions, nil
}

// Create adds a motion to a case.
func (s *MotionService) Create(ctx context.Context, actor Actor, caseID string, req dto.CreateMotionRequest) (*models.Motion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid motion payload")
	}
	c, err := authorizeCase(ctx, s.cases, actor, caseID)
	if err != nil {
		return nil, err
	}
	m := &models.Motion{
		CaseID:      c.ID,
		Title:       strings.TrimSpace(req.Title),
		MotionType:  req.MotionType,
		Status:      models.MotionStatus(req.Status),
		FiledDate:   req.FiledDate,
		HearingDate: req.HearingDate,
		Notes:       req.Notes,
	}
	if m.Status == "" {
		m.Status = models.MotionStatusDraft
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create motion")
	}
	s.invalidate(ctx, c.UserID)
	return m, nil
}

// Update applies a partial update to a motion.
func (s *MotionService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateMotionRequest) (*models.Motion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid motion payload")
	}
	m, owner, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		m.Title = strings.TrimSpace(*req.Title)
	}
	if req.MotionType != nil {
		m.MotionType = req.MotionType
	}
	if req.Status != nil {
		m.Status = models.MotionStatus(*req.Status)
	}
	if req.FiledDate != nil {
		m.FiledDate = req.FiledDate
	}
	if req.HearingDate != nil {
		m.HearingDate = req.HearingDate
	}
	if req.Notes != nil {
		m.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "motion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update motion")
	}
	s.invalidate(ctx, owner)
	return m, nil
}

// Delete removes a motion.
func (s *MotionService) Delete(ctx context.Context, actor Actor, id string) error {
	_, owner, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "motion not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete motion")
	}
	s.invalidate(ctx, owner)
	return nil
}

func (s *MotionService) load(ctx context.Context, actor Actor, id string) (*models.Motion, string, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "motion not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load motion")
	}
	c, err := authorizeCase(ctx, s.cases, actor, m.CaseID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "motion not found")
		}
		return nil, "", err
	}
	return m, c.UserID, nil
}

func (s *MotionService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.InvalidateDashboard(ctx, userID)
	}
}
