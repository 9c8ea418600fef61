package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

const motionColumns = `id, case_id, title, motion_type, status, filed_date, hearing_date, notes, created_at, updated_at`

// MotionRepository provides database access for motions.
type MotionRepository struct {
	db *sqlx.DB
}

// NewMotionRepository creates a new MotionRepository.
func NewMotionRepository(db *sqlx.DB) *MotionRepository {
	return &MotionRepository{db: db}
}

// ListByCase returns the motions of a case, newest first.
func (r *MotionRepository) ListByCase(ctx context.Context, caseID string) ([]models.Motion, error) {
	query := `SELECT ` + motionColumns + ` FROM motions WHERE case_id = $1 ORDER BY created_at DESC`
	var motions []models.Motion
	if err := r.db.SelectContext(ctx, &motions, query, caseID); err != nil {
		return nil, fmt.Errorf("list motions: %w", err)
	}
	return motions, nil
}

// FindByID returns a motion by id.
func (r *MotionRepository) FindByID(ctx context.Context, id string) (*models.Motion, error) {
	query := `SELECT ` + motionColumns + ` FROM motions WHERE id = $1`
	var m models.Motion
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find motion: %w", err)
	}
	return &m, nil
}

// Create inserts a motion.
func (r *MotionRepository) Create(ctx context.Context, m *models.Motion) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	const query = `INSERT INTO motions (id, case_id, title, motion_type, status, filed_date, hearing_date, notes, created_at, updated_at) VALUES (:id, :case_id, :title, :motion_type, :status, :filed_date, :hearing_date, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create motion: %w", err)
	}
	return nil
}

// Update writes every mutable column of m.
func (r *MotionRepository) Update(ctx context.Context, m *models.Motion) error {
	m.UpdatedAt = time.Now().UTC()
	const query = `UPDATE motions SET title = :title, motion_type = :motion_type, status = :status, filed_date = :filed_date, hearing_date = :hearing_date, notes = :notes, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("update motion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a motion.
func (r *MotionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM motions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete motion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus groups the motions of a user's cases by status.
func (r *MotionRepository) CountByStatus(ctx context.Context, userID string) ([]models.CaseCount, error) {
	const query = `SELECT m.status AS key, COUNT(*) AS count FROM motions m JOIN cases c ON c.id = m.case_id WHERE c.user_id = $1 GROUP BY m.status`
	var counts []models.CaseCount
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("count motions by status: %w", err)
	}
	return counts, nil
}
