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

const deadlineColumns = `id, case_id, title, description, due_date, status, priority, created_at, updated_at`

// DeadlineRepository provides database access for deadlines.
type DeadlineRepository struct {
	db *sqlx.DB
}

// NewDeadlineRepository creates a new DeadlineRepository.
func NewDeadlineRepository(db *sqlx.DB) *DeadlineRepository {
	return &DeadlineRepository{db: db}
}

// ListByCase returns the deadlines of a case, soonest first.
func (r *DeadlineRepository) ListByCase(ctx context.Context, caseID string) ([]models.Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE case_id = $1 ORDER BY due_date ASC`
	var deadlines []models.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, caseID); err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	return deadlines, nil
}

// ListUpcoming returns a user's pending deadlines due in [from, until], soonest
// first. limit <= 0 means no limit.
func (r *DeadlineRepository) ListUpcoming(ctx context.Context, userID string, from, until time.Time, limit int) ([]models.DeadlineWithCase, error) {
	query := `SELECT d.id, d.case_id, d.title, d.description, d.due_date, d.status, d.priority, d.created_at, d.updated_at, c.title AS case_title FROM deadlines d JOIN cases c ON c.id = d.case_id WHERE c.user_id = $1 AND d.status = 'pending' AND d.due_date >= $2 AND d.due_date <= $3 ORDER BY d.due_date ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var deadlines []models.DeadlineWithCase
	if err := r.db.SelectContext(ctx, &deadlines, query, userID, from, until); err != nil {
		return nil, fmt.Errorf("list upcoming deadlines: %w", err)
	}
	return deadlines, nil
}

// ListAllForUser returns every deadline across a user's cases, for exports.
func (r *DeadlineRepository) ListAllForUser(ctx context.Context, userID string) ([]models.DeadlineWithCase, error) {
	const query = `SELECT d.id, d.case_id, d.title, d.description, d.due_date, d.status, d.priority, d.created_at, d.updated_at, c.title AS case_title FROM deadlines d JOIN cases c ON c.id = d.case_id WHERE c.user_id = $1 ORDER BY d.due_date ASC`
	var deadlines []models.DeadlineWithCase
	if err := r.db.SelectContext(ctx, &deadlines, query, userID); err != nil {
		return nil, fmt.Errorf("list user deadlines: %w", err)
	}
	return deadlines, nil
}

// CountOverdue counts pending deadlines of a user already past due at now.
func (r *DeadlineRepository) CountOverdue(ctx context.Context, userID string, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM deadlines d JOIN cases c ON c.id = d.case_id WHERE c.user_id = $1 AND d.status = 'pending' AND d.due_date < $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, now); err != nil {
		return 0, fmt.Errorf("count overdue deadlines: %w", err)
	}
	return total, nil
}

// FindByID returns a deadline by id.
func (r *DeadlineRepository) FindByID(ctx context.Context, id string) (*models.Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE id = $1`
	var d models.Deadline
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find deadline: %w", err)
	}
	return &d, nil
}

// Create inserts a deadline.
func (r *DeadlineRepository) Create(ctx context.Context, d *models.Deadline) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	const query = `INSERT INTO deadlines (id, case_id, title, description, due_date, status, priority, created_at, updated_at) VALUES (:id, :case_id, :title, :description, :due_date, :status, :priority, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create deadline: %w", err)
	}
	return nil
}

// Update writes every mutable column of d.
func (r *DeadlineRepository) Update(ctx context.Context, d *models.Deadline) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE deadlines SET title = :title, description = :description, due_date = :due_date, status = :status, priority = :priority, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, d)
	if err != nil {
		return fmt.Errorf("update deadline: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a deadline.
func (r *DeadlineRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deadlines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deadline: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
