package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

const caseColumns = `id, user_id, title, case_number, client_name, jurisdiction, court, case_type, status, priority, description, filing_date, next_hearing_date, created_at, updated_at`

// CaseRepository provides database access for cases.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// List returns a page of cases matching filter and the total count.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	baseQuery := `FROM cases WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = "+placeholder(args))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+placeholder(args))
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = "+placeholder(args))
		args = append(args, *filter.Priority)
	}
	if filter.Search != "" {
		p := placeholder(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(COALESCE(case_number, '')) LIKE %s OR LOWER(COALESCE(client_name, '')) LIKE %s)", p, p, p))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderBy(filter.SortBy, filter.SortOrder, "created_at", map[string]bool{
		"title":             true,
		"created_at":        true,
		"updated_at":        true,
		"next_hearing_date": true,
		"priority":          true,
		"status":            true,
	})
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s %s %s LIMIT %d OFFSET %d", caseColumns, baseQuery, order, size, offset)
	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}
	return cases, total, nil
}

// ListAll returns every case of a user ordered by title, for exports.
func (r *CaseRepository) ListAll(ctx context.Context, userID string) ([]models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE user_id = $1 ORDER BY title ASC`
	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, query, userID); err != nil {
		return nil, fmt.Errorf("list all cases: %w", err)
	}
	return cases, nil
}

// FindByID returns a case by id.
func (r *CaseRepository) FindByID(ctx context.Context, id string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find case: %w", err)
	}
	return &c, nil
}

// Create inserts a case.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	const query = `INSERT INTO cases (id, user_id, title, case_number, client_name, jurisdiction, court, case_type, status, priority, description, filing_date, next_hearing_date, created_at, updated_at) VALUES (:id, :user_id, :title, :case_number, :client_name, :jurisdiction, :court, :case_type, :status, :priority, :description, :filing_date, :next_hearing_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// Update writes every mutable column of c.
func (r *CaseRepository) Update(ctx context.Context, c *models.Case) error {
	c.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cases SET title = :title, case_number = :case_number, client_name = :client_name, jurisdiction = :jurisdiction, court = :court, case_type = :case_type, status = :status, priority = :priority, description = :description, filing_date = :filing_date, next_hearing_date = :next_hearing_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a case; motions and deadlines cascade.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus groups a user's cases by status.
func (r *CaseRepository) CountByStatus(ctx context.Context, userID string) ([]models.CaseCount, error) {
	return r.countBy(ctx, "status", userID)
}

// CountByPriority groups a user's cases by priority.
func (r *CaseRepository) CountByPriority(ctx context.Context, userID string) ([]models.CaseCount, error) {
	return r.countBy(ctx, "priority", userID)
}

func (r *CaseRepository) countBy(ctx context.Context, column, userID string) ([]models.CaseCount, error) {
	query := fmt.Sprintf(`SELECT %s AS key, COUNT(*) AS count FROM cases WHERE user_id = $1 GROUP BY %s`, column, column)
	var counts []models.CaseCount
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("count cases by %s: %w", column, err)
	}
	return counts, nil
}
