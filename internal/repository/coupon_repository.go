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

const couponColumns = `id, code, description, discount_type, discount_value, max_uses, current_uses, valid_from, valid_until, applicable_plans, is_active, created_by, created_at, updated_at`

// CouponRepository provides database access for coupon codes and their redemptions.
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository creates a new CouponRepository.
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// FindByCode looks a coupon up by code, ignoring case.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.CouponCode, error) {
	query := `SELECT ` + couponColumns + ` FROM coupon_codes WHERE code = UPPER($1) LIMIT 1`
	var c models.CouponCode
	if err := r.db.GetContext(ctx, &c, query, strings.TrimSpace(code)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find coupon by code: %w", err)
	}
	return &c, nil
}

// FindByID returns a coupon by id.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*models.CouponCode, error) {
	query := `SELECT ` + couponColumns + ` FROM coupon_codes WHERE id = $1`
	var c models.CouponCode
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &c, nil
}

// ExistsByCode reports whether a code is already taken.
func (r *CouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM coupon_codes WHERE code = $1)`, code); err != nil {
		return false, fmt.Errorf("check coupon code: %w", err)
	}
	return exists, nil
}

// HasUserRedeemed reports whether userID already used the coupon.
func (r *CouponRepository) HasUserRedeemed(ctx context.Context, couponID, userID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2)`, couponID, userID); err != nil {
		return false, fmt.Errorf("check coupon usage: %w", err)
	}
	return exists, nil
}

// List returns a page of coupons and the total count.
func (r *CouponRepository) List(ctx context.Context, filter models.CouponFilter) ([]models.CouponCode, int, error) {
	baseQuery := `FROM coupon_codes WHERE 1=1`
	var conditions []string
	var args []interface{}
	if filter.Active != nil {
		conditions = append(conditions, "is_active = "+placeholder(args))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		p := placeholder(args)
		conditions = append(conditions, fmt.Sprintf("(code LIKE %s OR LOWER(COALESCE(description, '')) LIKE LOWER(%s))", p, p))
		args = append(args, "%"+strings.ToUpper(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderBy(filter.SortBy, filter.SortOrder, "created_at", map[string]bool{
		"code":         true,
		"created_at":   true,
		"valid_until":  true,
		"current_uses": true,
	})
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	var coupons []models.CouponCode
	listQuery := fmt.Sprintf("SELECT %s %s %s LIMIT %d OFFSET %d", couponColumns, baseQuery, order, size, offset)
	if err := r.db.SelectContext(ctx, &coupons, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}
	return coupons, total, nil
}

// Create inserts a coupon. The code is stored upper-case.
func (r *CouponRepository) Create(ctx context.Context, c *models.CouponCode) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.Code = strings.ToUpper(c.Code)
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ValidFrom.IsZero() {
		c.ValidFrom = now
	}
	const query = `INSERT INTO coupon_codes (id, code, description, discount_type, discount_value, max_uses, current_uses, valid_from, valid_until, applicable_plans, is_active, created_by, created_at, updated_at) VALUES (:id, :code, :description, :discount_type, :discount_value, :max_uses, :current_uses, :valid_from, :valid_until, :applicable_plans, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// Update writes the mutable columns of c. Code and usage counters are immutable here.
func (r *CouponRepository) Update(ctx context.Context, c *models.CouponCode) error {
	c.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coupon_codes SET description = :description, discount_type = :discount_type, discount_value = :discount_value, max_uses = :max_uses, valid_from = :valid_from, valid_until = :valid_until, applicable_plans = :applicable_plans, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUsage returns the redemptions of a coupon, newest first.
func (r *CouponRepository) ListUsage(ctx context.Context, couponID string) ([]models.CouponUsage, error) {
	const query = `SELECT id, coupon_id, user_id, order_amount, discount_amount, final_amount, plan, used_at FROM coupon_usage WHERE coupon_id = $1 ORDER BY used_at DESC`
	var usages []models.CouponUsage
	if err := r.db.SelectContext(ctx, &usages, query, couponID); err != nil {
		return nil, fmt.Errorf("list coupon usage: %w", err)
	}
	return usages, nil
}

// Redeem records a usage inside a transaction. The coupon row is locked with
// FOR UPDATE and handed to check, so concurrent redemptions are serialised and
// see each other's counters.
func (r *CouponRepository) Redeem(ctx context.Context, couponID string, usage *models.CouponUsage, check func(*models.CouponCode, bool) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin redeem coupon: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var coupon models.CouponCode
	if err := tx.GetContext(ctx, &coupon, `SELECT `+couponColumns+` FROM coupon_codes WHERE id = $1 FOR UPDATE`, couponID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock coupon: %w", err)
	}
	var used bool
	if err := tx.GetContext(ctx, &used, `SELECT EXISTS(SELECT 1 FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2)`, couponID, usage.UserID); err != nil {
		return fmt.Errorf("check coupon usage: %w", err)
	}
	if err := check(&coupon, used); err != nil {
		return err
	}

	if usage.ID == "" {
		usage.ID = uuid.NewString()
	}
	if usage.UsedAt.IsZero() {
		usage.UsedAt = time.Now().UTC()
	}
	usage.CouponID = couponID
	const insertUsage = `INSERT INTO coupon_usage (id, coupon_id, user_id, order_amount, discount_amount, final_amount, plan, used_at) VALUES (:id, :coupon_id, :user_id, :order_amount, :discount_amount, :final_amount, :plan, :used_at)`
	if _, err := tx.NamedExecContext(ctx, insertUsage, usage); err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE coupon_codes SET current_uses = current_uses + 1, updated_at = $2 WHERE id = $1`, couponID, usage.UsedAt); err != nil {
		return fmt.Errorf("increment coupon uses: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit redeem coupon: %w", err)
	}
	return nil
}
