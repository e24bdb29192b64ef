package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponAlreadyExists = errors.New("coupon with this code already exists")
	ErrCouponUsageExceeded = errors.New("coupon usage limit reached")
)

// CouponRepository defines the interface for coupon data access
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	Update(ctx context.Context, coupon *domain.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Coupon, int, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository creates a new instance of CouponRepository
func NewCouponRepository(db *sql.DB) CouponRepository {
	return &couponRepository{db: db}
}

const couponColumns = `id, code, description, type, value, min_order_amount, expiry_date, usage_limit, used_count,
	status, created_at, updated_at`

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	coupon := &domain.Coupon{}
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&coupon.Type,
		&coupon.Value,
		&coupon.MinOrderAmount,
		&coupon.ExpiryDate,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.Status,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// Create inserts a coupon. Codes are unique.
func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.Type,
		coupon.Value,
		coupon.MinOrderAmount,
		coupon.ExpiryDate,
		coupon.UsageLimit,
		coupon.UsedCount,
		coupon.Status,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "coupons_code_key") {
			return ErrCouponAlreadyExists
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// Update saves the editable fields of a coupon. UsedCount is only changed by IncrementUsage.
func (r *couponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $2, description = $3, type = $4, value = $5, min_order_amount = $6, expiry_date = $7,
		    usage_limit = $8, status = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.Type,
		coupon.Value,
		coupon.MinOrderAmount,
		coupon.ExpiryDate,
		coupon.UsageLimit,
		coupon.Status,
		coupon.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "coupons_code_key") {
			return ErrCouponAlreadyExists
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	return expectOneRow(result, ErrCouponNotFound)
}

// Delete removes a coupon
func (r *couponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	return expectOneRow(result, ErrCouponNotFound)
}

// FindByID retrieves a coupon by ID
func (r *couponRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return r.findOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
}

// FindByCode retrieves a coupon by its normalized code
func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return r.findOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, domain.NormalizeCouponCode(code))
}

func (r *couponRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Coupon, error) {
	coupon, err := scanCoupon(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}
	return coupon, nil
}

// List pages through coupons, newest first
func (r *couponRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Coupon, int, error) {
	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, offset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*domain.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, total, nil
}

// IncrementUsage records one redemption. It fails once the usage limit is reached.
func (r *couponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	return expectOneRow(result, ErrCouponUsageExceeded)
}
