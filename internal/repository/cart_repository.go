package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartConflict = errors.New("owner already has a cart")
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	FindBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type cartRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewCartRepository creates a CartRepository whose saves extend a cart's life by ttl
func NewCartRepository(db *sql.DB, ttl time.Duration) CartRepository {
	if ttl <= 0 {
		ttl = domain.CartTTL
	}
	return &cartRepository{db: db, ttl: ttl, now: time.Now}
}

const cartColumns = `id, user_id, session_id, items, coupon, subtotal, total, expires_at, created_at, updated_at`

func scanCart(row rowScanner) (*domain.Cart, error) {
	cart := &domain.Cart{}
	var sessionID sql.NullString
	var coupon []byte
	err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&sessionID,
		&cart.Items,
		&coupon,
		&cart.Subtotal,
		&cart.Total,
		&cart.ExpiresAt,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cart.SessionID = sessionID.String
	if coupon != nil {
		cart.Coupon = &domain.AppliedCoupon{}
		if err := cart.Coupon.Scan(coupon); err != nil {
			return nil, fmt.Errorf("failed to decode cart coupon: %w", err)
		}
	}
	if cart.Items == nil {
		cart.Items = domain.CartItems{}
	}

	return cart, nil
}

// FindByUser returns the cart of a user. The cart may already be past its expiry.
func (r *cartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return r.findOne(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

// FindBySession returns the cart of a guest session
func (r *cartRepository) FindBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return r.findOne(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_id = $1`, sessionID)
}

func (r *cartRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Cart, error) {
	cart, err := scanCart(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return cart, nil
}

// Save recomputes the cart totals, extends its expiry and writes it.
// A new cart whose owner already has one is not written and returns ErrCartConflict;
// no statement fails, so a surrounding transaction stays usable.
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	cart.Recalculate()
	cart.Touch(r.now(), r.ttl)

	var sessionID sql.NullString
	if cart.SessionID != "" {
		sessionID = sql.NullString{String: cart.SessionID, Valid: true}
	}

	var coupon interface{}
	if cart.Coupon != nil {
		v, err := cart.Coupon.Value()
		if err != nil {
			return fmt.Errorf("failed to encode cart coupon: %w", err)
		}
		coupon = v
	}

	update := `
		UPDATE carts
		SET items = $2, coupon = $3, subtotal = $4, total = $5, expires_at = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, update,
		cart.ID,
		cart.Items,
		coupon,
		cart.Subtotal,
		cart.Total,
		cart.ExpiresAt,
		cart.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 1 {
		return nil
	}

	insert := `
		INSERT INTO carts (` + cartColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`
	result, err = conn(ctx, r.db).ExecContext(ctx, insert,
		cart.ID,
		cart.UserID,
		sessionID,
		cart.Items,
		coupon,
		cart.Subtotal,
		cart.Total,
		cart.ExpiresAt,
		cart.CreatedAt,
		cart.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return expectOneRow(result, ErrCartConflict)
}

// Delete removes a cart by id
func (r *cartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return expectOneRow(result, ErrCartNotFound)
}

// DeleteByUser removes a user's cart if there is one
func (r *cartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user cart: %w", err)
	}
	return nil
}

// DeleteExpired removes every cart whose expiry has passed and reports how many went
func (r *cartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
