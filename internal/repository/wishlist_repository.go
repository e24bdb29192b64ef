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

var ErrWishlistNotFound = errors.New("wishlist not found")

// WishlistRepository defines the interface for wishlist data access
type WishlistRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error)
	Create(ctx context.Context, wishlist *domain.Wishlist) error
	AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error
	RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) error
	Clear(ctx context.Context, wishlistID uuid.UUID) error
}

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new instance of WishlistRepository
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// FindByUser loads a user's wishlist with its products, most recently added first
func (r *wishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error) {
	wishlist := &domain.Wishlist{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM wishlists WHERE user_id = $1`, userID,
	).Scan(&wishlist.ID, &wishlist.UserID, &wishlist.CreatedAt, &wishlist.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to find wishlist: %w", err)
	}

	query := `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.discount_price, p.category_id, p.images, p.sizes,
		       p.colors, p.stock, p.sold, p.status, p.featured, p.rating, p.num_reviews, p.created_at, p.updated_at
		FROM wishlist_items wi
		JOIN products p ON p.id = wi.product_id
		WHERE wi.wishlist_id = $1
		ORDER BY wi.added_at DESC
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, wishlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist products: %w", err)
	}
	defer rows.Close()

	wishlist.Products, err = scanProducts(rows)
	if err != nil {
		return nil, err
	}

	return wishlist, nil
}

// Create inserts an empty wishlist
func (r *wishlistRepository) Create(ctx context.Context, wishlist *domain.Wishlist) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO wishlists (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO NOTHING`,
		wishlist.ID, wishlist.UserID, wishlist.CreatedAt, wishlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wishlist: %w", err)
	}
	return nil
}

// AddProduct saves a product. Adding the same product twice is a no-op.
func (r *wishlistRepository) AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	now := time.Now()
	db := conn(ctx, r.db)
	_, err := db.ExecContext(ctx,
		`INSERT INTO wishlist_items (wishlist_id, product_id, added_at) VALUES ($1, $2, $3)
		 ON CONFLICT (wishlist_id, product_id) DO NOTHING`,
		wishlistID, productID, now)
	if err != nil {
		return fmt.Errorf("failed to add wishlist product: %w", err)
	}
	return r.touch(ctx, wishlistID, now)
}

// RemoveProduct drops a product from the wishlist
func (r *wishlistRepository) RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2`, wishlistID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist product: %w", err)
	}
	return r.touch(ctx, wishlistID, time.Now())
}

// Clear empties the wishlist
func (r *wishlistRepository) Clear(ctx context.Context, wishlistID uuid.UUID) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = $1`, wishlistID); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return r.touch(ctx, wishlistID, time.Now())
}

func (r *wishlistRepository) touch(ctx context.Context, wishlistID uuid.UUID, now time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE wishlists SET updated_at = $2 WHERE id = $1`, wishlistID, now)
	if err != nil {
		return fmt.Errorf("failed to touch wishlist: %w", err)
	}
	return expectOneRow(result, ErrWishlistNotFound)
}
