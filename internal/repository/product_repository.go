package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductSlugExists   = errors.New("product with this slug already exists")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("you have already reviewed this product")
)

// Product sort keys accepted by List
const (
	SortNewest      = "newest"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortBestSelling = "best_selling"
	SortRating      = "rating"
	SortName        = "name"
)

const effectivePrice = "COALESCE(NULLIF(discount_price, 0), price)"

var productSorts = map[string]string{
	SortNewest:      "created_at DESC",
	SortPriceAsc:    effectivePrice + " ASC",
	SortPriceDesc:   effectivePrice + " DESC",
	SortBestSelling: "sold DESC",
	SortRating:      "rating DESC",
	SortName:        "name ASC",
}

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	CategoryIDs []uuid.UUID
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Status      domain.ProductStatus
	Featured    *bool
	Sort        string
	Page        int
	PageSize    int
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	Related(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, numReviews int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, slug, description, price, discount_price, category_id, images, sizes, colors,
	stock, sold, status, featured, rating, num_reviews, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.DiscountPrice,
		&product.CategoryID,
		&product.Images,
		&product.Sizes,
		&product.Colors,
		&product.Stock,
		&product.Sold,
		&product.Status,
		&product.Featured,
		&product.Rating,
		&product.NumReviews,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func scanProducts(rows *sql.Rows) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.DiscountPrice,
		product.CategoryID,
		product.Images,
		product.Sizes,
		product.Colors,
		product.Stock,
		product.Sold,
		product.Status,
		product.Featured,
		product.Rating,
		product.NumReviews,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrProductSlugExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates the editable fields of a product. Stock counters are included so admins can restock.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, discount_price = $6, category_id = $7,
		    images = $8, sizes = $9, colors = $10, stock = $11, status = $12, featured = $13, updated_at = $14
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.DiscountPrice,
		product.CategoryID,
		product.Images,
		product.Sizes,
		product.Colors,
		product.Stock,
		product.Status,
		product.Featured,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrProductSlugExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// FindBySlug retrieves a product by its slug
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

// FindByIDForUpdate retrieves a product and locks its row until the surrounding transaction ends
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *productRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Product, error) {
	product, err := scanProduct(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

// List retrieves products with filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	orderBy, ok := productSorts[filter.Sort]
	if !ok {
		orderBy = productSorts[SortNewest]
	}

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if len(filter.CategoryIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("category_id IN (%s)", placeholders(argIndex, len(filter.CategoryIDs))))
		for _, id := range filter.CategoryIDs {
			args = append(args, id)
		}
		argIndex += len(filter.CategoryIDs)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+search+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", effectivePrice, argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", effectivePrice, argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("featured = $%d", argIndex))
		args = append(args, *filter.Featured)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s, id
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, orderBy, argIndex, argIndex+1)

	args = append(args, filter.PageSize, offset(filter.Page, filter.PageSize))

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Related returns other active products from the same category
func (r *productRepository) Related(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error) {
	if product.CategoryID == nil {
		return []*domain.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_id = $1 AND id <> $2 AND status = 'active'
		ORDER BY sold DESC, created_at DESC
		LIMIT $3
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, *product.CategoryID, product.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// CountByCategory counts the products assigned to a category
func (r *productRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count products by category: %w", err)
	}
	return n, nil
}

// DecrementStock takes quantity units out of stock and records them as sold.
// The update only applies while enough stock remains, so stock never goes negative.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, sold = sold + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	return expectOneRow(result, ErrInsufficientStock)
}

// RestoreStock puts quantity units back into stock, undoing DecrementStock
func (r *productRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, sold = GREATEST(sold - $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// UpdateRating stores the recomputed review aggregate
func (r *productRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, numReviews int) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE products SET rating = $2, num_reviews = $3 WHERE id = $1`, id, rating, numReviews)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// expectOneRow maps "no rows affected" to notFound
func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
