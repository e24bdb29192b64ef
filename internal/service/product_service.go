package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidPrice         = errors.New("price cannot be negative")
	ErrInvalidDiscountPrice = errors.New("discount price must be lower than price")
)

const relatedProductsLimit = 8

// ProductQuery narrows a catalog listing
type ProductQuery struct {
	CategorySlug    string
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Status          domain.ProductStatus
	Featured        *bool
	Sort            string
	Page            int
	PageSize        int
	IncludeInactive bool
}

// ProductInput is the editable part of a product
type ProductInput struct {
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	CategoryID    *uuid.UUID
	Images        []string
	Sizes         []string
	Colors        []string
	Stock         int
	Status        domain.ProductStatus
	Featured      bool
}

// ReviewInput is a customer's rating of a product
type ReviewInput struct {
	Rating  int
	Comment string
}

// ProductService manages the catalog
type ProductService interface {
	List(ctx context.Context, query ProductQuery) ([]*domain.Product, int, error)
	Get(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error)
	Related(ctx context.Context, id uuid.UUID) ([]*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, productID, userID uuid.UUID, input ReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, productID, reviewID, actorID uuid.UUID, isAdmin bool) error
}

type productService struct {
	productRepo     repository.ProductRepository
	reviewRepo      repository.ReviewRepository
	userRepo        repository.UserRepository
	categoryService CategoryService
	tx              repository.Transactor
	logger          *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	categoryService CategoryService,
	tx repository.Transactor,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:     productRepo,
		reviewRepo:      reviewRepo,
		userRepo:        userRepo,
		categoryService: categoryService,
		tx:              tx,
		logger:          logger,
	}
}

// List returns one page of products. A category slug includes every subcategory.
func (s *productService) List(ctx context.Context, query ProductQuery) ([]*domain.Product, int, error) {
	page, pageSize := NormalizePage(query.Page, query.PageSize)
	filter := repository.ProductFilter{
		Search:   query.Search,
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		Status:   query.Status,
		Featured: query.Featured,
		Sort:     query.Sort,
		Page:     page,
		PageSize: pageSize,
	}
	if !query.IncludeInactive {
		filter.Status = domain.ProductStatusActive
	}

	if slug := strings.TrimSpace(query.CategorySlug); slug != "" {
		ids, err := s.categoryService.DescendantIDs(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return []*domain.Product{}, 0, nil
			}
			return nil, 0, err
		}
		filter.CategoryIDs = ids
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Get finds a product by id or slug and attaches its reviews
func (s *productService) Get(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error) {
	var (
		product *domain.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.productRepo.FindByID(ctx, id)
	} else {
		product, err = s.productRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if !includeInactive && !product.IsActive() {
		return nil, repository.ErrProductNotFound
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	product.Reviews = reviews

	return product, nil
}

// Related lists active products from the same category
func (s *productService) Related(ctx context.Context, id uuid.UUID) ([]*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	related, err := s.productRepo.Related(ctx, product, relatedProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}
	return related, nil
}

func validateProductInput(input ProductInput) error {
	if input.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if input.DiscountPrice != nil && (input.DiscountPrice.IsNegative() || input.DiscountPrice.GreaterThanOrEqual(input.Price)) {
		return ErrInvalidDiscountPrice
	}
	if input.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidQuantity)
	}
	return nil
}

func applyProductInput(product *domain.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.DiscountPrice = decimal.NullDecimal{}
	if input.DiscountPrice != nil && input.DiscountPrice.IsPositive() {
		product.DiscountPrice = decimal.NewNullDecimal(*input.DiscountPrice)
	}
	product.CategoryID = input.CategoryID
	product.Images = domain.StringList(input.Images)
	product.Sizes = domain.StringList(input.Sizes)
	product.Colors = domain.StringList(input.Colors)
	product.Stock = input.Stock
	product.Status = input.Status
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}
	product.Featured = input.Featured
}

// Create adds a product. A slug derived from the name gets a suffix when already taken.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductInput(product, input)

	explicitSlug := strings.TrimSpace(input.Slug) != ""
	if explicitSlug {
		product.Slug = domain.Slugify(input.Slug)
	} else {
		product.Slug = domain.Slugify(input.Name)
	}

	err := s.productRepo.Create(ctx, product)
	if errors.Is(err, repository.ErrProductSlugExists) && !explicitSlug {
		product.Slug = product.Slug + "-" + product.ID.String()[:6]
		err = s.productRepo.Create(ctx, product)
	}
	if err != nil {
		if errors.Is(err, repository.ErrProductSlugExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	return product, nil
}

// Update replaces the editable fields. Sold, rating and review count are untouched.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	applyProductInput(product, input)
	if slug := strings.TrimSpace(input.Slug); slug != "" {
		product.Slug = domain.Slugify(slug)
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductSlugExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AddReview records one review per user per product and refreshes the product rating
func (s *productService) AddReview(ctx context.Context, productID, userID uuid.UUID, input ReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		UserName:  strings.TrimSpace(user.FirstName + " " + user.LastName),
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: time.Now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.productRepo.FindByIDForUpdate(ctx, productID); err != nil {
			return err
		}
		if err := s.reviewRepo.Create(ctx, review); err != nil {
			return err
		}
		return s.refreshRating(ctx, productID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrReviewAlreadyExists) || errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	return review, nil
}

// DeleteReview removes a review. Only its author or an admin may do so.
func (s *productService) DeleteReview(ctx context.Context, productID, reviewID, actorID uuid.UUID, isAdmin bool) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		review, err := s.reviewRepo.FindByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.ProductID != productID {
			return repository.ErrReviewNotFound
		}
		if review.UserID != actorID && !isAdmin {
			return ErrForbidden
		}
		if _, err := s.productRepo.FindByIDForUpdate(ctx, productID); err != nil {
			return err
		}
		if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
			return err
		}
		return s.refreshRating(ctx, productID)
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) || errors.Is(err, repository.ErrReviewNotFound) || errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *productService) refreshRating(ctx context.Context, productID uuid.UUID) error {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.productRepo.UpdateRating(ctx, productID, domain.AverageRating(reviews), len(reviews))
}
