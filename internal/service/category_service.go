package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryInput is the editable part of a category
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Image       string
	ParentID    *uuid.UUID
	Active      *bool
	SortOrder   int
}

// CategoryService manages the category tree
type CategoryService interface {
	ListTree(ctx context.Context) ([]*domain.CategoryNode, error)
	ListFlat(ctx context.Context) ([]*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	DescendantIDs(ctx context.Context, slug string) ([]uuid.UUID, error)
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        *cache.CategoryCache
	logger       *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService. treeCache may be nil.
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	treeCache *cache.CategoryCache,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        treeCache,
		logger:       logger,
	}
}

// ListTree returns active categories grouped under their parents
func (s *categoryService) ListTree(ctx context.Context) ([]*domain.CategoryNode, error) {
	tree, err := s.cache.GetTree(ctx)
	if err == nil {
		return tree, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Category cache read failed", zap.Error(err))
	}

	categories, err := s.categoryRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	tree = domain.BuildCategoryTree(categories)
	if err := s.cache.SetTree(ctx, tree); err != nil {
		s.logger.Warn("Category cache write failed", zap.Error(err))
	}
	return tree, nil
}

// ListFlat returns every category, active or not
func (s *categoryService) ListFlat(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// DescendantIDs resolves a slug to the category and all categories below it
func (s *categoryService) DescendantIDs(ctx context.Context, slug string) ([]uuid.UUID, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	all, err := s.categoryRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return domain.DescendantIDs(all, category.ID), nil
}

func categorySlug(input CategoryInput) string {
	if s := strings.TrimSpace(input.Slug); s != "" {
		return domain.Slugify(s)
	}
	return domain.Slugify(input.Name)
}

// Create adds a category. The slug is derived from the name unless given.
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if input.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentID); err != nil {
			return nil, fmt.Errorf("failed to find parent category: %w", err)
		}
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	now := time.Now()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Slug:        categorySlug(input),
		Description: input.Description,
		Image:       input.Image,
		ParentID:    input.ParentID,
		Active:      active,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidate(ctx)
	return category, nil
}

// Update edits a category. A category cannot be moved under itself or one of its descendants.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, ErrCategoryParent
		}
		all, err := s.categoryRepo.List(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		for _, descendant := range domain.DescendantIDs(all, id) {
			if descendant == *input.ParentID {
				return nil, ErrCategoryParent
			}
		}
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentID); err != nil {
			return nil, fmt.Errorf("failed to find parent category: %w", err)
		}
	}

	category.Name = strings.TrimSpace(input.Name)
	category.Slug = categorySlug(input)
	category.Description = input.Description
	category.Image = input.Image
	category.ParentID = input.ParentID
	if input.Active != nil {
		category.Active = *input.Active
	}
	category.SortOrder = input.SortOrder
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidate(ctx)
	return category, nil
}

// Delete removes a category that has neither subcategories nor products
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	children, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count subcategories: %w", err)
	}
	if children > 0 {
		return ErrCategoryHasChildren
	}

	products, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if products > 0 {
		return ErrCategoryHasProducts
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidate(ctx)
	return nil
}

func (s *categoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Category cache invalidation failed", zap.Error(err))
	}
}
