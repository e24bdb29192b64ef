package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// WishlistService manages each customer's saved products
type WishlistService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*domain.Wishlist, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*domain.Wishlist, error)
	Clear(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService creates a new instance of WishlistService
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

// Get returns the user's wishlist, creating it on first use
func (s *wishlistService) Get(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error) {
	wishlist, err := s.wishlistRepo.FindByUser(ctx, userID)
	if err == nil {
		return wishlist, nil
	}
	if !errors.Is(err, repository.ErrWishlistNotFound) {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	now := time.Now()
	created := &domain.Wishlist{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := s.wishlistRepo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create wishlist: %w", err)
	}

	// Re-read: a concurrent request may have created it first.
	wishlist, err = s.wishlistRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return wishlist, nil
}

// Add saves a product. Adding it twice has no effect.
func (s *wishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*domain.Wishlist, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	wishlist, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wishlist.Contains(productID) {
		return wishlist, nil
	}

	if err := s.wishlistRepo.AddProduct(ctx, wishlist.ID, productID); err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) (*domain.Wishlist, error) {
	wishlist, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.wishlistRepo.RemoveProduct(ctx, wishlist.ID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *wishlistService) Clear(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error) {
	wishlist, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.wishlistRepo.Clear(ctx, wishlist.ID); err != nil {
		return nil, fmt.Errorf("failed to clear wishlist: %w", err)
	}
	wishlist.Products = []*domain.Product{}
	return wishlist, nil
}
