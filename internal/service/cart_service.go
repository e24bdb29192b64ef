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
	"go.uber.org/zap"
)

// CartOwner identifies a cart by user or, for guests, by session id
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID string
}

func (o CartOwner) String() string {
	if o.UserID != nil {
		return "user:" + o.UserID.String()
	}
	return "session:" + o.SessionID
}

// AddItemInput describes a product line to put in the cart
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Size      string
	Color     string
}

// CartService manages shopping carts for users and guests
type CartService interface {
	GetCart(ctx context.Context, owner CartOwner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner CartOwner, input AddItemInput) (*domain.Cart, error)
	UpdateItem(ctx context.Context, owner CartOwner, itemID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner CartOwner, itemID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, owner CartOwner) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, owner CartOwner, code string) (*domain.Cart, error)
	RemoveCoupon(ctx context.Context, owner CartOwner) (*domain.Cart, error)
	SyncCart(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Cart, error)
}

type cartService struct {
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	couponService CouponService
	tx            repository.Transactor
	logger        *zap.Logger
	now           func() time.Time
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponService CouponService,
	tx repository.Transactor,
	logger *zap.Logger,
) CartService {
	return &cartService{
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		couponService: couponService,
		tx:            tx,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *cartService) find(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	switch {
	case owner.UserID != nil:
		return s.cartRepo.FindByUser(ctx, *owner.UserID)
	case strings.TrimSpace(owner.SessionID) != "":
		return s.cartRepo.FindBySession(ctx, owner.SessionID)
	default:
		return nil, ErrCartOwnerRequired
	}
}

// load returns the owner's cart, creating it when missing. An expired cart is emptied and reused.
func (s *cartService) load(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	cart, err := s.find(ctx, owner)
	if err == nil {
		if !cart.ExpiresAt.After(s.now()) {
			cart.Items = domain.CartItems{}
			cart.Coupon = nil
			cart.CreatedAt = s.now()
		}
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, err
	}

	cart = &domain.Cart{
		ID:    uuid.New(),
		Items: domain.CartItems{},
	}
	if owner.UserID != nil {
		id := *owner.UserID
		cart.UserID = &id
	} else {
		cart.SessionID = owner.SessionID
	}

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrCartConflict) {
			// Created concurrently by another request.
			return s.find(ctx, owner)
		}
		return nil, err
	}
	return cart, nil
}

// GetCart returns the owner's cart, creating an empty one on first use
func (s *cartService) GetCart(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	cart.Recalculate()
	return cart, nil
}

func (s *cartService) sellable(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &StockError{ProductID: productID, Err: err}
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !product.IsActive() {
		return nil, &StockError{ProductID: product.ID, ProductName: product.Name, Err: ErrProductInactive}
	}
	return product, nil
}

func checkStock(product *domain.Product, requested int) error {
	if requested > product.Stock {
		return &StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   requested,
			Available:   product.Stock,
			Err:         repository.ErrInsufficientStock,
		}
	}
	return nil
}

// AddItem puts a product in the cart, merging with an existing line of the same size and color
func (s *cartService) AddItem(ctx context.Context, owner CartOwner, input AddItemInput) (*domain.Cart, error) {
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.sellable(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if err := checkStock(product, cart.QuantityOf(product.ID)+input.Quantity); err != nil {
		return nil, err
	}

	cart.MergeLine(domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.UnitPrice(),
		Image:     product.FirstImage(),
		Quantity:  input.Quantity,
		Size:      strings.TrimSpace(input.Size),
		Color:     strings.TrimSpace(input.Color),
	})

	return s.save(ctx, cart)
}

// UpdateItem sets a line's quantity. Zero or less removes the line.
func (s *cartService) UpdateItem(ctx context.Context, owner CartOwner, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	i := cart.FindItem(itemID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}

	if quantity <= 0 {
		cart.RemoveItem(i)
		return s.save(ctx, cart)
	}

	product, err := s.sellable(ctx, cart.Items[i].ProductID)
	if err != nil {
		return nil, err
	}
	requested := cart.QuantityOf(product.ID) - cart.Items[i].Quantity + quantity
	if err := checkStock(product, requested); err != nil {
		return nil, err
	}

	cart.Items[i].Quantity = quantity
	return s.save(ctx, cart)
}

// RemoveItem drops a line from the cart
func (s *cartService) RemoveItem(ctx context.Context, owner CartOwner, itemID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	i := cart.FindItem(itemID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	cart.RemoveItem(i)

	return s.save(ctx, cart)
}

// Clear empties the cart and drops its coupon
func (s *cartService) Clear(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart.Items = domain.CartItems{}
	cart.Coupon = nil
	return s.save(ctx, cart)
}

// ApplyCoupon validates a code against the current subtotal and attaches it.
// Later cart changes do not re-validate the coupon.
func (s *cartService) ApplyCoupon(ctx context.Context, owner CartOwner, code string) (*domain.Cart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrCouponMinimum)
	}

	cart.Recalculate()
	coupon, err := s.couponService.Resolve(ctx, code, cart.Subtotal)
	if err != nil {
		return nil, err
	}

	cart.Coupon = coupon.Snapshot()
	return s.save(ctx, cart)
}

// RemoveCoupon detaches the coupon
func (s *cartService) RemoveCoupon(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart.Coupon = nil
	return s.save(ctx, cart)
}

// SyncCart merges a guest cart into the user's cart after login and deletes the guest cart.
// Quantities are capped at stock; missing or inactive products are dropped.
func (s *cartService) SyncCart(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Cart, error) {
	var merged *domain.Cart

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.load(ctx, CartOwner{UserID: &userID})
		if err != nil {
			return err
		}
		merged = cart

		if strings.TrimSpace(sessionID) == "" {
			return nil
		}

		guest, err := s.cartRepo.FindBySession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrCartNotFound) {
				return nil
			}
			return err
		}
		if guest.ID == cart.ID {
			return nil
		}

		if guest.ExpiresAt.After(s.now()) {
			if err := s.mergeInto(ctx, cart, guest); err != nil {
				return err
			}
		}

		if err := s.cartRepo.Delete(ctx, guest.ID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
			return err
		}
		return s.cartRepo.Save(ctx, cart)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sync cart: %w", err)
	}

	merged.Recalculate()
	return merged, nil
}

func (s *cartService) mergeInto(ctx context.Context, cart, guest *domain.Cart) error {
	for _, item := range guest.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return err
		}
		if !product.IsActive() {
			continue
		}

		available := product.Stock - cart.QuantityOf(product.ID)
		qty := item.Quantity
		if qty > available {
			qty = available
		}
		if qty <= 0 {
			continue
		}

		item.Quantity = qty
		item.Price = product.UnitPrice()
		item.ID = uuid.Nil
		cart.MergeLine(item)
	}

	if cart.Coupon == nil && guest.Coupon != nil {
		cart.Coupon = guest.Coupon
	}
	return nil
}

func (s *cartService) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("cart_id", cart.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}
