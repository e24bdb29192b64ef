package service

import (
	"errors"
	"fmt"

	"storefront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrForbidden           = errors.New("you do not have access to this resource")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrProductInactive     = errors.New("product is not available")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrCartOwnerRequired   = errors.New("cart owner is required")
	ErrCouponInvalid       = errors.New("coupon is invalid or expired")
	ErrCouponMinimum       = errors.New("order amount does not reach the coupon minimum")
	ErrCouponType          = errors.New("coupon type must be percentage or fixed")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrOrderFinalized      = errors.New("order status can no longer change")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrInvalidPayment      = errors.New("invalid payment status")
	ErrCategoryHasChildren = errors.New("category has subcategories")
	ErrCategoryHasProducts = errors.New("category still has products")
	ErrCategoryParent      = errors.New("category cannot be its own parent")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrCannotDeleteSelf    = errors.New("you cannot delete your own account")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrResetTokenInvalid   = errors.New("reset token is invalid or expired")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrInvalidRole         = errors.New("role must be user or admin")
	ErrInvalidSettings     = errors.New("invalid settings")
)

// StockError reports which product blocked an order or cart change.
// It unwraps to the underlying cause so callers can match it with errors.Is.
type StockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
	Err         error
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	if errors.Is(e.Err, repository.ErrInsufficientStock) {
		return fmt.Sprintf("%s: %v (requested %d, available %d)", name, e.Err, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
