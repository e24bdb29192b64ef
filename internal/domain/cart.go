package domain

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartTTL is the default lifetime of an untouched cart
const CartTTL = 7 * 24 * time.Hour

// DiscountType tells how a coupon value is applied
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether t is a known discount type
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

var hundred = decimal.NewFromInt(100)

// CartItem is one line of a cart with a snapshot of the product at the time it was added
type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// LineTotal is price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItems is persisted as a JSONB array
type CartItems []CartItem

// Value implements driver.Valuer
func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return valueJSON([]CartItem(c))
}

// Scan implements sql.Scanner
func (c *CartItems) Scan(src interface{}) error {
	var out []CartItem
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*c = out
	return nil
}

// AppliedCoupon is the coupon snapshot attached to a cart
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Type     DiscountType    `json:"type"`
}

// Value implements driver.Valuer
func (c *AppliedCoupon) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return valueJSON(c)
}

// Scan implements sql.Scanner
func (c *AppliedCoupon) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// Cart is owned by either a user or an anonymous session
type Cart struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	SessionID string          `json:"session_id,omitempty" db:"session_id"`
	Items     CartItems       `json:"items" db:"items"`
	Coupon    *AppliedCoupon  `json:"coupon" db:"coupon"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	Total     decimal.Decimal `json:"total" db:"total"`
	ExpiresAt time.Time       `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Recalculate refreshes Subtotal and Total from the items and attached coupon.
// It runs before every save; the coupon is not re-validated here.
func (c *Cart) Recalculate() {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	c.Subtotal = subtotal

	total := subtotal
	if c.Coupon != nil {
		switch c.Coupon.Type {
		case DiscountPercentage:
			total = subtotal.Mul(decimal.NewFromInt(1).Sub(c.Coupon.Discount.Div(hundred)))
		case DiscountFixed:
			total = subtotal.Sub(c.Coupon.Discount)
		}
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = total
}

// ItemCount is the total number of units in the cart
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// FindItem returns the index of the line with the given id, or -1
func (c *Cart) FindItem(itemID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line for product+size+color, or -1
func (c *Cart) FindLine(productID uuid.UUID, size, color string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Size == size && item.Color == color {
			return i
		}
	}
	return -1
}

// QuantityOf sums the quantity of every line holding productID
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	n := 0
	for _, item := range c.Items {
		if item.ProductID == productID {
			n += item.Quantity
		}
	}
	return n
}

// RemoveItem drops the line at index i
func (c *Cart) RemoveItem(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Touch pushes the expiry out by ttl from now
func (c *Cart) Touch(now time.Time, ttl time.Duration) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(ttl)
}

// MergeLine adds item to the cart. A line for the same product, size and color absorbs the quantity.
// It returns the index of the affected line.
func (c *Cart) MergeLine(item CartItem) int {
	if i := c.FindLine(item.ProductID, item.Size, item.Color); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		return i
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	c.Items = append(c.Items, item)
	return len(c.Items) - 1
}
