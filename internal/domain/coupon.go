package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponStatus enables or disables a coupon regardless of its dates
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

// Coupon is a discount code. UsageLimit 0 means unlimited.
type Coupon struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Code           string          `json:"code" db:"code"`
	Description    string          `json:"description" db:"description"`
	Type           DiscountType    `json:"type" db:"type"`
	Value          decimal.Decimal `json:"value" db:"value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount" db:"min_order_amount"`
	ExpiryDate     time.Time       `json:"expiry_date" db:"expiry_date"`
	UsageLimit     int             `json:"usage_limit" db:"usage_limit"`
	UsedCount      int             `json:"used_count" db:"used_count"`
	Status         CouponStatus    `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// NormalizeCouponCode trims and uppercases a code the way coupons are stored
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid checks status, expiry and usage count
func (c *Coupon) IsValid(now time.Time) bool {
	if c.Status != CouponStatusActive {
		return false
	}
	if !now.Before(c.ExpiryDate) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// MeetsMinimum reports whether amount reaches the coupon's minimum order amount
func (c *Coupon) MeetsMinimum(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(c.MinOrderAmount)
}

// DiscountFor computes the discount on amount, never more than amount itself
func (c *Coupon) DiscountFor(amount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.Type {
	case DiscountPercentage:
		discount = amount.Mul(c.Value).Div(hundred)
	default:
		discount = c.Value
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// Snapshot returns the form attached to carts and orders
func (c *Coupon) Snapshot() *AppliedCoupon {
	return &AppliedCoupon{Code: c.Code, Discount: c.Value, Type: c.Type}
}
