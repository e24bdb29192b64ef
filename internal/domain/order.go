package domain

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is a step in the order lifecycle
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses is the allow-list admins may set
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipping,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is in the allow-list
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CancellableByOwner reports whether the customer may still cancel
func (s OrderStatus) CancellableByOwner() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// PaymentStatus tracks whether the order has been paid
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

const (
	PaymentCOD          = "cod"
	PaymentBankTransfer = "bank_transfer"
	PaymentCard         = "card"
)

// ShippingAddress is stored on the order as JSONB
type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city" validate:"required"`
}

// Value implements driver.Valuer
func (a ShippingAddress) Value() (driver.Value, error) {
	return valueJSON(a)
}

// Scan implements sql.Scanner
func (a *ShippingAddress) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// OrderItem is a snapshot of a purchased product line
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Image     string          `json:"image" db:"image"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Size      string          `json:"size,omitempty" db:"size"`
	Color     string          `json:"color,omitempty" db:"color"`
}

// LineTotal is price times quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is an immutable-once-placed purchase with a status lifecycle
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Items           []*OrderItem    `json:"items" db:"-"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	ShippingMethod  string          `json:"shipping_method" db:"shipping_method"`
	ShippingFee     decimal.Decimal `json:"shipping_fee" db:"shipping_fee"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	Coupon          *AppliedCoupon  `json:"coupon" db:"coupon"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	Note            string          `json:"note" db:"note"`
	CancelReason    string          `json:"cancel_reason,omitempty" db:"cancel_reason"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderTotal is subtotal + shipping - discount, floored at zero
func OrderTotal(subtotal, shippingFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shippingFee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// NewOrderNumber builds a human-friendly order reference
func NewOrderNumber(now time.Time, id uuid.UUID) string {
	return "ORD-" + now.Format("20060102") + "-" + id.String()[:8]
}
