package domain

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// SettingsValues is the business configuration editable from the back office
type SettingsValues struct {
	StoreName             string            `json:"store_name"`
	ContactEmail          string            `json:"contact_email"`
	ContactPhone          string            `json:"contact_phone"`
	Address               string            `json:"address"`
	Currency              string            `json:"currency"`
	ShippingFee           decimal.Decimal   `json:"shipping_fee"`
	FreeShippingThreshold decimal.Decimal   `json:"free_shipping_threshold"`
	LowStockThreshold     int               `json:"low_stock_threshold"`
	Extra                 map[string]string `json:"extra,omitempty"`
}

// Value implements driver.Valuer
func (v SettingsValues) Value() (driver.Value, error) {
	return valueJSON(v)
}

// Scan implements sql.Scanner
func (v *SettingsValues) Scan(src interface{}) error {
	return scanJSON(src, v)
}

// DefaultSettings is what a fresh store starts with
func DefaultSettings() SettingsValues {
	return SettingsValues{
		StoreName:             "Storefront",
		Currency:              "VND",
		ShippingFee:           decimal.NewFromInt(30000),
		FreeShippingThreshold: decimal.NewFromInt(500000),
		LowStockThreshold:     5,
	}
}

// Settings is the singleton settings document
type Settings struct {
	ID        int            `json:"-" db:"id"`
	Values    SettingsValues `json:"values" db:"data"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// ShippingFeeFor returns the flat shipping fee, waived once subtotal reaches the free-shipping threshold
func (v SettingsValues) ShippingFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if v.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(v.FreeShippingThreshold) {
		return decimal.Zero
	}
	if v.ShippingFee.IsNegative() {
		return decimal.Zero
	}
	return v.ShippingFee
}
