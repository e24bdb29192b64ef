package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus controls whether a product can be sold
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product represents a product in the catalog
type Product struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	Name          string              `json:"name" db:"name"`
	Slug          string              `json:"slug" db:"slug"`
	Description   string              `json:"description" db:"description"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price" db:"discount_price"`
	CategoryID    *uuid.UUID          `json:"category_id" db:"category_id"`
	Images        StringList          `json:"images" db:"images"`
	Sizes         StringList          `json:"sizes" db:"sizes"`
	Colors        StringList          `json:"colors" db:"colors"`
	Stock         int                 `json:"stock" db:"stock"`
	Sold          int                 `json:"sold" db:"sold"`
	Status        ProductStatus       `json:"status" db:"status"`
	Featured      bool                `json:"featured" db:"featured"`
	Rating        float64             `json:"rating" db:"rating"`
	NumReviews    int                 `json:"num_reviews" db:"num_reviews"`
	Reviews       []*Review           `json:"reviews,omitempty" db:"-"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// UnitPrice is the price charged per unit: the discount price when one is set, otherwise the list price.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// IsActive reports whether the product is on sale
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// FirstImage returns the product's primary image or ""
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Review is a customer rating of a product
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AverageRating returns the mean rating of reviews rounded to one decimal place
func AverageRating(reviews []*Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return float64(int(avg*10+0.5)) / 10
}
