package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardStats are the back-office headline numbers
type DashboardStats struct {
	TotalOrders    int                 `json:"total_orders"`
	TotalRevenue   decimal.Decimal     `json:"total_revenue"`
	TotalUsers     int                 `json:"total_users"`
	TotalProducts  int                 `json:"total_products"`
	LowStockCount  int                 `json:"low_stock_count"`
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
}

// TopProduct is a best-seller row
type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Sold      int             `json:"sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DailyRevenue is revenue and order count for one calendar day
type DailyRevenue struct {
	Day     time.Time       `json:"day"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}
