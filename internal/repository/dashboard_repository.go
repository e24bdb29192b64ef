package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard
type DashboardRepository interface {
	Stats(ctx context.Context, lowStockThreshold int) (*domain.DashboardStats, error)
	TopProducts(ctx context.Context, limit int) ([]*domain.TopProduct, error)
	RevenueByDay(ctx context.Context, since time.Time) ([]*domain.DailyRevenue, error)
}

type dashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository
func NewDashboardRepository(db *sql.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// Stats computes headline counts. Revenue excludes cancelled orders.
func (r *dashboardRepository) Stats(ctx context.Context, lowStockThreshold int) (*domain.DashboardStats, error) {
	db := conn(ctx, r.db)
	stats := &domain.DashboardStats{OrdersByStatus: map[domain.OrderStatus]int{}}

	query := `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM products WHERE status = 'active' AND stock <= $1)
	`
	var revenue decimal.Decimal
	if err := db.QueryRowContext(ctx, query, lowStockThreshold).Scan(
		&stats.TotalOrders,
		&revenue,
		&stats.TotalUsers,
		&stats.TotalProducts,
		&stats.LowStockCount,
	); err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	stats.TotalRevenue = revenue

	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order status count: %w", err)
		}
		stats.OrdersByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order status counts: %w", err)
	}

	return stats, nil
}

// TopProducts ranks products by units sold, with revenue from non-cancelled orders
func (r *dashboardRepository) TopProducts(ctx context.Context, limit int) ([]*domain.TopProduct, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.images->>0, ''), p.sold,
		       COALESCE((
		           SELECT SUM(oi.price * oi.quantity)
		           FROM order_items oi JOIN orders o ON o.id = oi.order_id
		           WHERE oi.product_id = p.id AND o.status <> 'cancelled'
		       ), 0)
		FROM products p
		WHERE p.sold > 0
		ORDER BY p.sold DESC, p.name
		LIMIT $1
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top products: %w", err)
	}
	defer rows.Close()

	out := []*domain.TopProduct{}
	for rows.Next() {
		p := &domain.TopProduct{}
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Image, &p.Sold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top products: %w", err)
	}

	return out, nil
}

// RevenueByDay buckets non-cancelled orders placed since the given time by calendar day
func (r *dashboardRepository) RevenueByDay(ctx context.Context, since time.Time) ([]*domain.DailyRevenue, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= $1 AND status <> 'cancelled'
		GROUP BY day
		ORDER BY day
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue by day: %w", err)
	}
	defer rows.Close()

	out := []*domain.DailyRevenue{}
	for rows.Next() {
		d := &domain.DailyRevenue{}
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily revenue: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily revenue: %w", err)
	}

	return out, nil
}
