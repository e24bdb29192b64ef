package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	maxDashboardRows = 50
	maxRevenueDays   = 365
)

// DashboardService serves the back-office overview
type DashboardService interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
	RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error)
	TopProducts(ctx context.Context, limit int) ([]*domain.TopProduct, error)
	RevenueByDay(ctx context.Context, days int) ([]*domain.DailyRevenue, error)
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	orderRepo     repository.OrderRepository
	settings      SettingsService
	now           func() time.Time
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	orderRepo repository.OrderRepository,
	settings SettingsService,
) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		orderRepo:     orderRepo,
		settings:      settings,
		now:           time.Now,
	}
}

func clampLimit(n, def, max int) int {
	if n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// Stats uses the low-stock threshold from the store settings
func (s *dashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.dashboardRepo.Stats(ctx, settings.Values.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *dashboardService) RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	orders, _, err := s.orderRepo.List(ctx, repository.OrderFilter{
		Page:     1,
		PageSize: clampLimit(limit, 10, maxDashboardRows),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	return orders, nil
}

func (s *dashboardService) TopProducts(ctx context.Context, limit int) ([]*domain.TopProduct, error) {
	products, err := s.dashboardRepo.TopProducts(ctx, clampLimit(limit, 5, maxDashboardRows))
	if err != nil {
		return nil, fmt.Errorf("failed to list top products: %w", err)
	}
	return products, nil
}

// RevenueByDay covers the last days calendar days including today
func (s *dashboardService) RevenueByDay(ctx context.Context, days int) ([]*domain.DailyRevenue, error) {
	days = clampLimit(days, 30, maxRevenueDays)
	now := s.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

	revenue, err := s.dashboardRepo.RevenueByDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	return revenue, nil
}
