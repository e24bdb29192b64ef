package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// SettingsService reads and edits the store settings singleton
type SettingsService interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, values domain.SettingsValues) (*domain.Settings, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

// Get returns the settings, creating them with defaults on first access
func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx, domain.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, values domain.SettingsValues) (*domain.Settings, error) {
	if values.ShippingFee.IsNegative() || values.FreeShippingThreshold.IsNegative() || values.LowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: amounts and thresholds cannot be negative", ErrInvalidSettings)
	}
	values.Currency = strings.ToUpper(strings.TrimSpace(values.Currency))
	if values.Currency == "" {
		values.Currency = domain.DefaultSettings().Currency
	}

	settings := &domain.Settings{Values: values, UpdatedAt: time.Now()}
	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}
