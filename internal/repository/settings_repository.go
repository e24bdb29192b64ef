package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/domain"
)

// settingsRowID is the primary key of the singleton settings row
const settingsRowID = 1

// SettingsRepository stores the singleton settings document
type SettingsRepository interface {
	GetOrCreate(ctx context.Context, defaults domain.SettingsValues) (*domain.Settings, error)
	Update(ctx context.Context, settings *domain.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetOrCreate returns the settings row, inserting defaults first if none exists
func (r *settingsRepository) GetOrCreate(ctx context.Context, defaults domain.SettingsValues) (*domain.Settings, error) {
	db := conn(ctx, r.db)
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (id, data, updated_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		settingsRowID, defaults, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to initialise settings: %w", err)
	}

	settings := &domain.Settings{}
	err = db.QueryRowContext(ctx, `SELECT id, data, updated_at FROM settings WHERE id = $1`, settingsRowID).
		Scan(&settings.ID, &settings.Values, &settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return settings, nil
}

// Update overwrites the settings values
func (r *settingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO settings (id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		settingsRowID, settings.Values, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	settings.ID = settingsRowID
	return nil
}
