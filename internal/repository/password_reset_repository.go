package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
)

var ErrPasswordResetNotFound = errors.New("password reset token not found")

// PasswordResetRepository stores one-shot password reset tokens
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	FindByToken(ctx context.Context, token string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, token string, usedAt time.Time) error
}

type passwordResetRepository struct {
	db *sql.DB
}

// NewPasswordResetRepository creates a new instance of PasswordResetRepository
func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// Create inserts a reset token
func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	query := `
		INSERT INTO password_resets (id, user_id, token, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		reset.ID,
		reset.UserID,
		reset.Token,
		reset.ExpiresAt,
		reset.UsedAt,
		reset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	return nil
}

// FindByToken looks up a reset token regardless of its state
func (r *passwordResetRepository) FindByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	query := `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1
	`

	reset := &domain.PasswordReset{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, token).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Token,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPasswordResetNotFound
		}
		return nil, fmt.Errorf("failed to find password reset: %w", err)
	}

	return reset, nil
}

// MarkUsed stamps the token as redeemed. Already-used tokens are left untouched.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE password_resets SET used_at = $2 WHERE token = $1 AND used_at IS NULL`, token, usedAt)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}

	return expectOneRow(result, ErrPasswordResetNotFound)
}
