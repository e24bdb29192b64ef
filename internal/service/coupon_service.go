package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponValidation is the result of checking a code against an amount
type CouponValidation struct {
	Code        string              `json:"code"`
	Type        domain.DiscountType `json:"type"`
	Value       decimal.Decimal     `json:"value"`
	Discount    decimal.Decimal     `json:"discount"`
	FinalAmount decimal.Decimal     `json:"final_amount"`
}

// CouponInput is the editable part of a coupon
type CouponInput struct {
	Code           string
	Description    string
	Type           domain.DiscountType
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	ExpiryDate     time.Time
	UsageLimit     int
	Status         domain.CouponStatus
}

// CouponService validates and manages discount codes
type CouponService interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*CouponValidation, error)
	Resolve(ctx context.Context, code string, amount decimal.Decimal) (*domain.Coupon, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Coupon, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	Create(ctx context.Context, input CouponInput) (*domain.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input CouponInput) (*domain.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type couponService struct {
	couponRepo repository.CouponRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewCouponService creates a new instance of CouponService
func NewCouponService(couponRepo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponService{couponRepo: couponRepo, logger: logger, now: time.Now}
}

// Resolve looks a code up and checks it can be used on amount. Usage is not recorded.
func (s *couponService) Resolve(ctx context.Context, code string, amount decimal.Decimal) (*domain.Coupon, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	if !coupon.IsValid(s.now()) {
		return nil, ErrCouponInvalid
	}
	if !coupon.MeetsMinimum(amount) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrCouponMinimum, coupon.MinOrderAmount.StringFixed(0))
	}

	return coupon, nil
}

// Validate reports the discount a code would give on amount
func (s *couponService) Validate(ctx context.Context, code string, amount decimal.Decimal) (*CouponValidation, error) {
	coupon, err := s.Resolve(ctx, code, amount)
	if err != nil {
		return nil, err
	}

	discount := coupon.DiscountFor(amount)
	return &CouponValidation{
		Code:        coupon.Code,
		Type:        coupon.Type,
		Value:       coupon.Value,
		Discount:    discount,
		FinalAmount: amount.Sub(discount),
	}, nil
}

func (s *couponService) List(ctx context.Context, page, pageSize int) ([]*domain.Coupon, int, error) {
	page, pageSize = NormalizePage(page, pageSize)
	coupons, total, err := s.couponRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, total, nil
}

func (s *couponService) Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return coupon, nil
}

func validateCouponInput(input CouponInput) error {
	if !input.Type.Valid() {
		return ErrCouponType
	}
	if !input.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive", ErrCouponInvalid)
	}
	if input.Type == domain.DiscountPercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrCouponInvalid)
	}
	if input.UsageLimit < 0 {
		return fmt.Errorf("%w: usage limit cannot be negative", ErrCouponInvalid)
	}
	return nil
}

// Create stores a new coupon with its code uppercased
func (s *couponService) Create(ctx context.Context, input CouponInput) (*domain.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.CouponStatusActive
	}

	now := s.now()
	coupon := &domain.Coupon{
		ID:             uuid.New(),
		Code:           domain.NormalizeCouponCode(input.Code),
		Description:    input.Description,
		Type:           input.Type,
		Value:          input.Value,
		MinOrderAmount: input.MinOrderAmount,
		ExpiryDate:     input.ExpiryDate,
		UsageLimit:     input.UsageLimit,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrCouponAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code))
	return coupon, nil
}

// Update replaces the editable fields. UsedCount is preserved.
func (s *couponService) Update(ctx context.Context, id uuid.UUID, input CouponInput) (*domain.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	coupon.Code = domain.NormalizeCouponCode(input.Code)
	coupon.Description = input.Description
	coupon.Type = input.Type
	coupon.Value = input.Value
	coupon.MinOrderAmount = input.MinOrderAmount
	coupon.ExpiryDate = input.ExpiryDate
	coupon.UsageLimit = input.UsageLimit
	if input.Status != "" {
		coupon.Status = input.Status
	}
	coupon.UpdatedAt = s.now()

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrCouponAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return coupon, nil
}

func (s *couponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return nil
}
