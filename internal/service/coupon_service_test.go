package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCouponService(repo repository.CouponRepository) CouponService {
	return NewCouponService(repo, zap.NewNop())
}

func TestCouponValidate(t *testing.T) {
	repo := newMockCouponRepository()
	repo.add(&domain.Coupon{
		Code:           "SAVE10",
		Type:           domain.DiscountPercentage,
		Value:          decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(100000),
	})
	repo.add(&domain.Coupon{
		Code:  "OLD",
		Type:  domain.DiscountFixed,
		Value: decimal.NewFromInt(5000),
		// already expired
		ExpiryDate: time.Now().Add(-time.Hour),
	})
	repo.add(&domain.Coupon{
		Code:       "USEDUP",
		Type:       domain.DiscountFixed,
		Value:      decimal.NewFromInt(5000),
		UsageLimit: 3,
		UsedCount:  3,
	})
	svc := newTestCouponService(repo)
	ctx := context.Background()

	t.Run("valid code is case insensitive", func(t *testing.T) {
		result, err := svc.Validate(ctx, " save10 ", decimal.NewFromInt(200000))
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", result.Code)
		assert.True(t, result.Discount.Equal(decimal.NewFromInt(20000)))
		assert.True(t, result.FinalAmount.Equal(decimal.NewFromInt(180000)))
	})

	t.Run("below minimum", func(t *testing.T) {
		_, err := svc.Validate(ctx, "SAVE10", decimal.NewFromInt(99999))
		assert.ErrorIs(t, err, ErrCouponMinimum)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Validate(ctx, "NOPE", decimal.NewFromInt(200000))
		assert.ErrorIs(t, err, repository.ErrCouponNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := svc.Validate(ctx, "OLD", decimal.NewFromInt(200000))
		assert.ErrorIs(t, err, ErrCouponInvalid)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		_, err := svc.Validate(ctx, "USEDUP", decimal.NewFromInt(200000))
		assert.ErrorIs(t, err, ErrCouponInvalid)
	})
}

func TestProperty_CouponFinalAmountNeverNegative(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("final amount is amount minus a discount bounded by amount", prop.ForAll(
		func(value int64, amount int64, percentage bool) bool {
			repo := newMockCouponRepository()
			coupon := &domain.Coupon{Code: "PROMO", Type: domain.DiscountFixed, Value: decimal.NewFromInt(value)}
			if percentage {
				coupon.Type = domain.DiscountPercentage
				coupon.Value = decimal.NewFromInt(value % 101)
			}
			repo.add(coupon)

			result, err := newTestCouponService(repo).Validate(context.Background(), "promo", decimal.NewFromInt(amount))
			if err != nil {
				t.Logf("FAIL: %v", err)
				return false
			}
			return !result.FinalAmount.IsNegative() &&
				result.Discount.LessThanOrEqual(decimal.NewFromInt(amount)) &&
				result.FinalAmount.Add(result.Discount).Equal(decimal.NewFromInt(amount))
		},
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 5_000_000),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCouponCreate(t *testing.T) {
	repo := newMockCouponRepository()
	svc := newTestCouponService(repo)
	ctx := context.Background()

	input := CouponInput{
		Code:       "  welcome ",
		Type:       domain.DiscountFixed,
		Value:      decimal.NewFromInt(20000),
		ExpiryDate: time.Now().Add(48 * time.Hour),
	}

	coupon, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", coupon.Code)
	assert.Equal(t, domain.CouponStatusActive, coupon.Status)
	assert.Zero(t, coupon.UsedCount)

	_, err = svc.Create(ctx, input)
	assert.ErrorIs(t, err, repository.ErrCouponAlreadyExists)

	bad := input
	bad.Code = "BAD"
	bad.Type = "bogus"
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrCouponType)

	bad.Type = domain.DiscountPercentage
	bad.Value = decimal.NewFromInt(150)
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrCouponInvalid)
}

func TestCouponUpdate_PreservesUsedCount(t *testing.T) {
	repo := newMockCouponRepository()
	existing := repo.add(&domain.Coupon{
		Code:       "SPRING",
		Type:       domain.DiscountFixed,
		Value:      decimal.NewFromInt(1000),
		UsageLimit: 10,
		UsedCount:  4,
	})
	svc := newTestCouponService(repo)

	updated, err := svc.Update(context.Background(), existing.ID, CouponInput{
		Code:       "spring",
		Type:       domain.DiscountPercentage,
		Value:      decimal.NewFromInt(15),
		ExpiryDate: time.Now().Add(time.Hour),
		UsageLimit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.UsedCount)
	assert.Equal(t, 20, updated.UsageLimit)
	assert.Equal(t, domain.DiscountPercentage, updated.Type)
}
