package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cartFixture struct {
	carts    *mockCartRepository
	products *mockProductRepository
	coupons  *mockCouponRepository
	tx       *memTx
	service  *cartService
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:    newMockCartRepository(),
		products: newMockProductRepository(),
		coupons:  newMockCouponRepository(),
	}
	f.tx = newMemTx(f.carts, f.products)
	f.service = NewCartService(f.carts, f.products, newTestCouponService(f.coupons), f.tx, zap.NewNop()).(*cartService)
	return f
}

func (f *cartFixture) product(name string, price int64, stock int) *domain.Product {
	return f.products.add(&domain.Product{
		Name:   name,
		Price:  decimal.NewFromInt(price),
		Stock:  stock,
		Images: domain.StringList{name + ".jpg"},
	})
}

func guest(session string) CartOwner {
	return CartOwner{SessionID: session}
}

func TestGetCart_CreatesEmptyCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	cart, err := f.service.GetCart(ctx, guest("sess-1"))
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "sess-1", cart.SessionID)

	again, err := f.service.GetCart(ctx, guest("sess-1"))
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	_, err = f.service.GetCart(ctx, CartOwner{})
	assert.ErrorIs(t, err, ErrCartOwnerRequired)
}

func TestAddItem(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	shirt := f.product("Shirt", 100000, 5)
	shirt.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(80000))
	f.products.add(shirt)

	cart, err := f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: shirt.ID, Quantity: 2, Size: "M"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].Price.Equal(decimal.NewFromInt(80000)), "discount price is snapshotted")
	assert.Equal(t, "Shirt.jpg", cart.Items[0].Image)

	cart, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: shirt.ID, Quantity: 1, Size: "M"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "same variant merges into one line")
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: shirt.ID, Quantity: 1, Size: "L"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(320000)))

	_, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: shirt.ID, Quantity: 2, Size: "S"})
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	_, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: shirt.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestAddItem_InactiveProduct(t *testing.T) {
	f := newCartFixture()
	hidden := f.products.add(&domain.Product{Name: "Hidden", Price: decimal.NewFromInt(1), Stock: 10, Status: domain.ProductStatusInactive})

	_, err := f.service.AddItem(context.Background(), guest("s"), AddItemInput{ProductID: hidden.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	mug := f.product("Mug", 50000, 4)

	cart, err := f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = f.service.UpdateItem(ctx, guest("s"), itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = f.service.UpdateItem(ctx, guest("s"), itemID, 5)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	_, err = f.service.UpdateItem(ctx, guest("s"), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	cart, err = f.service.UpdateItem(ctx, guest("s"), itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err = f.service.RemoveItem(ctx, guest("s"), cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestApplyAndRemoveCoupon(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	bag := f.product("Bag", 200000, 10)
	f.coupons.add(&domain.Coupon{
		Code:           "TENOFF",
		Type:           domain.DiscountPercentage,
		Value:          decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(300000),
	})

	_, err := f.service.ApplyCoupon(ctx, guest("s"), "TENOFF")
	assert.ErrorIs(t, err, ErrCouponMinimum, "empty cart")

	_, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: bag.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.service.ApplyCoupon(ctx, guest("s"), "TENOFF")
	assert.ErrorIs(t, err, ErrCouponMinimum)

	_, err = f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: bag.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.service.ApplyCoupon(ctx, guest("s"), "tenoff")
	require.NoError(t, err)
	require.NotNil(t, cart.Coupon)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(360000)))

	cart, err = f.service.RemoveCoupon(ctx, guest("s"))
	require.NoError(t, err)
	assert.Nil(t, cart.Coupon)
	assert.True(t, cart.Total.Equal(cart.Subtotal))
}

func TestClear(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	hat := f.product("Hat", 10000, 3)

	_, err := f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: hat.ID, Quantity: 2})
	require.NoError(t, err)

	cart, err := f.service.Clear(ctx, guest("s"))
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
}

func TestExpiredCartIsResetAndReused(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	hat := f.product("Hat", 10000, 3)

	cart, err := f.service.AddItem(ctx, guest("s"), AddItemInput{ProductID: hat.ID, Quantity: 2})
	require.NoError(t, err)

	later := time.Now().Add(domain.CartTTL + time.Hour)
	f.service.now = func() time.Time { return later }

	reloaded, err := f.service.GetCart(ctx, guest("s"))
	require.NoError(t, err)
	assert.Equal(t, cart.ID, reloaded.ID)
	assert.Empty(t, reloaded.Items)
	assert.Equal(t, later, reloaded.CreatedAt)
}

func TestLoad_RefindsCartCreatedConcurrently(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	existing := &domain.Cart{ID: uuid.New(), SessionID: "race", Items: domain.CartItems{}}
	require.NoError(t, f.carts.Save(ctx, existing))

	racing := &racingCartRepository{mockCartRepository: f.carts}
	svc := NewCartService(racing, f.products, newTestCouponService(f.coupons), f.tx, zap.NewNop())

	cart, err := svc.GetCart(ctx, guest("race"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, cart.ID)
}

// racingCartRepository hides the first lookup, as if the cart was inserted after it ran
type racingCartRepository struct {
	*mockCartRepository
	missed bool
}

func (r *racingCartRepository) FindBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if !r.missed {
		r.missed = true
		return nil, repository.ErrCartNotFound
	}
	return r.mockCartRepository.FindBySession(ctx, sessionID)
}

func TestSyncCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := uuid.New()
	user := CartOwner{UserID: &userID}

	tee := f.product("Tee", 100000, 5)
	hat := f.product("Cap", 50000, 10)
	gone := f.product("Gone", 10, 10)

	_, err := f.service.AddItem(ctx, user, AddItemInput{ProductID: tee.ID, Quantity: 3, Size: "M"})
	require.NoError(t, err)

	_, err = f.service.AddItem(ctx, guest("g"), AddItemInput{ProductID: tee.ID, Quantity: 4, Size: "M"})
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, guest("g"), AddItemInput{ProductID: hat.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, guest("g"), AddItemInput{ProductID: gone.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, gone.ID))

	merged, err := f.service.SyncCart(ctx, userID, "g")
	require.NoError(t, err)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, 5, merged.QuantityOf(tee.ID), "capped at stock")
	assert.Equal(t, 2, merged.QuantityOf(hat.ID))
	assert.Equal(t, 0, merged.QuantityOf(gone.ID))

	_, err = f.carts.FindBySession(ctx, "g")
	assert.ErrorIs(t, err, repository.ErrCartNotFound, "guest cart is deleted")

	stored, err := f.carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.ItemCount())
}

func TestSyncCart_CarriesGuestCoupon(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := uuid.New()
	tee := f.product("Tee", 100000, 5)
	f.coupons.add(&domain.Coupon{Code: "HELLO", Type: domain.DiscountFixed, Value: decimal.NewFromInt(10000)})

	_, err := f.service.AddItem(ctx, guest("g"), AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.service.ApplyCoupon(ctx, guest("g"), "HELLO")
	require.NoError(t, err)

	merged, err := f.service.SyncCart(ctx, userID, "g")
	require.NoError(t, err)
	require.NotNil(t, merged.Coupon)
	assert.Equal(t, "HELLO", merged.Coupon.Code)
}

func TestSyncCart_NoGuestCart(t *testing.T) {
	f := newCartFixture()
	userID := uuid.New()

	merged, err := f.service.SyncCart(context.Background(), userID, "unknown")
	require.NoError(t, err)
	assert.Empty(t, merged.Items)
	assert.Equal(t, userID, *merged.UserID)
}

type failingDeleteCartRepository struct {
	*mockCartRepository
}

func (r *failingDeleteCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("connection reset")
}

func TestSyncCart_RollsBackOnFailure(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := uuid.New()
	tee := f.product("Tee", 100000, 5)

	_, err := f.service.AddItem(ctx, guest("g"), AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)

	failing := &failingDeleteCartRepository{mockCartRepository: f.carts}
	svc := NewCartService(failing, f.products, newTestCouponService(f.coupons), f.tx, zap.NewNop())

	_, err = svc.SyncCart(ctx, userID, "g")
	require.Error(t, err)

	_, err = f.carts.FindByUser(ctx, userID)
	assert.ErrorIs(t, err, repository.ErrCartNotFound, "user cart creation rolled back")
	guestCart, err := f.carts.FindBySession(ctx, "g")
	require.NoError(t, err)
	assert.Len(t, guestCart.Items, 1)
}

func TestProperty_MergedCartNeverExceedsStock(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("merged quantity is capped at stock", prop.ForAll(
		func(stock, userQty, guestQty int) bool {
			f := newCartFixture()
			ctx := context.Background()
			userID := uuid.New()
			p := f.product("Item", 1000, stock)

			// Seed carts directly so each side may hold up to the full stock.
			require.NoError(t, f.carts.Save(ctx, &domain.Cart{
				ID:     uuid.New(),
				UserID: &userID,
				Items:  domain.CartItems{{ID: uuid.New(), ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: userQty}},
			}))
			require.NoError(t, f.carts.Save(ctx, &domain.Cart{
				ID:        uuid.New(),
				SessionID: "g",
				Items:     domain.CartItems{{ID: uuid.New(), ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: guestQty}},
			}))

			merged, err := f.service.SyncCart(ctx, userID, "g")
			if err != nil {
				t.Logf("FAIL: %v", err)
				return false
			}

			want := userQty
			if userQty < stock {
				want = userQty + guestQty
				if want > stock {
					want = stock
				}
			}
			return merged.QuantityOf(p.ID) == want
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 20),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
