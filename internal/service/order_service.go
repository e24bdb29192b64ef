package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLineInput is one requested product line
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Size      string
	Color     string
}

// PlaceOrderInput is what a customer submits at checkout.
// Only the coupon code is taken from the client; the discount is computed here.
type PlaceOrderInput struct {
	Items           []OrderLineInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	ShippingMethod  string
	CouponCode      string
	Note            string
}

// OrderService places orders and drives their lifecycle
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*domain.Order, error)
	AdminListOrders(ctx context.Context, status domain.OrderStatus, search string, page, pageSize int) ([]*domain.Order, int, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	AdminUpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) (*domain.Order, error)
}

type orderService struct {
	tx          repository.Transactor
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	settings    SettingsService
	mailer      notify.Mailer
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	settings SettingsService,
	mailer notify.Mailer,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		tx:          tx,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		settings:    settings,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateOrder places an order in a single transaction: stock is checked under row locks and decremented,
// coupon usage is recorded, and the customer's cart is deleted. Any failure leaves nothing changed.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ShippingMethod:  input.ShippingMethod,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Note:            strings.TrimSpace(input.Note),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.OrderNumber = domain.NewOrderNumber(now, order.ID)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		products, err := s.lockProducts(ctx, input.Items)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		requested := make(map[uuid.UUID]int, len(products))
		order.Items = make([]*domain.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			product := products[line.ProductID]
			requested[product.ID] += line.Quantity
			if err := checkStock(product, requested[product.ID]); err != nil {
				return err
			}

			item := &domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.UnitPrice(),
				Image:     product.FirstImage(),
				Quantity:  line.Quantity,
				Size:      strings.TrimSpace(line.Size),
				Color:     strings.TrimSpace(line.Color),
			}
			subtotal = subtotal.Add(item.LineTotal())
			order.Items = append(order.Items, item)
		}

		discount := decimal.Zero
		if code := strings.TrimSpace(input.CouponCode); code != "" {
			coupon, err := s.redeemCoupon(ctx, code, subtotal, now)
			if err != nil {
				return err
			}
			discount = coupon.DiscountFor(subtotal)
			order.Coupon = coupon.Snapshot()
		}

		order.Subtotal = subtotal
		order.Discount = discount
		order.ShippingFee = settings.Values.ShippingFeeFor(subtotal)
		order.Total = domain.OrderTotal(subtotal, order.ShippingFee, discount)

		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					product := products[item.ProductID]
					return &StockError{
						ProductID:   product.ID,
						ProductName: product.Name,
						Requested:   item.Quantity,
						Available:   product.Stock,
						Err:         err,
					}
				}
				return err
			}
		}

		if err := s.cartRepo.DeleteByUser(ctx, userID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		var stockErr *StockError
		if errors.As(err, &stockErr) || isOrderRuleError(err) {
			return nil, err
		}
		s.logger.Error("Failed to place order", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()),
	)

	s.sendConfirmation(ctx, order, settings.Values.StoreName)
	return order, nil
}

// lockProducts loads every product of the order with a row lock, in id order to avoid deadlocks
func (s *orderService) lockProducts(ctx context.Context, lines []OrderLineInput) (map[uuid.UUID]*domain.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	products := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		product, err := s.productRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, &StockError{ProductID: id, Err: err}
			}
			return nil, err
		}
		if !product.IsActive() {
			return nil, &StockError{ProductID: id, ProductName: product.Name, Err: ErrProductInactive}
		}
		products[id] = product
	}
	return products, nil
}

// redeemCoupon re-derives the coupon from storage and records one use
func (s *orderService) redeemCoupon(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*domain.Coupon, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !coupon.IsValid(now) {
		return nil, ErrCouponInvalid
	}
	if !coupon.MeetsMinimum(subtotal) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrCouponMinimum, coupon.MinOrderAmount.StringFixed(0))
	}
	if err := s.couponRepo.IncrementUsage(ctx, coupon.ID); err != nil {
		if errors.Is(err, repository.ErrCouponUsageExceeded) {
			return nil, ErrCouponInvalid
		}
		return nil, err
	}
	return coupon, nil
}

func isOrderRuleError(err error) bool {
	for _, target := range []error{
		ErrCouponInvalid,
		ErrCouponMinimum,
		repository.ErrCouponNotFound,
		ErrOrderNotCancellable,
		ErrOrderFinalized,
		ErrForbidden,
		repository.ErrOrderNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *orderService) sendConfirmation(ctx context.Context, order *domain.Order, storeName string) {
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Warn("Skipping order confirmation mail", zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}

	msg := notify.OrderConfirmation(order, storeName)
	if err := s.mailer.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		s.logger.Error("Failed to send order confirmation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *orderService) ListMyOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	page, pageSize = NormalizePage(page, pageSize)
	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{UserID: &userID, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder returns an order to its owner or to an admin
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.UserID != userID && !isAdmin {
		return nil, ErrForbidden
	}
	return order, nil
}

// CancelOrder lets the owner cancel a pending or confirmed order. Stock is restored in the same transaction.
func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return ErrForbidden
		}
		if !order.Status.CancellableByOwner() {
			return ErrOrderNotCancellable
		}

		order.CancelReason = strings.TrimSpace(reason)
		return s.cancel(ctx, order)
	})
	if err != nil {
		if isOrderRuleError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info("Order cancelled by customer", zap.String("order_id", orderID.String()))
	return order, nil
}

// cancel restores stock for every line and persists the cancelled state. Call it inside a transaction.
func (s *orderService) cancel(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		if err := s.productRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				s.logger.Warn("Product removed, stock not restored",
					zap.String("order_id", order.ID.String()),
					zap.String("product_id", item.ProductID.String()),
				)
				continue
			}
			return err
		}
	}

	now := s.now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now
	return s.orderRepo.UpdateStatus(ctx, order)
}

func (s *orderService) AdminListOrders(ctx context.Context, status domain.OrderStatus, search string, page, pageSize int) ([]*domain.Order, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidOrderStatus
	}
	page, pageSize = NormalizePage(page, pageSize)
	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{
		Status:   status,
		Search:   search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// AdminUpdateStatus moves an order to any allow-listed status. Delivered and cancelled orders are final.
func (s *orderService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == status {
			return nil
		}
		if order.Status.IsTerminal() {
			return ErrOrderFinalized
		}

		if status == domain.OrderStatusCancelled {
			return s.cancel(ctx, order)
		}

		now := s.now()
		order.Status = status
		if status == domain.OrderStatusDelivered {
			order.DeliveredAt = &now
			order.PaymentStatus = domain.PaymentStatusPaid
		}
		order.UpdatedAt = now
		return s.orderRepo.UpdateStatus(ctx, order)
	})
	if err != nil {
		if isOrderRuleError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(order.Status)),
	)
	return order, nil
}

func (s *orderService) AdminUpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidPayment
	}

	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		order.PaymentStatus = status
		order.UpdatedAt = s.now()
		return s.orderRepo.UpdateStatus(ctx, order)
	})
	if err != nil {
		if isOrderRuleError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return order, nil
}
