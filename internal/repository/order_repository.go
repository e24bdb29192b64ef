package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderFilter narrows an order listing
type OrderFilter struct {
	UserID   *uuid.UUID
	Status   domain.OrderStatus
	Search   string
	Page     int
	PageSize int
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, shipping_address, payment_method, shipping_method, shipping_fee,
	subtotal, discount, coupon, total, status, payment_status, note, cancel_reason, delivered_at, cancelled_at,
	created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var coupon []byte
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&order.ShippingMethod,
		&order.ShippingFee,
		&order.Subtotal,
		&order.Discount,
		&coupon,
		&order.Total,
		&order.Status,
		&order.PaymentStatus,
		&order.Note,
		&order.CancelReason,
		&order.DeliveredAt,
		&order.CancelledAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if coupon != nil {
		order.Coupon = &domain.AppliedCoupon{}
		if err := order.Coupon.Scan(coupon); err != nil {
			return nil, fmt.Errorf("failed to decode order coupon: %w", err)
		}
	}

	return order, nil
}

// Create inserts the order and its items. Call it inside a transaction so both land together.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	var coupon interface{}
	if order.Coupon != nil {
		v, err := order.Coupon.Value()
		if err != nil {
			return fmt.Errorf("failed to encode order coupon: %w", err)
		}
		coupon = v
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	db := conn(ctx, r.db)
	_, err := db.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.ShippingAddress,
		order.PaymentMethod,
		order.ShippingMethod,
		order.ShippingFee,
		order.Subtotal,
		order.Discount,
		coupon,
		order.Total,
		order.Status,
		order.PaymentStatus,
		order.Note,
		order.CancelReason,
		order.DeliveredAt,
		order.CancelledAt,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, price, image, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, item := range order.Items {
		item.OrderID = order.ID
		if _, err := db.ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Image,
			item.Quantity,
			item.Size,
			item.Color,
		); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order together with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// FindByIDForUpdate retrieves an order and locks it for a status change
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	items, err := r.itemsFor(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = []*domain.OrderItem{}
	}

	return order, nil
}

// List pages through orders, newest first, with their items attached
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(order_number ILIKE $%d OR shipping_address->>'full_name' ILIKE $%d OR shipping_address->>'phone' ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+s+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM orders "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM orders %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.PageSize, offset(filter.Page, filter.PageSize))

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	ids := []uuid.UUID{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
		if order.Items == nil {
			order.Items = []*domain.OrderItem{}
		}
	}

	return orders, total, nil
}

func (r *orderRepository) itemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]*domain.OrderItem, error) {
	out := make(map[uuid.UUID][]*domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, order_id, product_id, name, price, image, quantity, size, color
		FROM order_items
		WHERE order_id IN (%s)
		ORDER BY name
	`, placeholders(1, len(orderIDs)))

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &domain.OrderItem{}
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Image,
			&item.Quantity,
			&item.Size,
			&item.Color,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return out, nil
}

// UpdateStatus persists the lifecycle fields of an order
func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, cancel_reason = $4, delivered_at = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		order.ID,
		order.Status,
		order.PaymentStatus,
		order.CancelReason,
		order.DeliveredAt,
		order.CancelledAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}
