package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderLineRequest is one product line of a checkout
type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	Size      string    `json:"size" validate:"max=50"`
	Color     string    `json:"color" validate:"max=50"`
}

// CreateOrderRequest is the checkout payload. Prices, discount and shipping fee are computed server-side.
type CreateOrderRequest struct {
	Items           []OrderLineRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method" validate:"required,oneof=cod bank_transfer card"`
	ShippingMethod  string                 `json:"shipping_method" validate:"max=50"`
	CouponCode      string                 `json:"coupon_code" validate:"max=50"`
	Note            string                 `json:"note" validate:"max=1000"`
}

// CancelOrderRequest carries an optional reason
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// UpdateOrderStatusRequest sets the lifecycle status of an order
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// UpdatePaymentStatusRequest sets the payment status of an order
type UpdatePaymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"payment_status" validate:"required"`
}

// OrderHandler serves checkout and order history
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers customer order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.ListMine)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/cancel", h.Cancel)
	})
}

// RegisterAdminRoutes registers order management under an admin-only router
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.AdminList)
	r.Get("/orders/{id}", h.Get)
	r.Put("/orders/{id}/status", h.AdminUpdateStatus)
	r.Put("/orders/{id}/payment-status", h.AdminUpdatePaymentStatus)
}

// Create places an order for the signed-in user
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	lines := make([]service.OrderLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	order, err := h.orderService.CreateOrder(r.Context(), userID, service.PlaceOrderInput{
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		CouponCode:      req.CouponCode,
		Note:            req.Note,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to place order")
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.String()),
	)
	middleware.RespondWithSuccess(w, http.StatusCreated, order)
}

// ListMine pages through the signed-in user's orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit := pageQuery(r)

	orders, total, err := h.orderService.ListMyOrders(r.Context(), userID, page, limit)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	middleware.RespondWithPage(w, orders, middleware.NewPagination(page, limit, total))
}

// Get returns one order. Customers only see their own.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, orderID, middleware.IsAdmin(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get order")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, order)
}

// Cancel cancels a pending or confirmed order of the signed-in user and restores stock
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if r.ContentLength != 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			middleware.DecodeFailed(w, err)
			return
		}
	}

	order, err := h.orderService.CancelOrder(r.Context(), userID, orderID, req.Reason)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to cancel order")
		return
	}

	h.logger.Info("Order cancelled by customer", zap.String("order_id", orderID.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, order)
}

// AdminList pages through every order, filtered by status or a search term
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	q := r.URL.Query()

	orders, total, err := h.orderService.AdminListOrders(r.Context(), domain.OrderStatus(q.Get("status")), q.Get("search"), page, limit)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	middleware.RespondWithPage(w, orders, middleware.NewPagination(page, limit, total))
}

// AdminUpdateStatus moves an order through its lifecycle
func (h *OrderHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	order, err := h.orderService.AdminUpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update order status")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithSuccess(w, http.StatusOK, order)
}

// AdminUpdatePaymentStatus records a payment outcome
func (h *OrderHandler) AdminUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	order, err := h.orderService.AdminUpdatePaymentStatus(r.Context(), orderID, req.PaymentStatus)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update payment status")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, order)
}
