package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddCartItemRequest puts a product line in the cart
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	Size      string    `json:"size" validate:"max=50"`
	Color     string    `json:"color" validate:"max=50"`
}

// UpdateCartItemRequest sets the quantity of a line. Zero or less removes it.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// ApplyCouponRequest attaches a coupon to the cart
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=50"`
}

// CartHandler serves carts for signed-in users and guests
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, logger: logger}
}

// RegisterRoutes registers the cart routes. optionalAuth must run before the session middleware.
func (h *CartHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Use(middleware.SessionMiddleware)

		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items/{itemID}", h.UpdateItem)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Post("/coupon", h.ApplyCoupon)
		r.Delete("/coupon", h.RemoveCoupon)
		r.Post("/sync", h.Sync)
	})
}

// owner resolves whose cart the request targets: the user when signed in, the session otherwise
func owner(r *http.Request) service.CartOwner {
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		return service.CartOwner{UserID: &userID}
	}
	return service.CartOwner{SessionID: middleware.GetSessionID(r.Context())}
}

// Get returns the current cart, creating it on first use
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetCart(r.Context(), owner(r))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get cart")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// AddItem adds a product line, merging with an identical line
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), owner(r), service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to add item to cart")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// UpdateItem changes the quantity of one line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	cart, err := h.cartService.UpdateItem(r.Context(), owner(r), itemID, *req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update cart item")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// RemoveItem drops one line
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), owner(r), itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to remove cart item")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// Clear empties the cart and drops its coupon
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.Clear(r.Context(), owner(r))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to clear cart")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// ApplyCoupon validates a code against the cart subtotal and attaches it
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	cart, err := h.cartService.ApplyCoupon(r.Context(), owner(r), req.Code)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to apply coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// RemoveCoupon detaches the coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.RemoveCoupon(r.Context(), owner(r))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to remove coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}

// Sync merges the guest cart named by the session header into the signed-in user's cart
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, err := h.cartService.SyncCart(r.Context(), userID, middleware.GetSessionID(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to sync cart")
		return
	}

	h.logger.Info("Cart synced", zap.String("user_id", userID.String()), zap.Int("items", cart.ItemCount()))
	middleware.RespondWithSuccess(w, http.StatusOK, cart)
}
