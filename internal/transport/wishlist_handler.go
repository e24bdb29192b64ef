package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WishlistHandler serves the signed-in user's wishlist
type WishlistHandler struct {
	wishlistService service.WishlistService
	logger          *zap.Logger
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService, logger: logger}
}

// RegisterRoutes registers the wishlist routes
func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/{productID}", h.Add)
		r.Delete("/{productID}", h.Remove)
	})
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	wishlist, err := h.wishlistService.Get(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get wishlist")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	wishlist, err := h.wishlistService.Add(r.Context(), userID, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to add to wishlist")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	wishlist, err := h.wishlistService.Remove(r.Context(), userID, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to remove from wishlist")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	wishlist, err := h.wishlistService.Clear(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to clear wishlist")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, wishlist)
}
