package transport

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ValidateCouponRequest checks a code against an order amount
type ValidateCouponRequest struct {
	Code   string          `json:"code" validate:"required,max=50"`
	Amount decimal.Decimal `json:"amount"`
}

// CouponRequest is the admin payload for a coupon
type CouponRequest struct {
	Code           string              `json:"code" validate:"required,max=50"`
	Description    string              `json:"description" validate:"max=500"`
	Type           domain.DiscountType `json:"type" validate:"required,oneof=percentage fixed"`
	Value          decimal.Decimal     `json:"value"`
	MinOrderAmount decimal.Decimal     `json:"min_order_amount"`
	ExpiryDate     time.Time           `json:"expiry_date" validate:"required"`
	UsageLimit     int                 `json:"usage_limit" validate:"gte=0"`
	Status         domain.CouponStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (req CouponRequest) input() service.CouponInput {
	return service.CouponInput{
		Code:           req.Code,
		Description:    req.Description,
		Type:           req.Type,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		ExpiryDate:     req.ExpiryDate,
		UsageLimit:     req.UsageLimit,
		Status:         req.Status,
	}
}

// CouponHandler serves coupon validation and management
type CouponHandler struct {
	couponService service.CouponService
	logger        *zap.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService service.CouponService, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{couponService: couponService, logger: logger}
}

// RegisterRoutes registers the public coupon check
func (h *CouponHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/coupons/validate", h.Validate)
}

// RegisterAdminRoutes registers coupon management under an admin-only router
func (h *CouponHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/coupons", h.List)
	r.Get("/coupons/{id}", h.Get)
	r.Post("/coupons", h.Create)
	r.Put("/coupons/{id}", h.Update)
	r.Delete("/coupons/{id}", h.Delete)
}

// Validate returns the discount a code would give on amount without recording usage
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}
	if req.Amount.IsNegative() {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "amount", Message: "Value must be greater than or equal to 0"},
		})
		return
	}

	result, err := h.couponService.Validate(r.Context(), req.Code, req.Amount)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to validate coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, result)
}

// List pages through coupons
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)

	coupons, total, err := h.couponService.List(r.Context(), page, limit)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list coupons")
		return
	}
	middleware.RespondWithPage(w, coupons, middleware.NewPagination(page, limit, total))
}

// Get returns one coupon
func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	coupon, err := h.couponService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, coupon)
}

// Create adds a coupon
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	coupon, err := h.couponService.Create(r.Context(), req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, coupon)
}

// Update edits a coupon, keeping its usage count
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	coupon, err := h.couponService.Update(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, coupon)
}

// Delete removes a coupon
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.couponService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete coupon")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, message{"coupon deleted"})
}
