package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"go.uber.org/zap"
)

type errorStatus struct {
	err    error
	status int
}

// errorStatuses maps domain errors to HTTP statuses. First match wins.
var errorStatuses = []errorStatus{
	{repository.ErrProductNotFound, http.StatusNotFound},
	{repository.ErrCategoryNotFound, http.StatusNotFound},
	{repository.ErrCouponNotFound, http.StatusNotFound},
	{repository.ErrOrderNotFound, http.StatusNotFound},
	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrCartNotFound, http.StatusNotFound},
	{repository.ErrReviewNotFound, http.StatusNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrTokenExpired, http.StatusUnauthorized},

	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrAccountDisabled, http.StatusForbidden},

	{repository.ErrUserAlreadyExists, http.StatusConflict},
	{repository.ErrCouponAlreadyExists, http.StatusConflict},

	{repository.ErrCategoryAlreadyExists, http.StatusBadRequest},
	{repository.ErrProductSlugExists, http.StatusBadRequest},
	{repository.ErrReviewAlreadyExists, http.StatusBadRequest},
	{repository.ErrUserHasOrders, http.StatusBadRequest},
	{repository.ErrInsufficientStock, http.StatusBadRequest},
	{repository.ErrCouponUsageExceeded, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrProductInactive, http.StatusBadRequest},
	{service.ErrCartOwnerRequired, http.StatusBadRequest},
	{service.ErrCouponInvalid, http.StatusBadRequest},
	{service.ErrCouponMinimum, http.StatusBadRequest},
	{service.ErrCouponType, http.StatusBadRequest},
	{service.ErrEmptyOrder, http.StatusBadRequest},
	{service.ErrOrderNotCancellable, http.StatusBadRequest},
	{service.ErrOrderFinalized, http.StatusBadRequest},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest},
	{service.ErrInvalidPayment, http.StatusBadRequest},
	{service.ErrCategoryHasChildren, http.StatusBadRequest},
	{service.ErrCategoryHasProducts, http.StatusBadRequest},
	{service.ErrCategoryParent, http.StatusBadRequest},
	{service.ErrInvalidRating, http.StatusBadRequest},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest},
	{service.ErrWrongPassword, http.StatusBadRequest},
	{service.ErrResetTokenInvalid, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrInvalidSettings, http.StatusBadRequest},
	{service.ErrInvalidPrice, http.StatusBadRequest},
	{service.ErrInvalidDiscountPrice, http.StatusBadRequest},
}

// statusFor returns the HTTP status for err, or 500 when it is not a known domain error
func statusFor(err error) int {
	for _, candidate := range errorStatuses {
		if errors.Is(err, candidate.err) {
			return candidate.status
		}
	}
	return http.StatusInternalServerError
}

// respondWithServiceError writes the envelope for a service error.
// Unknown errors are logged and hidden behind fallback.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, status, fallback)
		return
	}

	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		middleware.RespondWithErrorDetails(w, status, stockErr.Error(), map[string]interface{}{
			"product_id":   stockErr.ProductID,
			"product_name": stockErr.ProductName,
			"requested":    stockErr.Requested,
			"available":    stockErr.Available,
		})
		return
	}

	logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	middleware.RespondWithError(w, status, err.Error())
}
