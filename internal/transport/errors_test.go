package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{repository.ErrProductNotFound, http.StatusNotFound},
		{fmt.Errorf("failed to get order: %w", repository.ErrOrderNotFound), http.StatusNotFound},
		{service.ErrCartItemNotFound, http.StatusNotFound},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrTokenExpired, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{repository.ErrUserAlreadyExists, http.StatusConflict},
		{repository.ErrCouponAlreadyExists, http.StatusConflict},
		{repository.ErrCategoryAlreadyExists, http.StatusBadRequest},
		{repository.ErrProductSlugExists, http.StatusBadRequest},
		{fmt.Errorf("failed to add review: %w", repository.ErrReviewAlreadyExists), http.StatusBadRequest},
		{fmt.Errorf("failed to delete user: %w", repository.ErrUserHasOrders), http.StatusBadRequest},
		{service.ErrCouponInvalid, http.StatusBadRequest},
		{fmt.Errorf("%w: percentage cannot exceed 100", service.ErrCouponInvalid), http.StatusBadRequest},
		{service.ErrOrderNotCancellable, http.StatusBadRequest},
		{&service.StockError{Err: repository.ErrInsufficientStock}, http.StatusBadRequest},
		{&service.StockError{Err: repository.ErrProductNotFound}, http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestRespondWithServiceError_HidesAndLogsUnknownErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := httptest.NewRecorder()

	respondWithServiceError(w, zap.New(core), errors.New("pq: relation does not exist"), "failed to place order")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "failed to place order", env.Error.Message)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "failed to place order", entries[0].Message)
}

func TestRespondWithServiceError_StockDetails(t *testing.T) {
	productID := uuid.New()
	w := httptest.NewRecorder()

	respondWithServiceError(w, zap.NewNop(), &service.StockError{
		ProductID:   productID,
		ProductName: "Linen Shirt",
		Requested:   5,
		Available:   2,
		Err:         repository.ErrInsufficientStock,
	}, "failed to place order")

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Contains(t, env.Error.Message, "Linen Shirt")
	assert.Equal(t, productID.String(), env.Error.Details["product_id"])
	assert.Equal(t, float64(2), env.Error.Details["available"])
}
