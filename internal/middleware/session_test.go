package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionProbe(seen *string) http.Handler {
	return SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = GetSessionID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func TestSessionMiddleware_KeepsClientSession(t *testing.T) {
	var seen string
	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(SessionHeader, "abc-123")
	w := httptest.NewRecorder()

	sessionProbe(&seen).ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(SessionHeader))
}

func TestSessionMiddleware_IssuesSessionForAnonymous(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()

	sessionProbe(&seen).ServeHTTP(w, httptest.NewRequest("GET", "/cart", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(SessionHeader))
}

func TestSessionMiddleware_OversizedHeaderReplaced(t *testing.T) {
	var seen string
	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(SessionHeader, strings.Repeat("x", maxSessionIDLength+1))
	w := httptest.NewRecorder()

	sessionProbe(&seen).ServeHTTP(w, req)

	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestSessionMiddleware_AuthenticatedWithoutSession(t *testing.T) {
	var seen string
	req := httptest.NewRequest("GET", "/cart", nil)
	req = req.WithContext(withUser(req.Context(), uuid.New(), "user"))
	w := httptest.NewRecorder()

	sessionProbe(&seen).ServeHTTP(w, req)

	assert.Empty(t, seen)
	assert.Empty(t, w.Header().Get(SessionHeader))
}
