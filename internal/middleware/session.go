package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader carries the guest cart session between requests
const SessionHeader = "X-Session-ID"

const sessionIDKey contextKey = "session_id"

const maxSessionIDLength = 128

// SessionMiddleware resolves the guest session id. Anonymous requests without one get a fresh id,
// echoed back in the response header so the client can keep using it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
		if len(sessionID) > maxSessionIDLength {
			sessionID = ""
		}

		if sessionID == "" {
			if _, authenticated := GetUserID(r.Context()); !authenticated {
				sessionID = uuid.NewString()
			}
		}

		if sessionID != "" {
			w.Header().Set(SessionHeader, sessionID)
			r = r.WithContext(context.WithValue(r.Context(), sessionIDKey, sessionID))
		}

		next.ServeHTTP(w, r)
	})
}

// GetSessionID returns the guest session id resolved by SessionMiddleware
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDKey).(string)
	return sessionID
}
