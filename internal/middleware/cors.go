package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORSConfig controls which storefront and admin frontends may call the API
type CORSConfig struct {
	AllowedOrigins []string
	AllowAnyOrigin bool
	MaxAge         time.Duration
}

// Guest carts travel in SessionHeader, so browsers must be allowed to send and read it.
var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{"Accept", "Authorization", "Content-Type", SessionHeader, middleware.RequestIDHeader}
	corsExposedHeaders = []string{
		SessionHeader,
		middleware.RequestIDHeader,
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"Retry-After",
	}
)

// CORSMiddleware applies the cross-origin policy
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if cfg.AllowAnyOrigin {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsAllowedMethods,
		AllowedHeaders:   corsAllowedHeaders,
		ExposedHeaders:   corsExposedHeaders,
		AllowCredentials: true,
		MaxAge:           int(cfg.MaxAge / time.Second),
	})
}

// DefaultMiddlewareStack returns the chi middleware every route runs behind
func DefaultMiddlewareStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Compress(5),
	}
}
