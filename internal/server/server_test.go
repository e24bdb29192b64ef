package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDatabase struct {
	status string
	closed bool
}

func (f *fakeDatabase) DB() *sql.DB { return nil }

func (f *fakeDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": f.status}
}

func (f *fakeDatabase) Close() error {
	f.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		JWT:       config.JWTConfig{Secret: "server-secret", AccessExpiry: 15, RefreshExpiry: 7},
		RateLimit: config.RateLimitConfig{Requests: 5, Window: time.Minute},
		Cart:      config.CartConfig{TTL: time.Hour},
	}
}

func newTestServer(t *testing.T, db *fakeDatabase, redisClient *cache.RedisClient) *Server {
	t.Helper()
	logger := zap.NewNop()
	return NewServer(testConfig(), logger, db, redisClient, notify.NewLogMailer("shop@example.com", logger))
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestHealth(t *testing.T) {
	t.Run("healthy without redis", func(t *testing.T) {
		w, body := get(t, newTestServer(t, &fakeDatabase{status: "up"}, nil), "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "disabled", body["redis"].(map[string]interface{})["status"])
	})

	t.Run("database down", func(t *testing.T) {
		w, body := get(t, newTestServer(t, &fakeDatabase{status: "down"}, nil), "/health")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "degraded", body["status"])
	})

	t.Run("reports redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

		srv := newTestServer(t, &fakeDatabase{status: "up"}, client)
		_, body := get(t, srv, "/health")
		assert.Equal(t, "up", body["redis"].(map[string]interface{})["status"])

		mr.Close()
		w, body := get(t, srv, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "down", body["redis"].(map[string]interface{})["status"])
	})
}

func TestRoutingEnvelope(t *testing.T) {
	srv := newTestServer(t, &fakeDatabase{status: "up"}, nil)

	w, body := get(t, srv, "/api/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	// Admin and customer routes reject anonymous callers before touching storage
	for _, path := range []string{"/api/admin/users", "/api/admin/dashboard/stats", "/api/orders", "/api/wishlist", "/api/auth/me"} {
		w, body := get(t, srv, path)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, false, body["success"], path)
	}
}

func TestCloseReleasesResources(t *testing.T) {
	mr := miniredis.RunT(t)
	client := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	db := &fakeDatabase{status: "up"}

	srv := newTestServer(t, db, client)
	require.NoError(t, srv.Close())

	assert.True(t, db.closed)
	assert.Error(t, client.Ping(context.Background()))
}
