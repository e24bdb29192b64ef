package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *cache.RedisClient
}

// NewServer wires repositories, services and handlers onto one router.
// redisClient may be nil, which disables rate limiting and the category cache.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *cache.RedisClient, mailer notify.Mailer) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(custommiddleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowAnyOrigin: cfg.Server.IsDevelopment(),
		MaxAge:         cfg.CORS.MaxAge,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check endpoint
	router.Get("/health", healthHandler(db, redisClient))

	sqlDB := db.DB()

	// Initialize repositories
	tx := repository.NewTransactor(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	resetRepo := repository.NewPasswordResetRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	reviewRepo := repository.NewReviewRepository(sqlDB)
	couponRepo := repository.NewCouponRepository(sqlDB)
	cartRepo := repository.NewCartRepository(sqlDB, cfg.Cart.TTL)
	orderRepo := repository.NewOrderRepository(sqlDB)
	wishlistRepo := repository.NewWishlistRepository(sqlDB)
	settingsRepo := repository.NewSettingsRepository(sqlDB)
	dashboardRepo := repository.NewDashboardRepository(sqlDB)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, resetRepo, mailer, service.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		AccessExpiry:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
		StorefrontURL: cfg.Mail.StorefrontURL,
	}, logger)
	settingsService := service.NewSettingsService(settingsRepo)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, cache.NewCategoryCache(redisClient, cfg.Redis.CacheTTL), logger)
	productService := service.NewProductService(productRepo, reviewRepo, userRepo, categoryService, tx, logger)
	couponService := service.NewCouponService(couponRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, couponService, tx, logger)
	orderService := service.NewOrderService(tx, orderRepo, productRepo, couponRepo, cartRepo, userRepo, settingsService, mailer, logger)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	dashboardService := service.NewDashboardService(dashboardRepo, orderRepo, settingsService)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	couponHandler := transport.NewCouponHandler(couponService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	wishlistHandler := transport.NewWishlistHandler(wishlistService, logger)
	settingsHandler := transport.NewSettingsHandler(settingsService, logger)
	dashboardHandler := transport.NewDashboardHandler(dashboardService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuth(cfg.JWT.Secret, logger)
	limiter := authLimiter(cfg.RateLimit, redisClient, logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware, limiter)
	categoryHandler.RegisterRoutes(router)
	productHandler.RegisterRoutes(router, authMiddleware)
	couponHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router, optionalAuth)
	orderHandler.RegisterRoutes(router, authMiddleware)
	wishlistHandler.RegisterRoutes(router, authMiddleware)
	settingsHandler.RegisterRoutes(router)

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireAdmin(logger))

		userHandler.RegisterAdminRoutes(r)
		categoryHandler.RegisterAdminRoutes(r)
		productHandler.RegisterAdminRoutes(r)
		couponHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
		settingsHandler.RegisterAdminRoutes(r)
		dashboardHandler.RegisterAdminRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

// authLimiter guards the credential endpoints. Without redis it lets everything through.
func authLimiter(cfg config.RateLimitConfig, redisClient *cache.RedisClient, logger *zap.Logger) func(http.Handler) http.Handler {
	if redisClient == nil {
		logger.Warn("Redis disabled, auth rate limiting is off")
		return func(next http.Handler) http.Handler { return next }
	}
	return custommiddleware.RateLimitMiddleware(redisClient.Client(), custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Requests,
		Window:            cfg.Window,
		KeyPrefix:         "ratelimit:auth",
	}, logger)
}

func healthHandler(db database.Service, redisClient *cache.RedisClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		report := map[string]interface{}{"status": "ok"}

		dbHealth := db.Health(r.Context())
		report["database"] = dbHealth
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
			report["status"] = "degraded"
		}

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx); err != nil {
				// The cache is optional; a dead redis degrades but does not fail the check
				report["redis"] = map[string]string{"status": "down", "error": err.Error()}
			} else {
				report["redis"] = map[string]string{"status": "up"}
			}
		} else {
			report["redis"] = map[string]string{"status": "disabled"}
		}

		custommiddleware.RespondWithJSON(w, status, report)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
