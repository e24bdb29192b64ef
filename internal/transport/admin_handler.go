package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsHandler exposes the store settings
type SettingsHandler struct {
	settingsService service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, logger: logger}
}

// RegisterRoutes registers the public settings read
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/settings", h.Get)
}

// RegisterAdminRoutes registers the settings update under an admin-only router
func (h *SettingsHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/settings", h.Update)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get settings")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, settings.Values)
}

// Update replaces the whole settings document
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var values domain.SettingsValues
	if err := middleware.DecodeAndValidate(r, &values); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), values)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update settings")
		return
	}

	h.logger.Info("Settings updated")
	middleware.RespondWithSuccess(w, http.StatusOK, settings.Values)
}

// DashboardHandler serves the back office aggregates
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

// RegisterAdminRoutes registers the dashboard under an admin-only router
func (h *DashboardHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/recent-orders", h.RecentOrders)
		r.Get("/top-products", h.TopProducts)
		r.Get("/revenue", h.Revenue)
	})
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load dashboard stats")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, stats)
}

func (h *DashboardHandler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.dashboardService.RecentOrders(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load recent orders")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, orders)
}

func (h *DashboardHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.dashboardService.TopProducts(r.Context(), queryInt(r, "limit", 5))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load top products")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, products)
}

// Revenue returns one row per day for the last `days` days
func (h *DashboardHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dashboardService.RevenueByDay(r.Context(), queryInt(r, "days", 30))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load revenue")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, rows)
}
