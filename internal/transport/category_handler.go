package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryRequest is the admin payload for a category
type CategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=120"`
	Slug        string     `json:"slug" validate:"max=120"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Active      *bool      `json:"active"`
	SortOrder   int        `json:"sort_order"`
}

func (req CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
		Active:      req.Active,
		SortOrder:   req.SortOrder,
	}
}

// CategoryHandler serves the category tree
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, logger: logger}
}

// RegisterRoutes registers the public category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.Tree)
		r.Get("/{slug}", h.Get)
	})
}

// RegisterAdminRoutes registers category management under an admin-only router
func (h *CategoryHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/categories", h.AdminList)
	r.Post("/categories", h.Create)
	r.Put("/categories/{id}", h.Update)
	r.Delete("/categories/{id}", h.Delete)
}

// Tree returns active categories nested under their parents
func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categoryService.ListTree(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, tree)
}

// Get returns one active category by slug
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.categoryService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get category")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, category)
}

// AdminList returns every category, active or not, as a flat list
func (h *CategoryHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.ListFlat(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, categories)
}

// Create adds a category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithSuccess(w, http.StatusCreated, category)
}

// Update edits a category, refusing moves that would create a cycle
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update category")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, category)
}

// Delete removes a category without children or products
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete category")
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, message{"category deleted"})
}
