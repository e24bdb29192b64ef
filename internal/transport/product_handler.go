package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the admin payload for creating or replacing a product
type ProductRequest struct {
	Name          string               `json:"name" validate:"required,max=200"`
	Slug          string               `json:"slug" validate:"max=200"`
	Description   string               `json:"description"`
	Price         decimal.Decimal      `json:"price"`
	DiscountPrice *decimal.Decimal     `json:"discount_price"`
	CategoryID    *uuid.UUID           `json:"category_id"`
	Images        []string             `json:"images" validate:"dive,required"`
	Sizes         []string             `json:"sizes"`
	Colors        []string             `json:"colors"`
	Stock         int                  `json:"stock" validate:"gte=0"`
	Status        domain.ProductStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Featured      bool                 `json:"featured"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		CategoryID:    req.CategoryID,
		Images:        req.Images,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		Stock:         req.Stock,
		Status:        req.Status,
		Featured:      req.Featured,
	}
}

// ReviewRequest is a customer's rating of a product
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ProductHandler serves the catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// RegisterRoutes registers the public catalog and the review endpoints
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/related", h.Related)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/{id}/reviews", h.AddReview)
			r.Delete("/{id}/reviews/{reviewID}", h.DeleteReview)
		})
	})
}

// RegisterAdminRoutes registers product management under an admin-only router
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/products", h.AdminList)
	r.Get("/products/{id}", h.AdminGet)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
}

func productQuery(r *http.Request) service.ProductQuery {
	q := r.URL.Query()
	page, limit := pageQuery(r)
	return service.ProductQuery{
		CategorySlug: q.Get("category"),
		Search:       q.Get("search"),
		MinPrice:     queryDecimal(r, "min_price"),
		MaxPrice:     queryDecimal(r, "max_price"),
		Featured:     queryBool(r, "featured"),
		Sort:         q.Get("sort"),
		Page:         page,
		PageSize:     limit,
	}
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, query service.ProductQuery) {
	products, total, err := h.productService.List(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list products")
		return
	}
	middleware.RespondWithPage(w, products, middleware.NewPagination(query.Page, query.PageSize, total))
}

// List returns active products with filters, sorting and paging
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, productQuery(r))
}

// AdminList also returns inactive products and can filter by status
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	query := productQuery(r)
	query.IncludeInactive = true
	query.Status = domain.ProductStatus(r.URL.Query().Get("status"))
	h.list(w, r, query)
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"), includeInactive)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, product)
}

// Get returns one active product by id or slug, with its reviews
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, false)
}

// AdminGet returns a product regardless of status
func (h *ProductHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, true)
}

// Related lists other products of the same category
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	products, err := h.productService.Related(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list related products")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, products)
}

// Create adds a product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	product, err := h.productService.Create(r.Context(), req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	middleware.RespondWithSuccess(w, http.StatusCreated, product)
}

// Update replaces the editable fields of a product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, message{"product deleted"})
}

// AddReview rates a product once per user
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	review, err := h.productService.AddReview(r.Context(), productID, userID, service.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to add review")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusCreated, review)
}

// DeleteReview removes a review. Only its author or an admin may do so.
func (h *ProductHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}

	if err := h.productService.DeleteReview(r.Context(), productID, reviewID, userID, middleware.IsAdmin(r.Context())); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete review")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, message{"review deleted"})
}
