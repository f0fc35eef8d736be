package transport

import (
	"errors"
	"net/http"

	"furnishop/internal/middleware"
	"furnishop/internal/repository"
	"furnishop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ImageRefRequest is one image reference in a product payload
type ImageRefRequest struct {
	Key string `json:"key" validate:"required"`
	URL string `json:"url" validate:"omitempty,url"`
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Title       string            `json:"title" validate:"required,min=1"`
	Description string            `json:"description"`
	Price       float64           `json:"price" validate:"gte=0"`
	CategoryID  string            `json:"categoryId" validate:"required,min=1"`
	Images      []ImageRefRequest `json:"images" validate:"omitempty,dive"`
}

// UpsertProductRequest represents the partial payload of PUT. Nil fields
// are left untouched on update and defaulted on create.
type UpsertProductRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=1"`
	Description *string            `json:"description"`
	Price       *float64           `json:"price" validate:"omitempty,gte=0"`
	CategoryID  *string            `json:"categoryId"`
	Images      *[]ImageRefRequest `json:"images" validate:"omitempty,dive"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers all product routes. Reads are public; writes
// require an admin session.
func (h *ProductHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Upsert)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles product listing with optional q and categoryId filters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		Query:      r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("categoryId"),
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles fetching a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to fetch product", zap.String("id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), service.ProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Images:      imageRefs(req.Images),
	})
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("id", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Upsert handles PUT with update-if-exists-else-create semantics
func (h *ProductHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpsertProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := service.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	}
	if req.Images != nil {
		refs := imageRefs(*req.Images)
		patch.Images = &refs
	}

	product, created, err := h.catalog.UpsertProduct(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, service.ErrNoCategories) {
			middleware.RespondWithError(w, http.StatusBadRequest, "no categories exist, create a category first")
			return
		}
		h.logger.Error("Failed to upsert product", zap.String("id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.RespondWithJSON(w, status, product)
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.String("id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func imageRefs(reqs []ImageRefRequest) []service.ImageRef {
	refs := make([]service.ImageRef, 0, len(reqs))
	for _, r := range reqs {
		refs = append(refs, service.ImageRef{Key: r.Key, URL: r.URL})
	}
	return refs
}
