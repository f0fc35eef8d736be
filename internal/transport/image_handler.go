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

// maxUploadBytes caps direct image uploads at 10MB.
const maxUploadBytes = 10 << 20

// PresignRequest represents the presigned-url payload
type PresignRequest struct {
	MimeType string `json:"mimeType" validate:"required,startswith=image/"`
}

// DetachRequest represents the image delete payload
type DetachRequest struct {
	ProductID string `json:"productId" validate:"required"`
	ImageURL  string `json:"imageUrl" validate:"required"`
}

// ImageHandler handles HTTP requests for image attachment operations
type ImageHandler struct {
	images service.ImageService
	logger *zap.Logger
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(images service.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// RegisterRoutes registers all image routes. Everything here mutates
// product state or mints upload capability, so it all sits behind a
// session, except the read-only status probe.
func (h *ImageHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Route("/api/images", func(r chi.Router) {
		r.Get("/status", h.Status)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/upload/{productID}", h.Upload)
			r.Post("/presigned-url/{productID}", h.Presign)
			r.Post("/migrate/{productID}", h.Migrate)
			r.Delete("/delete", h.Detach)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/api/s3/sign", h.Sign)
	})
}

// Status reports whether the blob store is configured
func (h *ImageHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.images.Status())
}

// Upload accepts a multipart image file and attaches it to the product
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	uploaded, err := h.images.AttachUploaded(r.Context(), productID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInvalidMimeType):
			middleware.RespondWithError(w, http.StatusBadRequest, "only image files are allowed")
		default:
			h.logger.Error("Failed to upload image", zap.String("product_id", productID), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to upload image")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Image uploaded successfully",
		"image":   uploaded,
	})
}

// Presign hands out a temporary direct-upload URL for the product
func (h *ImageHandler) Presign(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req PresignRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid mime type")
		return
	}

	presigned, err := h.images.PresignUpload(r.Context(), productID, req.MimeType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMimeType) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid mime type")
			return
		}
		h.logger.Error("Failed to presign upload", zap.String("product_id", productID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to generate upload URL")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, presigned)
}

// Sign presigns an arbitrary key chosen by the caller
func (h *ImageHandler) Sign(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "key is required")
		return
	}

	contentType := r.URL.Query().Get("contentType")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	uploadURL, publicURL, err := h.images.SignKey(r.Context(), key, contentType)
	if err != nil {
		h.logger.Error("Failed to sign key", zap.String("key", key), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to generate signed URL")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": uploadURL,
		"publicUrl": publicURL,
	})
}

// Migrate moves a product's inline base64 images into the blob store
func (h *ImageHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	report, err := h.images.MigrateInline(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to migrate images", zap.String("product_id", productID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to migrate images")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// Detach removes an image reference, deleting the blob best-effort
func (h *ImageHandler) Detach(w http.ResponseWriter, r *http.Request) {
	var req DetachRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "product ID and image URL required")
		return
	}

	if err := h.images.Detach(r.Context(), req.ProductID, req.ImageURL); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "image not found")
			return
		}
		h.logger.Error("Failed to detach image", zap.String("product_id", req.ProductID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Image deleted successfully"})
}
