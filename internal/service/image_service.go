package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"furnishop/internal/cache"
	"furnishop/internal/domain"
	"furnishop/internal/repository"
	"furnishop/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// blobOpTimeout bounds every outbound blob-store call.
const blobOpTimeout = 30 * time.Second

var (
	ErrInvalidMimeType      = errors.New("only image mime types are accepted")
	ErrInvalidInlineImage   = errors.New("invalid base64 image format")
	ErrBlobStoreUnavailable = errors.New("object storage is not configured")
)

var dataURLPattern = regexp.MustCompile(`^data:([A-Za-z0-9.+/-]+);base64,(.+)$`)

// MigrationReport summarizes a base64-to-blob migration batch. A single bad
// image never fails the batch; it is counted and left inline.
type MigrationReport struct {
	Migrated int `json:"migrated"`
	Failed   int `json:"failed"`
}

// ImageService governs the attachment relationship between products and
// their images: uploads, presigned delegation, detachment, and migration of
// legacy inline payloads into the blob store.
type ImageService interface {
	AttachUploaded(ctx context.Context, productID string, body io.Reader, size int64, contentType string) (storage.UploadedImage, error)
	PresignUpload(ctx context.Context, productID, mimeType string) (storage.PresignedUpload, error)
	SignKey(ctx context.Context, key, contentType string) (uploadURL, publicURL string, err error)
	Detach(ctx context.Context, productID, urlOrKey string) error
	MigrateInline(ctx context.Context, productID string) (MigrationReport, error)
	NormalizeKey(ctx context.Context, image domain.Image) (domain.Image, bool, error)
	Status() BlobStatus
}

// BlobStatus reports whether uploads can work at all.
type BlobStatus struct {
	Configured bool   `json:"configured"`
	Bucket     string `json:"bucket,omitempty"`
	Region     string `json:"region,omitempty"`
}

type imageService struct {
	productRepo  repository.ProductRepository
	imageRepo    repository.ImageRepository
	blob         storage.BlobStore
	productCache *cache.TTLCache[[]*domain.Product]
	logger       *zap.Logger
}

// NewImageService creates a new instance of ImageService
func NewImageService(
	productRepo repository.ProductRepository,
	imageRepo repository.ImageRepository,
	blob storage.BlobStore,
	productCache *cache.TTLCache[[]*domain.Product],
	logger *zap.Logger,
) ImageService {
	return &imageService{
		productRepo:  productRepo,
		imageRepo:    imageRepo,
		blob:         blob,
		productCache: productCache,
		logger:       logger,
	}
}

// AttachUploaded uploads the bytes to the blob store under the product's
// namespace and appends the resulting URL to the product's image list.
func (s *imageService) AttachUploaded(ctx context.Context, productID string, body io.Reader, size int64, contentType string) (storage.UploadedImage, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return storage.UploadedImage{}, ErrInvalidMimeType
	}
	if !s.blob.Configured() {
		return storage.UploadedImage{}, ErrBlobStoreUnavailable
	}

	// Resolve the product before spending an upload on it.
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return storage.UploadedImage{}, err
	}

	blobCtx, cancel := context.WithTimeout(ctx, blobOpTimeout)
	defer cancel()

	uploaded, err := s.blob.Put(blobCtx, objectKey(productID, contentType), body, size, contentType)
	if err != nil {
		return storage.UploadedImage{}, fmt.Errorf("failed to upload image: %w", err)
	}

	image := domain.Image{
		ID:        uuid.NewString(),
		ProductID: productID,
		Key:       uploaded.Key,
		URL:       uploaded.URL,
	}
	if err := s.imageRepo.Append(ctx, image); err != nil {
		return storage.UploadedImage{}, err
	}

	s.productCache.Invalidate()
	return uploaded, nil
}

// PresignUpload hands the client a temporary URL to upload directly,
// together with the key and eventual public URL.
func (s *imageService) PresignUpload(ctx context.Context, productID, mimeType string) (storage.PresignedUpload, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return storage.PresignedUpload{}, ErrInvalidMimeType
	}
	if !s.blob.Configured() {
		return storage.PresignedUpload{}, ErrBlobStoreUnavailable
	}

	key := objectKey(productID, mimeType)

	blobCtx, cancel := context.WithTimeout(ctx, blobOpTimeout)
	defer cancel()

	uploadURL, err := s.blob.PresignPut(blobCtx, key)
	if err != nil {
		return storage.PresignedUpload{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	return storage.PresignedUpload{
		UploadURL: uploadURL,
		Key:       key,
		URL:       s.blob.PublicURL(key),
	}, nil
}

// SignKey presigns an arbitrary caller-chosen key.
func (s *imageService) SignKey(ctx context.Context, key, contentType string) (string, string, error) {
	blobCtx, cancel := context.WithTimeout(ctx, blobOpTimeout)
	defer cancel()

	uploadURL, err := s.blob.PresignPut(blobCtx, key)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return uploadURL, s.blob.PublicURL(key), nil
}

// Detach removes the matching image row. Blob-backed entries also get a
// best-effort delete against the store; a failed blob delete never blocks
// removing the local reference.
func (s *imageService) Detach(ctx context.Context, productID, urlOrKey string) error {
	image, err := s.imageRepo.FindByRef(ctx, productID, urlOrKey)
	if err != nil {
		return err
	}

	if !image.IsInline() {
		key := image.Key
		if key == "" {
			key = keyFromURL(image.URL, s.blob.HostSuffix())
		}
		if key != "" {
			blobCtx, cancel := context.WithTimeout(ctx, blobOpTimeout)
			if err := s.blob.Delete(blobCtx, key); err != nil {
				s.logger.Warn("Failed to delete blob, removing reference anyway",
					zap.String("key", key),
					zap.Error(err),
				)
			}
			cancel()
		}
	}

	if err := s.imageRepo.DeleteByID(ctx, image.ID); err != nil {
		return err
	}

	s.productCache.Invalidate()
	return nil
}

// MigrateInline moves every inline base64 image of a product into the blob
// store. Malformed or failed entries stay inline and are counted; the batch
// never aborts on a single failure.
func (s *imageService) MigrateInline(ctx context.Context, productID string) (MigrationReport, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return MigrationReport{}, err
	}

	images, err := s.imageRepo.ListByProduct(ctx, productID)
	if err != nil {
		return MigrationReport{}, err
	}

	report := MigrationReport{}
	for _, image := range images {
		if !image.IsInline() {
			continue
		}

		payload := image.URL
		if !strings.HasPrefix(payload, "data:") {
			payload = image.Key
		}

		uploaded, err := s.migrateOne(ctx, productID, payload)
		if err != nil {
			s.logger.Warn("Failed to migrate inline image",
				zap.String("product_id", productID),
				zap.String("image_id", image.ID),
				zap.Error(err),
			)
			report.Failed++
			continue
		}

		if err := s.imageRepo.UpdateRef(ctx, image.ID, uploaded.Key, uploaded.URL); err != nil {
			report.Failed++
			continue
		}
		report.Migrated++
	}

	if report.Migrated > 0 {
		s.productCache.Invalidate()
	}

	return report, nil
}

func (s *imageService) migrateOne(ctx context.Context, productID, payload string) (storage.UploadedImage, error) {
	mimeType, data, err := decodeDataURL(payload)
	if err != nil {
		return storage.UploadedImage{}, err
	}

	blobCtx, cancel := context.WithTimeout(ctx, blobOpTimeout)
	defer cancel()

	return s.blob.Put(blobCtx, objectKey(productID, mimeType), bytes.NewReader(data), int64(len(data)), mimeType)
}

// NormalizeKey fixes historical rows whose key field holds a full blob URL:
// the key becomes the bare object key and any query parameters are stripped
// from the URL. Returns the (possibly unchanged) image and whether it was
// rewritten.
func (s *imageService) NormalizeKey(ctx context.Context, image domain.Image) (domain.Image, bool, error) {
	if !strings.Contains(image.Key, s.blob.HostSuffix()) {
		return image, false, nil
	}

	key := keyFromURL(image.Key, s.blob.HostSuffix())
	if key == "" {
		return image, false, nil
	}

	url, _, _ := strings.Cut(image.URL, "?")

	if err := s.imageRepo.UpdateRef(ctx, image.ID, key, url); err != nil {
		return image, false, err
	}

	image.Key = key
	image.URL = url
	return image, true, nil
}

// Status reports blob-store configuration for the status endpoint.
func (s *imageService) Status() BlobStatus {
	if !s.blob.Configured() {
		return BlobStatus{Configured: false}
	}
	return BlobStatus{
		Configured: true,
		Bucket:     s.blob.Bucket(),
		Region:     s.blob.Region(),
	}
}

// objectKey namespaces uploads per product: products/<id>/<uuid>.<ext>
func objectKey(productID, mimeType string) string {
	ext := "jpg"
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		ext = sub
	}
	return fmt.Sprintf("products/%s/%s.%s", productID, uuid.NewString(), ext)
}

// keyFromURL extracts the bare object key from a full blob URL, dropping
// any query parameters.
func keyFromURL(url, hostSuffix string) string {
	idx := strings.Index(url, hostSuffix)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(hostSuffix):]
	rest = strings.TrimPrefix(rest, "/")
	key, _, _ := strings.Cut(rest, "?")
	return key
}

// decodeDataURL splits a data:<mime>;base64,<data> payload into its mime
// type and decoded bytes.
func decodeDataURL(payload string) (string, []byte, error) {
	matches := dataURLPattern.FindStringSubmatch(payload)
	if len(matches) != 3 {
		return "", nil, ErrInvalidInlineImage
	}

	data, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidInlineImage, err)
	}

	return matches[1], data, nil
}
