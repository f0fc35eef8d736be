package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furnishop/internal/cache"
	"furnishop/internal/domain"
	"furnishop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Unfiltered product listings are cached briefly; categories change
	// less often and get a longer window.
	ProductCacheTTL  = 30 * time.Second
	CategoryCacheTTL = 60 * time.Second

	defaultProductTitle = "New Product"
)

// DefaultCategories are seeded the first time the catalog is read while
// completely empty.
var DefaultCategories = []string{
	"Home Furniture",
	"Office Furniture",
	"Lightings",
	"Home Decor",
}

var (
	ErrNoCategories       = errors.New("no categories exist")
	ErrInvalidCategory    = errors.New("category name must be between 1 and 100 characters")
	ErrInvalidProductData = errors.New("invalid product data")
)

// ImageRef is an image reference supplied by a client: a blob-store key and
// optionally its URL.
type ImageRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ProductInput carries the fields of a full product create.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	CategoryID  string
	Images      []ImageRef
}

// ProductPatch carries the fields of a partial update. Nil means "leave
// unchanged"; a non-nil Images pointer replaces the whole image set.
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *float64
	CategoryID  *string
	Images      *[]ImageRef
}

// CatalogService defines product and category business logic
type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpsertProduct(ctx context.Context, id string, patch ProductPatch) (product *domain.Product, created bool, err error)
	DeleteProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]*domain.CategoryWithCount, error)
	CreateCategory(ctx context.Context, name string) (*domain.CategoryWithCount, error)
	RenameCategory(ctx context.Context, id, name string) (*domain.CategoryWithCount, error)
	DeleteCategory(ctx context.Context, id string) error
}

type catalogService struct {
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	imageRepo     repository.ImageRepository
	productCache  *cache.TTLCache[[]*domain.Product]
	categoryCache *cache.TTLCache[[]*domain.CategoryWithCount]
	logger        *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService. The caches are
// injected so their lifecycle is owned by the caller.
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	imageRepo repository.ImageRepository,
	productCache *cache.TTLCache[[]*domain.Product],
	categoryCache *cache.TTLCache[[]*domain.CategoryWithCount],
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		imageRepo:     imageRepo,
		productCache:  productCache,
		categoryCache: categoryCache,
		logger:        logger,
	}
}

// ListProducts returns products newest first. Only the unfiltered listing
// is served from cache; any filter goes straight to the store.
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	if filter.IsEmpty() {
		if products, ok := s.productCache.Get(); ok {
			return products, nil
		}
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if filter.IsEmpty() {
		s.productCache.Set(products)
	}

	return products, nil
}

// GetProduct returns one product with its full image set and category
func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// CreateProduct inserts a new product and its initial images
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if input.Title == "" || input.CategoryID == "" || input.Price < 0 {
		return nil, ErrInvalidProductData
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	if len(input.Images) > 0 {
		if err := s.imageRepo.Replace(ctx, product.ID, imageRows(product.ID, input.Images)); err != nil {
			return nil, err
		}
	}

	s.productCache.Invalidate()

	return s.productRepo.FindByID(ctx, product.ID)
}

// UpsertProduct updates the product with the given id, touching only the
// supplied fields; a supplied image list replaces the whole set. If no such
// product exists it creates one under that id, filling defaults and falling
// back to the first available category.
func (s *catalogService) UpsertProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, bool, error) {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return nil, false, err
	}

	if existing == nil {
		product, err := s.createFromPatch(ctx, id, patch)
		if err != nil {
			return nil, false, err
		}
		return product, true, nil
	}

	if patch.Title != nil {
		existing.Title = *patch.Title
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.Price != nil {
		existing.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		existing.CategoryID = *patch.CategoryID
	}
	existing.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, existing); err != nil {
		return nil, false, err
	}

	if patch.Images != nil {
		if err := s.imageRepo.Replace(ctx, id, imageRows(id, *patch.Images)); err != nil {
			return nil, false, err
		}
	}

	s.productCache.Invalidate()

	product, err := s.productRepo.FindByID(ctx, id)
	return product, false, err
}

func (s *catalogService) createFromPatch(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	categoryID := ""
	if patch.CategoryID != nil {
		categoryID = *patch.CategoryID
	}
	if categoryID == "" {
		first, err := s.categoryRepo.FindFirst(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrNoCategories
			}
			return nil, err
		}
		categoryID = first.ID
	}

	now := time.Now()
	product := &domain.Product{
		ID:          id,
		Title:       defaultProductTitle,
		Description: "",
		Price:       0,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if patch.Title != nil {
		product.Title = *patch.Title
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	if patch.Images != nil {
		if err := s.imageRepo.Replace(ctx, id, imageRows(id, *patch.Images)); err != nil {
			return nil, err
		}
	}

	s.productCache.Invalidate()

	return s.productRepo.FindByID(ctx, id)
}

// DeleteProduct removes a product's images first to satisfy the foreign
// key, then the product itself
func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return err
	}

	if err := s.imageRepo.DeleteByProduct(ctx, id); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.productCache.Invalidate()
	return nil
}

// ListCategories returns categories alphabetically with product counts,
// seeding the defaults if the catalog is completely empty.
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	if categories, ok := s.categoryCache.Get(); ok {
		return categories, nil
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	if len(categories) == 0 {
		s.logger.Info("No categories found, creating defaults")
		for _, name := range DefaultCategories {
			category := &domain.Category{
				ID:        uuid.NewString(),
				Name:      name,
				CreatedAt: time.Now(),
			}
			if err := s.categoryRepo.Create(ctx, category); err != nil {
				// A concurrent request may have seeded already; keep going.
				s.logger.Warn("Failed to create default category",
					zap.String("name", name),
					zap.Error(err),
				)
			}
		}

		categories, err = s.categoryRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories after seeding: %w", err)
		}
	}

	s.categoryCache.Set(categories)
	return categories, nil
}

// CreateCategory adds a category. Name length is checked here, before any
// store mutation; uniqueness is intentionally not enforced.
func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.CategoryWithCount, error) {
	if len(name) < 1 || len(name) > 100 {
		return nil, ErrInvalidCategory
	}

	category := &domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.categoryCache.Invalidate()

	return &domain.CategoryWithCount{Category: *category, ProductCount: 0}, nil
}

// RenameCategory updates the name only
func (s *catalogService) RenameCategory(ctx context.Context, id, name string) (*domain.CategoryWithCount, error) {
	if len(name) < 1 || len(name) > 100 {
		return nil, ErrInvalidCategory
	}

	if err := s.categoryRepo.Rename(ctx, id, name); err != nil {
		return nil, err
	}

	s.categoryCache.Invalidate()

	return s.categoryRepo.FindByIDWithCount(ctx, id)
}

// DeleteCategory removes a category without cascading: products keep their
// stale reference and render with a null category until edited.
func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.categoryCache.Invalidate()
	return nil
}

func imageRows(productID string, refs []ImageRef) []domain.Image {
	images := make([]domain.Image, 0, len(refs))
	for _, ref := range refs {
		images = append(images, domain.Image{
			ID:        uuid.NewString(),
			ProductID: productID,
			Key:       ref.Key,
			URL:       ref.URL,
		})
	}
	return images
}
