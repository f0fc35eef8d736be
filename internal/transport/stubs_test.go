package transport

import (
	"context"
	"net/http"

	"furnishop/internal/domain"
	"furnishop/internal/repository"
	"furnishop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// stubCatalog lets each test plug in just the method it exercises.
type stubCatalog struct {
	listProducts   func(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	getProduct     func(ctx context.Context, id string) (*domain.Product, error)
	createProduct  func(ctx context.Context, input service.ProductInput) (*domain.Product, error)
	upsertProduct  func(ctx context.Context, id string, patch service.ProductPatch) (*domain.Product, bool, error)
	deleteProduct  func(ctx context.Context, id string) error
	listCategories func(ctx context.Context) ([]*domain.CategoryWithCount, error)
	createCategory func(ctx context.Context, name string) (*domain.CategoryWithCount, error)
	renameCategory func(ctx context.Context, id, name string) (*domain.CategoryWithCount, error)
	deleteCategory func(ctx context.Context, id string) error
}

func (s *stubCatalog) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	return s.listProducts(ctx, filter)
}

func (s *stubCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, id)
}

func (s *stubCatalog) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	return s.createProduct(ctx, input)
}

func (s *stubCatalog) UpsertProduct(ctx context.Context, id string, patch service.ProductPatch) (*domain.Product, bool, error) {
	return s.upsertProduct(ctx, id, patch)
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteProduct(ctx, id)
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	return s.listCategories(ctx)
}

func (s *stubCatalog) CreateCategory(ctx context.Context, name string) (*domain.CategoryWithCount, error) {
	return s.createCategory(ctx, name)
}

func (s *stubCatalog) RenameCategory(ctx context.Context, id, name string) (*domain.CategoryWithCount, error) {
	return s.renameCategory(ctx, id, name)
}

func (s *stubCatalog) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteCategory(ctx, id)
}

// passSession stands in for the real session middleware on write routes.
func passSession(next http.Handler) http.Handler { return next }

func newProductRouter(catalog service.CatalogService) chi.Router {
	router := chi.NewRouter()
	NewProductHandler(catalog, zap.NewNop()).RegisterRoutes(router, passSession)
	return router
}

func newCategoryRouter(catalog service.CatalogService) chi.Router {
	router := chi.NewRouter()
	NewCategoryHandler(catalog, zap.NewNop()).RegisterRoutes(router, passSession)
	return router
}
