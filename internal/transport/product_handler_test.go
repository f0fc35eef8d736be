package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"furnishop/internal/domain"
	"furnishop/internal/middleware"
	"furnishop/internal/repository"
	"furnishop/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductList_PassesFilters(t *testing.T) {
	var gotFilter repository.ProductFilter
	router := newProductRouter(&stubCatalog{
		listProducts: func(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
			gotFilter = filter
			return []*domain.Product{{ID: "p1", Title: "Lamp"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?q=lamp&categoryId=c1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.ProductFilter{Query: "lamp", CategoryID: "c1"}, gotFilter)

	var products []domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "Lamp", products[0].Title)
}

func TestProductGet_NotFound(t *testing.T) {
	router := newProductRouter(&stubCatalog{
		getProduct: func(ctx context.Context, id string) (*domain.Product, error) {
			return nil, repository.ErrProductNotFound
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductCreate_Valid(t *testing.T) {
	var gotInput service.ProductInput
	router := newProductRouter(&stubCatalog{
		createProduct: func(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
			gotInput = input
			return &domain.Product{ID: "p1", Title: input.Title, Price: input.Price}, nil
		},
	})

	body := `{
		"title": "Oak Table",
		"description": "Solid oak",
		"price": 549,
		"categoryId": "c1",
		"images": [{"key": "products/p1/a.jpg", "url": "https://img/a.jpg"}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Oak Table", gotInput.Title)
	assert.Equal(t, "c1", gotInput.CategoryID)
	require.Len(t, gotInput.Images, 1)
	assert.Equal(t, "products/p1/a.jpg", gotInput.Images[0].Key)
}

func TestProductCreate_ValidationFailure(t *testing.T) {
	router := newProductRouter(&stubCatalog{
		createProduct: func(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
			t.Fatal("service should not be reached on invalid payload")
			return nil, nil
		},
	})

	cases := map[string]string{
		"missing title":    `{"price": 10, "categoryId": "c1"}`,
		"negative price":   `{"title": "X", "price": -1, "categoryId": "c1"}`,
		"missing category": `{"title": "X", "price": 10}`,
		"not json":         `{{{`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProductUpsert_CreatedVsUpdatedStatus(t *testing.T) {
	for _, tc := range []struct {
		name       string
		created    bool
		wantStatus int
	}{
		{"created", true, http.StatusCreated},
		{"updated", false, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := newProductRouter(&stubCatalog{
				upsertProduct: func(ctx context.Context, id string, patch service.ProductPatch) (*domain.Product, bool, error) {
					return &domain.Product{ID: id}, tc.created, nil
				},
			})

			req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader(`{"title": "Renamed"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestProductUpsert_PartialPatchKeepsNilFields(t *testing.T) {
	var gotPatch service.ProductPatch
	router := newProductRouter(&stubCatalog{
		upsertProduct: func(ctx context.Context, id string, patch service.ProductPatch) (*domain.Product, bool, error) {
			gotPatch = patch
			return &domain.Product{ID: id}, false, nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader(`{"price": 99.5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotPatch.Price)
	assert.Equal(t, 99.5, *gotPatch.Price)
	assert.Nil(t, gotPatch.Title)
	assert.Nil(t, gotPatch.Description)
	assert.Nil(t, gotPatch.CategoryID)
	assert.Nil(t, gotPatch.Images)
}

func TestProductUpsert_NoCategories(t *testing.T) {
	router := newProductRouter(&stubCatalog{
		upsertProduct: func(ctx context.Context, id string, patch service.ProductPatch) (*domain.Product, bool, error) {
			return nil, false, service.ErrNoCategories
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error.Message, "no categories")
}

func TestProductDelete(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		router := newProductRouter(&stubCatalog{
			deleteProduct: func(ctx context.Context, id string) error { return nil },
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/p1", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		router := newProductRouter(&stubCatalog{
			deleteProduct: func(ctx context.Context, id string) error { return repository.ErrProductNotFound },
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/p1", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
