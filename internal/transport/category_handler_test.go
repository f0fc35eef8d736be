package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"furnishop/internal/domain"
	"furnishop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryList(t *testing.T) {
	router := newCategoryRouter(&stubCatalog{
		listCategories: func(ctx context.Context) ([]*domain.CategoryWithCount, error) {
			return []*domain.CategoryWithCount{
				{Category: domain.Category{ID: "c1", Name: "Home Decor"}, ProductCount: 3},
				{Category: domain.Category{ID: "c2", Name: "Lightings"}, ProductCount: 0},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var categories []domain.CategoryWithCount
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&categories))
	require.Len(t, categories, 2)
	assert.Equal(t, 3, categories[0].ProductCount)
}

func TestCategoryCreate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{
			createCategory: func(ctx context.Context, name string) (*domain.CategoryWithCount, error) {
				return &domain.CategoryWithCount{Category: domain.Category{ID: "c1", Name: name}}, nil
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name": "Outdoor"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var category domain.CategoryWithCount
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&category))
		assert.Equal(t, "Outdoor", category.Name)
	})

	t.Run("empty name", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{})

		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name": ""}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("name too long", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{})

		body := `{"name": "` + strings.Repeat("x", 101) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoryRename(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{
			renameCategory: func(ctx context.Context, id, name string) (*domain.CategoryWithCount, error) {
				return &domain.CategoryWithCount{Category: domain.Category{ID: id, Name: name}, ProductCount: 5}, nil
			},
		})

		req := httptest.NewRequest(http.MethodPut, "/api/categories/c1", strings.NewReader(`{"name": "Renamed"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var category domain.CategoryWithCount
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&category))
		assert.Equal(t, "Renamed", category.Name)
		assert.Equal(t, 5, category.ProductCount)
	})

	t.Run("missing", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{
			renameCategory: func(ctx context.Context, id, name string) (*domain.CategoryWithCount, error) {
				return nil, repository.ErrCategoryNotFound
			},
		})

		req := httptest.NewRequest(http.MethodPut, "/api/categories/missing", strings.NewReader(`{"name": "Renamed"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCategoryDelete(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{
			deleteCategory: func(ctx context.Context, id string) error { return nil },
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/categories/c1", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		router := newCategoryRouter(&stubCatalog{
			deleteCategory: func(ctx context.Context, id string) error { return repository.ErrCategoryNotFound },
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/categories/c1", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
