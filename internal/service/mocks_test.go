package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"furnishop/internal/domain"
	"furnishop/internal/repository"
)

// memStore is a shared in-memory backing store for the repository mocks so
// that cross-entity behavior (joins, counts, fallback category) works like
// the real schema.
type memStore struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	images     map[string][]domain.Image

	productListCalls  int
	categoryListCalls int
}

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[string]*domain.Product),
		categories: make(map[string]*domain.Category),
		images:     make(map[string][]domain.Image),
	}
}

func (s *memStore) resolve(p *domain.Product) *domain.Product {
	out := *p
	out.Category = nil
	if c, ok := s.categories[p.CategoryID]; ok {
		cc := *c
		out.Category = &cc
	}
	out.Images = append([]domain.Image{}, s.images[p.ID]...)
	return &out
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := *product
	r.s.products[p.ID] = &p
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	p := *product
	r.s.products[p.ID] = &p
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return r.s.resolve(p), nil
}

func (r *memProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.productListCalls++

	products := []*domain.Product{}
	for _, p := range r.s.products {
		if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
			if !strings.Contains(strings.ToLower(p.Title), q) &&
				!strings.Contains(strings.ToLower(p.Description), q) {
				continue
			}
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		products = append(products, r.s.resolve(p))
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

type memCategoryRepo struct{ s *memStore }

func (r *memCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *category
	r.s.categories[c.ID] = &c
	return nil
}

func (r *memCategoryRepo) List(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.categoryListCalls++

	categories := []*domain.CategoryWithCount{}
	for _, c := range r.s.categories {
		categories = append(categories, &domain.CategoryWithCount{
			Category:     *c,
			ProductCount: r.countLocked(c.ID),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *memCategoryRepo) countLocked(categoryID string) int {
	n := 0
	for _, p := range r.s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (r *memCategoryRepo) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *memCategoryRepo) FindByIDWithCount(ctx context.Context, id string) (*domain.CategoryWithCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &domain.CategoryWithCount{Category: *c, ProductCount: r.countLocked(id)}, nil
}

func (r *memCategoryRepo) FindFirst(ctx context.Context) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var first *domain.Category
	for _, c := range r.s.categories {
		if first == nil || c.Name < first.Name {
			first = c
		}
	}
	if first == nil {
		return nil, repository.ErrCategoryNotFound
	}
	cc := *first
	return &cc, nil
}

func (r *memCategoryRepo) Rename(ctx context.Context, id, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	c.Name = name
	return nil
}

func (r *memCategoryRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(r.s.categories, id)
	return nil
}

type memImageRepo struct{ s *memStore }

func (r *memImageRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Image{}, r.s.images[productID]...), nil
}

func (r *memImageRepo) Append(ctx context.Context, image domain.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.images[image.ProductID] = append(r.s.images[image.ProductID], image)
	return nil
}

func (r *memImageRepo) Replace(ctx context.Context, productID string, images []domain.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.images[productID] = append([]domain.Image{}, images...)
	return nil
}

func (r *memImageRepo) UpdateRef(ctx context.Context, id, key, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for productID, images := range r.s.images {
		for i := range images {
			if images[i].ID == id {
				images[i].Key = key
				images[i].URL = url
				r.s.images[productID] = images
				return nil
			}
		}
	}
	return repository.ErrImageNotFound
}

func (r *memImageRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for productID, images := range r.s.images {
		for i := range images {
			if images[i].ID == id {
				r.s.images[productID] = append(images[:i], images[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrImageNotFound
}

func (r *memImageRepo) DeleteByProduct(ctx context.Context, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.images, productID)
	return nil
}

func (r *memImageRepo) FindByRef(ctx context.Context, productID, urlOrKey string) (*domain.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, image := range r.s.images[productID] {
		if image.URL == urlOrKey || image.Key == urlOrKey {
			img := image
			return &img, nil
		}
	}
	return nil, repository.ErrImageNotFound
}
