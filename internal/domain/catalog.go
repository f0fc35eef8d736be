package domain

import (
	"strings"
	"time"
)

// Category groups products in the catalog. IDs are opaque strings so that
// callers may supply their own identifiers.
type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CategoryWithCount is a category together with the number of products that
// reference it, as returned by the category listing.
type CategoryWithCount struct {
	Category
	ProductCount int `json:"productCount"`
}

// Product is a catalog entry. Category is resolved at read time and may be
// nil when the referenced category has been deleted.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	CategoryID  string    `json:"categoryId" db:"category_id"`
	Category    *Category `json:"category"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Image is one attachment owned by a product. Key is the blob-store object
// key; URL is the retrievable address. Legacy records may instead hold an
// inline base64 data URL, which the migration operation normalizes away.
type Image struct {
	ID        string `json:"id" db:"id"`
	ProductID string `json:"productId" db:"product_id"`
	Key       string `json:"key" db:"key"`
	URL       string `json:"url" db:"url"`
}

const inlineDataPrefix = "data:"

// IsInline reports whether the image payload is embedded as a data URL
// rather than referencing the blob store.
func (i Image) IsInline() bool {
	return strings.HasPrefix(i.URL, inlineDataPrefix) || strings.HasPrefix(i.Key, inlineDataPrefix)
}
