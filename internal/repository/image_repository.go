package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"furnishop/internal/domain"
)

var (
	ErrImageNotFound = errors.New("image not found")
)

// ImageRepository defines the interface for image data access
type ImageRepository interface {
	ListByProduct(ctx context.Context, productID string) ([]domain.Image, error)
	Append(ctx context.Context, image domain.Image) error
	Replace(ctx context.Context, productID string, images []domain.Image) error
	UpdateRef(ctx context.Context, id, key, url string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID string) error
	FindByRef(ctx context.Context, productID, urlOrKey string) (*domain.Image, error)
}

type imageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

// ListByProduct retrieves a product's images in attachment order
func (r *imageRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Image, error) {
	query := `
		SELECT id, product_id, key, url
		FROM images
		WHERE product_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		image := domain.Image{}
		if err := rows.Scan(&image.ID, &image.ProductID, &image.Key, &image.URL); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

// Append adds one image at the end of a product's image list
func (r *imageRepository) Append(ctx context.Context, image domain.Image) error {
	query := `
		INSERT INTO images (id, product_id, key, url, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM images WHERE product_id = $2))
	`

	_, err := r.db.ExecContext(ctx, query, image.ID, image.ProductID, image.Key, image.URL)
	if err != nil {
		return fmt.Errorf("failed to append image: %w", err)
	}

	return nil
}

// Replace swaps a product's entire image set atomically: delete all rows,
// then insert the new ones in order. Not a diff.
func (r *imageRepository) Replace(ctx context.Context, productID string, images []domain.Image) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to delete existing images: %w", err)
	}

	insert := `INSERT INTO images (id, product_id, key, url, position) VALUES ($1, $2, $3, $4, $5)`
	for i, image := range images {
		if _, err := tx.ExecContext(ctx, insert, image.ID, productID, image.Key, image.URL, i); err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit image replacement: %w", err)
	}

	return nil
}

// UpdateRef rewrites an image's key and url, used by base64 migration and
// key normalization
func (r *imageRepository) UpdateRef(ctx context.Context, id, key, url string) error {
	query := `UPDATE images SET key = $2, url = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, key, url)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// DeleteByID removes a single image row
func (r *imageRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// DeleteByProduct removes all image rows owned by a product
func (r *imageRepository) DeleteByProduct(ctx context.Context, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}

	return nil
}

// FindByRef locates a product's image by its URL or its blob-store key
func (r *imageRepository) FindByRef(ctx context.Context, productID, urlOrKey string) (*domain.Image, error) {
	query := `
		SELECT id, product_id, key, url
		FROM images
		WHERE product_id = $1 AND (url = $2 OR key = $2)
		LIMIT 1
	`

	image := &domain.Image{}
	err := r.db.QueryRowContext(ctx, query, productID, urlOrKey).Scan(
		&image.ID,
		&image.ProductID,
		&image.Key,
		&image.URL,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to find image: %w", err)
	}

	return image, nil
}
