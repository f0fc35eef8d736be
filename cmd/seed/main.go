package main

import (
	"context"
	"time"

	"furnishop/internal/cache"
	"furnishop/internal/config"
	"furnishop/internal/database"
	"furnishop/internal/domain"
	"furnishop/internal/logger"
	"furnishop/internal/repository"
	"furnishop/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Demo products inserted per default category.
var demoProducts = map[string][]struct {
	title       string
	description string
	price       float64
}{
	"Home Furniture": {
		{"Oak Dining Table", "Solid oak table seating six", 549},
		{"Linen Sofa", "Three-seater in natural linen", 899},
	},
	"Office Furniture": {
		{"Standing Desk", "Electric height-adjustable desk", 429},
	},
	"Lightings": {
		{"Brass Floor Lamp", "Adjustable arm, warm white", 129},
	},
	"Home Decor": {
		{"Wool Throw Blanket", "Hand-woven, 130x170cm", 59},
	},
}

func main() {
	// Missing .env is fine when configuration comes from real env vars.
	_ = godotenv.Load()

	log := logger.NewWithDefaults()
	defer log.Sync()

	cfg := config.Load()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	imageRepo := repository.NewImageRepository(db)
	catalog := service.NewCatalogService(
		productRepo,
		categoryRepo,
		imageRepo,
		cache.New[[]*domain.Product](service.ProductCacheTTL),
		cache.New[[]*domain.CategoryWithCount](service.CategoryCacheTTL),
		log,
	)

	// Seeds the default categories when the catalog is empty.
	categories, err := catalog.ListCategories(ctx)
	if err != nil {
		log.Fatal("Failed to list categories", zap.Error(err))
	}

	byName := make(map[string]string, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	inserted := 0
	for categoryName, products := range demoProducts {
		categoryID, ok := byName[categoryName]
		if !ok {
			log.Warn("Category missing, skipping its demo products", zap.String("name", categoryName))
			continue
		}

		for _, p := range products {
			_, err := catalog.CreateProduct(ctx, service.ProductInput{
				Title:       p.title,
				Description: p.description,
				Price:       p.price,
				CategoryID:  categoryID,
			})
			if err != nil {
				log.Error("Failed to insert demo product", zap.String("title", p.title), zap.Error(err))
				continue
			}
			inserted++
		}
	}

	log.Info("Seeding complete",
		zap.Int("categories", len(categories)),
		zap.Int("products", inserted),
	)
}
