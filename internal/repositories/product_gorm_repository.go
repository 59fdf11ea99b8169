package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxAppendAttempts bounds the compare-and-swap loop in AppendReview.
const maxAppendAttempts = 8

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	if product.Reviews == nil {
		product.Reviews = models.ReviewList{}
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Reviews == nil {
		product.Reviews = models.ReviewList{}
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates the catalog fields of an existing product. Reviews and the
// derived aggregates are left untouched.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":        product.Name,
			"price":       product.Price,
			"description": product.Description,
			"category":    product.Category,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendReview reads the product, appends the review in memory and writes the
// review list back only if nobody else bumped the version in between. A lost
// race re-reads and re-applies.
func (r *GORMProductRepository) AppendReview(ctx context.Context, id string, review models.Review) (*models.Product, error) {
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		product, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		prev := product.Version
		product.AppendReview(review)
		product.Version = prev + 1
		product.UpdatedAt = time.Now()

		res := r.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND version = ?", id, prev).
			Updates(map[string]interface{}{
				"reviews":       product.Reviews,
				"rating":        product.Rating,
				"total_reviews": product.TotalReviews,
				"version":       product.Version,
				"updated_at":    product.UpdatedAt,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to append review to product %s: %w", id, res.Error)
		}
		if res.RowsAffected == 1 {
			return product, nil
		}
	}
	return nil, fmt.Errorf("append review to product %s: %w", id, ErrConflict)
}
