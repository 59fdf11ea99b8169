package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the catalog fields (name, price, description, category).
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// AppendReview atomically appends review to the product and stores the
	// recomputed aggregates, returning the stored product.
	AppendReview(ctx context.Context, id string, review models.Review) (*models.Product, error)
}
