package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// ProductService handles business logic related to products and their reviews.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	cache     ProductCache
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher and cache may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, cache ProductCache, log *zap.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		log:       log.With(zap.String("service", "product")),
	}
}

type CreateProductInput struct {
	Name        string
	Price       int64
	Description string
	Category    string
}

// UpdateProductInput carries a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Price       *int64
	Description *string
	Category    *string
}

type ReviewInput struct {
	Rating  int
	Comment string
}

type productEvent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        int64   `json:"price"`
	Category     string  `json:"category"`
	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"total_reviews"`
}

type reviewEvent struct {
	ProductID    string  `json:"product_id"`
	Rating       int     `json:"rating"`
	Comment      string  `json:"comment"`
	NewRating    float64 `json:"new_rating"`
	TotalReviews int     `json:"total_reviews"`
}

func notFoundProduct(err error, id string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return err
}

// ListAll retrieves all products.
func (s *ProductService) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// Get retrieves a single product by its ID, consulting the cache first.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundProduct(err, id)
	}

	s.store(ctx, product)
	return product, nil
}

// Create stores a new product with no reviews.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	product := models.NewProduct(in.Name, in.Price, in.Description, in.Category)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.store(ctx, product)
	s.log.Info("Product created", zap.String("product_id", product.ID))
	s.publish(ctx, EventProductCreated, productPayload(product))
	return product, nil
}

// Update merges the catalog fields of a product. Reviews and the rating
// aggregates cannot be changed here.
func (s *ProductService) Update(ctx context.Context, id string, in UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundProduct(err, id)
	}

	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = *in.Category
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, notFoundProduct(err, id)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundProduct(err, id)
	}
	s.store(ctx, updated)
	s.log.Info("Product updated", zap.String("product_id", id))
	s.publish(ctx, EventProductUpdated, productPayload(updated))
	return updated, nil
}

// Delete removes a product and returns the removed record.
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundProduct(err, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, notFoundProduct(err, id)
	}
	s.invalidate(ctx, id)

	s.log.Info("Product deleted", zap.String("product_id", id))
	s.publish(ctx, EventProductDeleted, productPayload(product))
	return product, nil
}

// AddReview appends a review stamped with the current time and returns the
// product with its recomputed rating and review count.
func (s *ProductService) AddReview(ctx context.Context, id string, in ReviewInput) (*models.Product, error) {
	if in.Rating < 1 || in.Rating > 10 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidReview, in.Rating)
	}

	review := models.Review{
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now(),
	}
	product, err := s.repo.AppendReview(ctx, id, review)
	if err != nil {
		return nil, notFoundProduct(err, id)
	}
	s.store(ctx, product)

	s.log.Info("Review added",
		zap.String("product_id", id),
		zap.Int("rating", in.Rating),
		zap.Float64("new_rating", product.Rating),
		zap.Int("total_reviews", product.TotalReviews),
	)
	s.publish(ctx, EventProductReviewed, reviewEvent{
		ProductID:    id,
		Rating:       in.Rating,
		Comment:      in.Comment,
		NewRating:    product.Rating,
		TotalReviews: product.TotalReviews,
	})
	return product, nil
}

// store writes product through to the cache, which keeps the newest version.
func (s *ProductService) store(ctx context.Context, product *models.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, product); err != nil {
		s.log.Warn("Product cache write failed", zap.String("product_id", product.ID), zap.Error(err))
	}
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("Product cache invalidation failed", zap.String("product_id", id), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, event string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		s.log.Warn("Failed to publish event", zap.String("event", event), zap.Error(err))
	}
}

func productPayload(p *models.Product) productEvent {
	return productEvent{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Category:     p.Category,
		Rating:       p.Rating,
		TotalReviews: p.TotalReviews,
	}
}
