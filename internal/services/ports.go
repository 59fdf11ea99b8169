package services

import (
	"context"

	"storefront/internal/models"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hashed string) bool
}

// EventPublisher sends domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// ProductCache is a read-through cache for product detail lookups. Set must
// not replace an entry holding the same or a newer Version, and Delete must
// stop later Sets of that product from landing.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, bool, error)
	Set(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// Event names published by the services.
const (
	EventUserRegistered  = "user.registered"
	EventUserUpdated     = "user.updated"
	EventUserDeleted     = "user.deleted"
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventProductReviewed = "product.reviewed"
)
