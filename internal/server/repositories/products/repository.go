// Package products declares the resource store contract for products and
// its PostgreSQL implementation.
package products

import (
	"context"

	"github.com/dmitrijs2005/productkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts p and fills in ID, normalized Price and timestamps.
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	// List returns every product ordered by creation time.
	List(ctx context.Context) ([]*models.Product, error)
	// GetByID returns common.ErrorNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Delete returns common.ErrorNotFound when no row was removed.
	Delete(ctx context.Context, id string) error
}
