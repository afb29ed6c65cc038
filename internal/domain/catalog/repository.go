package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository defines persistence operations for categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	Save(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}
