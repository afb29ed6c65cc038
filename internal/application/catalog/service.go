package catalog

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/query"
)

// CreateProductInput carries a product creation request.
type CreateProductInput struct {
	SKU          string          `json:"sku" binding:"required,max=64"`
	Name         string          `json:"name" binding:"required,max=200"`
	Description  string          `json:"description"`
	Brand        string          `json:"brand" binding:"max=100"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	ComparePrice *decimal.Decimal `json:"compare_price"`
	StockQty     int             `json:"stock_qty" binding:"min=0"`
	Featured     bool            `json:"featured"`
}

// UpdateProductInput carries a partial product update. Nil fields are left
// unchanged.
type UpdateProductInput struct {
	Name         *string          `json:"name" binding:"omitempty,max=200"`
	Description  *string          `json:"description"`
	Brand        *string          `json:"brand" binding:"omitempty,max=100"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	Price        *decimal.Decimal `json:"price"`
	ComparePrice *decimal.Decimal `json:"compare_price"`
	StockQty     *int             `json:"stock_qty" binding:"omitempty,min=0"`
	IsActive     *bool            `json:"is_active"`
	Featured     *bool            `json:"featured"`
}

// Service exposes catalog reads for the storefront and writes for admins.
type Service struct {
	db         *gorm.DB
	products   domain.ProductRepository
	categories domain.CategoryRepository
	registry   *query.Registry
	timeout    time.Duration
	log        *zap.Logger
}

func NewService(db *gorm.DB, products domain.ProductRepository, categories domain.CategoryRepository, registry *query.Registry, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{
		db:         db,
		products:   products,
		categories: categories,
		registry:   registry,
		timeout:    timeout,
		log:        log,
	}
}

// ListProducts executes a bounded storefront product listing from raw query
// parameters.
func (s *Service) ListProducts(ctx context.Context, values url.Values) (*query.Result[domain.Product], error) {
	spec, _ := s.registry.Spec("products")
	b := query.NewBuilder(spec, s.log).WithTimeout(s.timeout).Parse(values)
	return query.Execute[domain.Product](ctx, s.db, b)
}

// ListCategories executes a bounded category listing.
func (s *Service) ListCategories(ctx context.Context, values url.Values) (*query.Result[domain.Category], error) {
	spec, _ := s.registry.Spec("categories")
	b := query.NewBuilder(spec, s.log).WithTimeout(s.timeout).Parse(values)
	return query.Execute[domain.Category](ctx, s.db, b)
}

// GetProduct loads one product by ID.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// GetProductBySlug loads one product by its URL slug, with its category.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.products.FindBySlug(ctx, slug)
}

// CreateProduct creates a product after checking SKU uniqueness.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if _, err := s.products.FindBySKU(ctx, in.SKU); err == nil {
		return nil, shared.NewDomainError("DUPLICATE_SKU", "A product with this SKU already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID); err != nil {
			return nil, shared.NewDomainError("INVALID_CATEGORY", "Category does not exist")
		}
	}

	p, err := domain.NewProduct(in.SKU, in.Name, in.Price)
	if err != nil {
		return nil, err
	}
	p.Description = in.Description
	p.Brand = in.Brand
	p.CategoryID = in.CategoryID
	p.ComparePrice = in.ComparePrice
	p.StockQty = in.StockQty
	p.Featured = in.Featured

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("product created",
		zap.String("product_id", p.ID.String()),
		zap.String("sku", p.SKU),
	)
	return p, nil
}

// UpdateProduct applies a partial update to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := p.Rename(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Price != nil {
		if err := p.UpdatePrice(*in.Price); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID); err != nil {
			return nil, shared.NewDomainError("INVALID_CATEGORY", "Category does not exist")
		}
		p.CategoryID = in.CategoryID
	}
	if in.ComparePrice != nil {
		p.ComparePrice = in.ComparePrice
	}
	if in.StockQty != nil {
		if err := p.AdjustStock(*in.StockQty - p.StockQty); err != nil {
			return nil, err
		}
	}
	if in.IsActive != nil {
		if *in.IsActive {
			p.Activate()
		} else {
			p.Deactivate()
		}
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
		p.UpdatedAt = time.Now()
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product from the catalog.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}
