package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository persists orders with gorm.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "order_number = ?", orderNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
}

// SaveWithLock persists the order only when the stored row still carries the
// version the aggregate was loaded with. A mismatch means another request
// changed the order first.
func (r *OrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	currentVersion := o.Version
	o.Version++

	result := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ? AND version = ?", o.ID, currentVersion).
		Select("*").
		Omit("Items", "created_at").
		Updates(o)
	if result.Error != nil {
		o.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		o.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GenerateOrderNumber produces the next sequential order number for the
// current year, ORD-<year>-<5 digit counter>. The per-year count is read
// with an advisory pattern that tolerates gaps: uniqueness is guaranteed by
// the unique index on order_number, callers retry on conflict.
func (r *OrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_number LIKE ?", fmt.Sprintf("ORD-%d-%%", year)).
		Count(&count).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("ORD-%d-%05d", year, count+1), nil
}

// CreateWithItems inserts an order together with its line items in one
// transaction.
func (r *OrderRepository) CreateWithItems(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(o).Error
	})
}

// PlaceOrder inserts the order and decrements stock for every line item in
// one transaction. The stock guard in the UPDATE prevents overselling under
// concurrent checkouts.
func (r *OrderRepository) PlaceOrder(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range o.Items {
			result := tx.Model(&catalog.Product{}).
				Where("id = ? AND stock_qty >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Insufficient stock for %s", item.ProductName))
			}
		}
		return tx.Create(o).Error
	})
}
