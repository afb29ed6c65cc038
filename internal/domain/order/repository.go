package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for orders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	Save(ctx context.Context, o *Order) error
	// PlaceOrder persists a new order and atomically reserves stock for its
	// items in one transaction.
	PlaceOrder(ctx context.Context, o *Order) error
	// SaveWithLock persists the order only if its version matches the stored
	// row, guarding concurrent status updates.
	SaveWithLock(ctx context.Context, o *Order) error
	GenerateOrderNumber(ctx context.Context) (string, error)
}
