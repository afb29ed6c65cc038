package order

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/storefront/backend/internal/domain/catalog"
	domain "github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/query"
)

// CreateOrderItemInput is one line of a checkout request.
type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=100"`
}

// CreateOrderInput carries a checkout request. Prices always come from the
// catalog, never from the client.
type CreateOrderInput struct {
	CustomerName    string                 `json:"customer_name" binding:"required,max=150"`
	Phone           string                 `json:"phone" binding:"max=20"`
	ShippingAddress string                 `json:"shipping_address" binding:"required,max=500"`
	PaymentMethod   string                 `json:"payment_method" binding:"required"`
	Note            string                 `json:"note" binding:"max=1000"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,max=50,dive"`
}

// Service owns the order lifecycle: checkout, listing, and the admin status
// operations.
type Service struct {
	db       *gorm.DB
	orders   domain.Repository
	products catalogdomain.ProductRepository
	registry *query.Registry
	timeout  time.Duration
	log      *zap.Logger
}

func NewService(db *gorm.DB, orders domain.Repository, products catalogdomain.ProductRepository, registry *query.Registry, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		orders:   orders,
		products: products,
		registry: registry,
		timeout:  timeout,
		log:      log,
	}
}

// Create places a new order. Stock is reserved atomically; a retry on the
// order-number unique index absorbs races between concurrent checkouts.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*domain.Order, error) {
	method := domain.PaymentMethod(in.PaymentMethod)

	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		number, err := s.orders.GenerateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}

		o, err := domain.NewOrder(number, userID, in.CustomerName, in.Phone, in.ShippingAddress, method)
		if err != nil {
			return nil, err
		}
		o.Note = in.Note

		for _, line := range in.Items {
			p, err := s.products.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.NewDomainError("INVALID_PRODUCT", "Product does not exist")
				}
				return nil, err
			}
			if !p.InStock() || p.StockQty < line.Quantity {
				return nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for "+p.Name)
			}
			if _, err := o.AddItem(p.ID, p.Name, p.SKU, line.Quantity, p.Price); err != nil {
				return nil, err
			}
		}

		if err := s.orders.PlaceOrder(ctx, o); err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.log.Info("order placed",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.String("user_id", userID.String()),
			zap.Int("items", o.ItemCount()),
		)
		return o, nil
	}
	return nil, lastErr
}

// ListMine lists the authenticated customer's own orders.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, values url.Values) (*query.Result[domain.Order], error) {
	spec, _ := s.registry.Spec("orders")
	b := query.NewBuilder(spec, s.log).WithTimeout(s.timeout).
		Parse(values).
		Where("user_id = ?", userID)
	return query.Execute[domain.Order](ctx, s.db, b)
}

// ListAdmin lists all orders for back-office screens. Sorting goes through
// the admin resolver so the order is always deterministic across pages.
func (s *Service) ListAdmin(ctx context.Context, values url.Values) (*query.Result[domain.Order], error) {
	spec, _ := s.registry.Spec("orders")
	b := query.NewBuilder(spec, s.log).WithTimeout(s.timeout).
		Parse(values).
		OverrideSort(query.ParseAdminSort(values, spec.Sortable))
	return query.Execute[domain.Order](ctx, s.db, b)
}

// Get loads an order. Customers only see their own orders; admins see all.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != requesterID {
		// hide other customers' orders entirely
		return nil, shared.ErrNotFound
	}
	return o, nil
}

// UpdateStatus moves an order through the status machine with an optimistic
// version check against concurrent updates.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target domain.OrderStatus) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := o.Status
	if err := o.UpdateStatus(target); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", previous.String()),
		zap.String("to", target.String()),
	)
	return o, nil
}

// UpdatePaymentStatus sets the payment status where the domain allows it.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, target domain.PaymentStatus) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.UpdatePaymentStatus(target); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel executes the customer cancel action on the customer's own order.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, shared.ErrNotFound
	}
	if err := o.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.log.Info("order cancelled by customer",
		zap.String("order_id", o.ID.String()),
		zap.String("reason", reason),
	)
	return o, nil
}

// isUniqueViolation detects the Postgres duplicate-key error without tying
// the service to a specific driver error type.
func isUniqueViolation(err error) bool {
	return err != nil &&
		(errors.Is(err, gorm.ErrDuplicatedKey) ||
			containsAny(err.Error(), "duplicate key", "UNIQUE constraint"))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
