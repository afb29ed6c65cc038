package order

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	catalogdomain "github.com/storefront/backend/internal/domain/catalog"
	domain "github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/query"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Category{}, &catalogdomain.Product{},
		&domain.Order{}, &domain.OrderItem{},
	))

	registry := query.NewRegistry("test", config.QueryConfig{DefaultLimit: 20, MaxLimit: 100})
	svc := NewService(
		db,
		persistence.NewOrderRepository(db),
		persistence.NewProductRepository(db),
		registry,
		query.DefaultTimeout,
		zap.NewNop(),
	)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price int64, stock int) *catalogdomain.Product {
	t.Helper()
	p, err := catalogdomain.NewProduct(sku, "Product "+sku, decimal.NewFromInt(price))
	require.NoError(t, err)
	p.StockQty = stock
	require.NoError(t, db.Create(p).Error)
	return p
}

func checkoutInput(items ...CreateOrderItemInput) CreateOrderInput {
	return CreateOrderInput{
		CustomerName:    "Nguyen Van A",
		Phone:           "0901234567",
		ShippingAddress: "1 Main St, HCMC",
		PaymentMethod:   "cod",
		Items:           items,
	}
}

func TestService_Create(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, db, "SKU-001", 500000, 10)

	o, err := svc.Create(ctx, userID, checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d{4}-\d{5}$`, o.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1000000)))

	// stock was reserved
	var reloaded catalogdomain.Product
	require.NoError(t, db.First(&reloaded, "id = ?", p.ID).Error)
	assert.Equal(t, 8, reloaded.StockQty)
}

func TestService_Create_SequentialNumbers(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "SKU-001", 100, 100)

	first, err := svc.Create(ctx, uuid.New(), checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.Create(ctx, uuid.New(), checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
}

func TestService_Create_InsufficientStock(t *testing.T) {
	svc, db := newService(t)
	p := seedProduct(t, db, "SKU-001", 100, 1)

	_, err := svc.Create(context.Background(), uuid.New(),
		checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 5}))

	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INSUFFICIENT_STOCK", derr.Code)
}

func TestService_Create_UnknownProduct(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), uuid.New(),
		checkoutInput(CreateOrderItemInput{ProductID: uuid.New(), Quantity: 1}))

	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_PRODUCT", derr.Code)
}

func TestService_ListMine_ScopedToUser(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "SKU-001", 100, 100)

	mine := uuid.New()
	other := uuid.New()
	_, err := svc.Create(ctx, mine, checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	res, err := svc.ListMine(ctx, mine, url.Values{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, mine, res.Items[0].UserID)
	assert.Equal(t, int64(1), res.Pagination.Total)
}

func TestService_UpdateStatus(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "SKU-001", 100, 100)

	o, err := svc.Create(ctx, uuid.New(), checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	o, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, o.Status)
	assert.NotNil(t, o.ProcessedAt)

	// skipping shipped straight to delivered is allowed from processing
	o, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)

	// delivered is terminal
	_, err = svc.UpdateStatus(ctx, o.ID, domain.OrderStatusProcessing)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)
}

func TestService_Cancel(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "SKU-001", 100, 100)
	userID := uuid.New()

	o, err := svc.Create(ctx, userID, checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	t.Run("another customer cannot cancel it", func(t *testing.T) {
		_, err := svc.Cancel(ctx, o.ID, uuid.New(), "changed my mind")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("the owner can", func(t *testing.T) {
		cancelled, err := svc.Cancel(ctx, o.ID, userID, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
		assert.Equal(t, "changed my mind", cancelled.CancelReason)
		assert.NotNil(t, cancelled.CancelledAt)
	})

	t.Run("not twice", func(t *testing.T) {
		_, err := svc.Cancel(ctx, o.ID, userID, "again")
		assert.Error(t, err)
	})
}

func TestService_UpdatePaymentStatus_DigitalGatewayLocked(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProduct(t, db, "SKU-001", 100, 100)

	in := checkoutInput(CreateOrderItemInput{ProductID: p.ID, Quantity: 1})
	in.PaymentMethod = "vnpay"
	o, err := svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)

	_, err = svc.UpdatePaymentStatus(ctx, o.ID, domain.PaymentStatusPaid)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)
}
