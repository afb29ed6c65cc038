package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&order.Order{}, &order.OrderItem{}))
	return db
}

func buildOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-2024-00001", uuid.New(), "Nguyen Van A", "0901234567", "1 Main St", order.PaymentMethodCOD)
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Keyboard", "SKU-001", 2, decimal.NewFromInt(500000))
	require.NoError(t, err)
	return o
}

func TestOrderRepository_SaveWithLock(t *testing.T) {
	t.Run("bumps version when the stored row matches", func(t *testing.T) {
		db, mock := mockDB(t)
		repo := NewOrderRepository(db)
		o := buildOrder(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.SaveWithLock(context.Background(), o))
		assert.Equal(t, 2, o.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when no row matches the version", func(t *testing.T) {
		db, mock := mockDB(t)
		repo := NewOrderRepository(db)
		o := buildOrder(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.SaveWithLock(context.Background(), o)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, o.Version, "version rolls back on conflict")
	})
}

func TestOrderRepository_GenerateOrderNumber(t *testing.T) {
	db, mock := mockDB(t)
	repo := NewOrderRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(7)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders"`).WillReturnRows(rows)

	num, err := repo.GenerateOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ORD-%d-00008", time.Now().Year()), num)
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	db := memoryDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := buildOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))

	loaded, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, loaded.OrderNumber)
	assert.Equal(t, order.OrderStatusPending, loaded.Status)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "SKU-001", loaded.Items[0].SKU)
	assert.True(t, loaded.TotalAmount.Equal(decimal.NewFromInt(1000000)))

	byNumber, err := repo.FindByOrderNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNumber.ID)
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	db := memoryDB(t)
	repo := NewOrderRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
