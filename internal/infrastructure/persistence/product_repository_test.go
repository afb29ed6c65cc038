package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

func catalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Category{}, &catalog.Product{}))
	return db
}

func TestProductRepository_RoundTrip(t *testing.T) {
	db := catalogDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p, err := catalog.NewProduct("SKU-001", "Bàn phím cơ", decimal.NewFromInt(1500000))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	bySlug, err := repo.FindBySlug(ctx, "ban-phim-co")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)
	assert.True(t, bySlug.Price.Equal(decimal.NewFromInt(1500000)))

	bySKU, err := repo.FindBySKU(ctx, "SKU-001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)
}

func TestProductRepository_Delete(t *testing.T) {
	db := catalogDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p, err := catalog.NewProduct("SKU-002", "Mouse", decimal.NewFromInt(200000))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
}

func TestCategoryRepository_RoundTrip(t *testing.T) {
	db := catalogDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	c, err := catalog.NewCategory("Keyboards")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	loaded, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboards", loaded.Name)
}
