package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/shared"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func productColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "sku", "name", "generic_name",
		"unit", "displayed_unit_price", "status", "last_stocked_at",
	}
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(productColumns()).AddRow(
			productID, now, now, "AMX-500", "Amoxicillin 500mg", "Amoxicillin",
			"box", decimal.NewFromInt(50), "active", nil,
		)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
			WithArgs(productID, 1).
			WillReturnRows(rows)

		product, err := repo.FindByID(context.Background(), productID)

		assert.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "AMX-500", product.SKU)
		assert.Equal(t, catalog.ProductStatusActive, product.Status)
		assert.True(t, product.DisplayedUnitPrice.Equal(decimal.NewFromInt(50)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
			WithArgs(productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByID(context.Background(), productID)

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindBySKU(t *testing.T) {
	t.Run("normalizes the SKU before querying", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(productColumns()).AddRow(
			productID, now, now, "IBU-200", "Ibuprofen 200mg", "Ibuprofen",
			"box", decimal.NewFromInt(30), "active", nil,
		)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE sku = \$1`).
			WithArgs("IBU-200", 1).
			WillReturnRows(rows)

		product, err := repo.FindBySKU(context.Background(), " ibu-200 ")

		assert.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, "IBU-200", product.SKU)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindAllIDs(t *testing.T) {
	t.Run("returns all product IDs", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		id1 := uuid.New()
		id2 := uuid.New()

		mock.ExpectQuery(`SELECT "id" FROM "products" ORDER BY created_at ASC`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

		ids, err := repo.FindAllIDs(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{id1, id2}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_UpdateDisplayedPrice(t *testing.T) {
	t.Run("updates only the displayed price column", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectExec(`UPDATE "products" SET "displayed_unit_price"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WithArgs(decimal.NewFromInt(60), sqlmock.AnyArg(), productID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateDisplayedPrice(context.Background(), productID, decimal.NewFromInt(60))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateDisplayedPrice(context.Background(), productID, decimal.NewFromInt(60))

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
