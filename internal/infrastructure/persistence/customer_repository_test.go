package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormCustomerRepository_FindByID(t *testing.T) {
	t.Run("finds existing customer", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "code", "name", "status", "opening_balance", "outstanding_amount"}).
			AddRow(customerID, "RT1-042", "Sharma Dairy Stop", "active", decimal.NewFromInt(1500), decimal.NewFromInt(400))

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnRows(rows)

		customer, err := repo.FindByID(context.Background(), customerID)

		require.NoError(t, err)
		assert.Equal(t, customerID, customer.ID)
		assert.Equal(t, "RT1-042", customer.Code)
		assert.True(t, customer.OpeningBalance.Equal(decimal.NewFromInt(1500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to customer not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		customer, err := repo.FindByID(context.Background(), customerID)

		assert.Nil(t, customer)
		assert.ErrorIs(t, err, shared.ErrCustomerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the customer row", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "code", "name", "status"}).
			AddRow(customerID, "RT1-042", "Sharma Dairy Stop", "active")

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(customerID, 1).
			WillReturnRows(rows)

		customer, err := repo.FindByIDForUpdate(context.Background(), customerID)

		require.NoError(t, err)
		assert.Equal(t, customerID, customer.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps an expired lock wait to the domain lock timeout", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(customerID, 1).
			WillReturnError(errLockNotAvailable)

		_, err := repo.FindByIDForUpdate(context.Background(), customerID)

		assert.ErrorIs(t, err, shared.ErrLockTimeout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByCode(t *testing.T) {
	t.Run("trims the lookup code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "code", "name"}).
			AddRow(customerID, "RT1-042", "Sharma Dairy Stop")

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("RT1-042", 1).
			WillReturnRows(rows)

		customer, err := repo.FindByCode(context.Background(), "  RT1-042  ")

		require.NoError(t, err)
		assert.Equal(t, "RT1-042", customer.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_UpdateOutstandingAmount(t *testing.T) {
	t.Run("writes the cached outstanding figure", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		customerID := uuid.New()
		mock.ExpectExec(`UPDATE "customers" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateOutstandingAmount(context.Background(), customerID, decimal.NewFromInt(1100))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports customer not found when no row matched", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		mock.ExpectExec(`UPDATE "customers" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateOutstandingAmount(context.Background(), uuid.New(), decimal.NewFromInt(1100))

		assert.ErrorIs(t, err, shared.ErrCustomerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindAll(t *testing.T) {
	t.Run("counts and pages in one filtered query", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(gormDB)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE route = \$1`).
			WithArgs("RT1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows([]string{"id", "code", "name", "route"}).
			AddRow(uuid.New(), "RT1-042", "Sharma Dairy Stop", "RT1").
			AddRow(uuid.New(), "RT1-043", "Verma Tea Stall", "RT1")
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE route = \$1 ORDER BY created_at DESC LIMIT .*`).
			WillReturnRows(rows)

		filter := shared.DefaultFilter()
		filter.Filters["route"] = "RT1"

		customers, total, err := repo.FindAll(context.Background(), filter)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, customers, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
