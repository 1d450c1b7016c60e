package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockGormDB opens GORM over a sqlmock connection with the postgres dialector
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func newMockSupplierRepository(t *testing.T) (*GormSupplierRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, mockDB := newMockGormDB(t)
	return NewGormSupplierRepository(db), mock, mockDB
}

func TestGormSupplierRepository_FindByID(t *testing.T) {
	t.Run("finds supplier within company", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()
		companyID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "company_id", "name", "email", "phone"}).
			AddRow(supplierID, companyID, "Acme Parts", "sales@acme.io", "555-0100")

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE company_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(companyID, supplierID, 1).
			WillReturnRows(rows)

		supplier, err := repo.FindByID(context.Background(), companyID, supplierID)

		require.NoError(t, err)
		assert.Equal(t, supplierID, supplier.ID)
		assert.Equal(t, companyID, supplier.CompanyID)
		assert.Equal(t, "Acme Parts", supplier.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		companyID, supplierID := uuid.New(), uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE company_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(companyID, supplierID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		supplier, err := repo.FindByID(context.Background(), companyID, supplierID)

		assert.Nil(t, supplier)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_FindAll(t *testing.T) {
	t.Run("counts then loads the requested page", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers" WHERE company_id = \$1`).
			WithArgs(companyID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE company_id = \$1 ORDER BY name ASC LIMIT \$2 OFFSET \$3`).
			WithArgs(companyID, 10, 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "name"}).
				AddRow(uuid.New(), companyID, "Beta").
				AddRow(uuid.New(), companyID, "Gamma"))

		filter := shared.Filter{Page: 2, PageSize: 10, OrderBy: "name", OrderDir: "asc"}
		suppliers, total, err := repo.FindAll(context.Background(), companyID, filter)

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.Len(t, suppliers, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search escapes wildcards and unknown sort falls back to name", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		pattern := `%50\%%`

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers" WHERE company_id = \$1 AND \(name ILIKE \$2 OR email ILIKE \$3 OR phone ILIKE \$4 OR tax_number ILIKE \$5\)`).
			WithArgs(companyID, pattern, pattern, pattern, pattern).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE .* ORDER BY name DESC LIMIT \$6`).
			WithArgs(companyID, pattern, pattern, pattern, pattern, 20).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		filter := shared.Filter{Page: 1, PageSize: 20, OrderBy: "name; DROP TABLE suppliers", Search: "50%"}
		suppliers, total, err := repo.FindAll(context.Background(), companyID, filter)

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, suppliers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_ExistsByEmail(t *testing.T) {
	t.Run("empty email never clashes", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		exists, err := repo.ExistsByEmail(context.Background(), uuid.New(), "", nil)

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("excludes the supplier being updated", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		companyID, selfID := uuid.New(), uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers" WHERE \(company_id = \$1 AND LOWER\(email\) = LOWER\(\$2\)\) AND id <> \$3`).
			WithArgs(companyID, "sales@acme.io", selfID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByEmail(context.Background(), companyID, "sales@acme.io", &selfID)

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock, mockDB := newMockSupplierRepository(t)
	defer mockDB.Close()

	supplier := partner.NewSupplier(uuid.New(), partner.Contact{Name: "Acme Parts", Email: "Sales@Acme.io"})

	mock.ExpectExec(`INSERT INTO "suppliers"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_suppliers_company_email"})

	err := repo.Create(context.Background(), supplier)

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCustomerRepository_Save_DuplicateEmail(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormCustomerRepository(db)

	customer := partner.NewCustomer(uuid.New(), partner.Contact{Name: "Globex", Email: "ap@globex.test"})

	mock.ExpectExec(`UPDATE "customers"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_customers_company_email"})

	err := repo.Save(context.Background(), customer)

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormSupplierRepository_Delete(t *testing.T) {
	t.Run("deletes supplier", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		companyID, supplierID := uuid.New(), uuid.New()

		mock.ExpectExec(`DELETE FROM "suppliers" WHERE company_id = \$1 AND id = \$2`).
			WithArgs(companyID, supplierID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), companyID, supplierID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for another company's supplier", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		companyID, supplierID := uuid.New(), uuid.New()

		mock.ExpectExec(`DELETE FROM "suppliers" WHERE company_id = \$1 AND id = \$2`).
			WithArgs(companyID, supplierID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), companyID, supplierID)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
