package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockLeadRepository creates a GormLeadRepository with a mocked SQL connection
func newMockLeadRepository(t *testing.T) (*GormLeadRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormLeadRepository(gormDB), mock, mockDB
}

func TestNewGormLeadRepository(t *testing.T) {
	repo, _, mockDB := newMockLeadRepository(t)
	defer mockDB.Close()

	assert.NotNil(t, repo)
	assert.NotNil(t, repo.db)
}

func TestGormLeadRepository_FindByID(t *testing.T) {
	t.Run("finds lead within org scope", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		leadID := uuid.New()
		orgID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "org_id", "first_name", "last_name", "lead_name", "title", "status"}).
			AddRow(leadID, orgID, "Jane", "Doe", "Jane Doe", "Jane Doe", "open")

		mock.ExpectQuery(`SELECT \* FROM "leads" WHERE org_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(orgID, leadID, 1).
			WillReturnRows(rows)

		lead, err := repo.FindByID(context.Background(), shared.NewTenantScope(orgID), leadID)

		require.NoError(t, err)
		assert.Equal(t, leadID, lead.ID)
		assert.Equal(t, "Jane Doe", lead.LeadName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lead in another org is not found", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		leadID := uuid.New()
		orgID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "leads" WHERE org_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(orgID, leadID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), shared.NewTenantScope(orgID), leadID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("company scope adds company filter", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		leadID := uuid.New()
		orgID := uuid.New()
		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "leads" WHERE \(org_id = \$1 AND \(company_id = \$2 OR company_id IS NULL\)\) AND id = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(orgID, companyID, leadID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		scope := shared.NewTenantScope(orgID).WithCompany(companyID)
		_, err := repo.FindByID(context.Background(), scope, leadID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing org scope errors", func(t *testing.T) {
		repo, _, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		_, err := repo.FindByID(context.Background(), shared.TenantScope{}, uuid.New())
		assert.Error(t, err)
	})
}

func TestGormLeadRepository_FindAll(t *testing.T) {
	t.Run("applies default ordering and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		orgID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "leads" WHERE org_id = \$1 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(orgID, 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_id"}))

		filter := shared.DefaultFilter()
		_, err := repo.FindAll(context.Background(), shared.NewTenantScope(orgID), filter)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown sort fields", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		orgID := uuid.New()

		// Injection attempt in OrderBy falls back to created_at.
		mock.ExpectQuery(`SELECT \* FROM "leads" WHERE org_id = \$1 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(orgID, 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_id"}))

		filter := shared.DefaultFilter()
		filter.OrderBy = "lead_name; DROP TABLE leads;--"
		_, err := repo.FindAll(context.Background(), shared.NewTenantScope(orgID), filter)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by status", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		orgID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "leads" WHERE org_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(orgID, "qualified", 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_id"}))

		filter := shared.DefaultFilter()
		filter.Filters["status"] = "qualified"
		_, err := repo.FindAll(context.Background(), shared.NewTenantScope(orgID), filter)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLeadRepository_Count(t *testing.T) {
	repo, mock, mockDB := newMockLeadRepository(t)
	defer mockDB.Close()

	orgID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads" WHERE org_id = \$1`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.Count(context.Background(), shared.NewTenantScope(orgID), shared.DefaultFilter())

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLeadRepository_Delete(t *testing.T) {
	t.Run("deletes lead within org scope", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		leadID := uuid.New()
		orgID := uuid.New()

		mock.ExpectExec(`DELETE FROM "leads" WHERE org_id = \$1 AND id = \$2`).
			WithArgs(orgID, leadID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), shared.NewTenantScope(orgID), leadID)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete outside scope reports not found", func(t *testing.T) {
		repo, mock, mockDB := newMockLeadRepository(t)
		defer mockDB.Close()

		leadID := uuid.New()
		orgID := uuid.New()

		mock.ExpectExec(`DELETE FROM "leads" WHERE org_id = \$1 AND id = \$2`).
			WithArgs(orgID, leadID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), shared.NewTenantScope(orgID), leadID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
