package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

var identityColumns = []string{"id", "email", "password_hash", "first_name", "last_name", "national_id",
	"employee_number", "date_of_hire", "role_id", "name", "department_id", "is_active"}

func TestFindByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	hash := "$2a$12$hash"
	role := "HR Admin"
	hired := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM employees e").
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows(identityColumns).
			AddRow(id, "a@x.com", &hash, "Ada", "Lovelace", "NID-1", "EMP-001", hired, int64(2), &role, nil, true))

	identity, err := NewRepository(mock).FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, identity.ID)
	require.NotNil(t, identity.RoleName)
	assert.Equal(t, "HR Admin", *identity.RoleName)
	assert.Nil(t, identity.DepartmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectQuery("FROM employees e").WithArgs("ghost@x.com").WillReturnRows(pgxmock.NewRows(identityColumns))

	_, err = NewRepository(mock).FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExistsQueries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	mock.ExpectQuery("LOWER\\(email\\)").WithArgs("a@x.com").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("national_id").WithArgs("NID-1").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("employee_number").WithArgs("EMP-1").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	found, err := repo.ExistsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = repo.ExistsByNationalID(context.Background(), "NID-1")
	require.NoError(t, err)
	assert.False(t, found)
	found, err = repo.ExistsByEmployeeNumber(context.Background(), "EMP-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO employees").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "employees_national_id_key"})

	err = NewRepository(mock).Create(context.Background(), Identity{ID: uuid.New(), Email: "a@x.com"})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Contains(t, err.Error(), "national id")
}

func TestCreateInsertsIdentity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	identity := Identity{ID: uuid.New(), Email: "a@x.com", EmployeeNumber: "EMP-001", RoleID: 2}
	mock.ExpectExec("INSERT INTO employees").
		WithArgs(identity.ID, "a@x.com", pgxmock.AnyArg(), "", "", "", "EMP-001", pgxmock.AnyArg(), int64(2), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewRepository(mock).Create(context.Background(), identity))
	assert.NoError(t, mock.ExpectationsWereMet())
}
