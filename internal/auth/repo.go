package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/db"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)
	ExistsByEmployeeNumber(ctx context.Context, employeeNumber string) (bool, error)
	Create(ctx context.Context, identity Identity) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const findByEmailSQL = `SELECT e.id, e.email, e.password_hash, e.first_name, e.last_name, e.national_id,
       e.employee_number, e.date_of_hire, e.role_id, r.name, e.department_id, e.is_active
FROM employees e
LEFT JOIN roles r ON r.id = e.role_id
WHERE LOWER(e.email) = LOWER($1)`

// FindByEmail fetches an identity by case-insensitive email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (Identity, error) {
	var (
		id   Identity
		dept uuid.NullUUID
	)
	err := r.db.QueryRow(ctx, findByEmailSQL, email).Scan(
		&id.ID, &id.Email, &id.PasswordHash, &id.FirstName, &id.LastName, &id.NationalID,
		&id.EmployeeNumber, &id.DateOfHire, &id.RoleID, &id.RoleName, &dept, &id.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, shared.ErrNotFound
		}
		return Identity{}, err
	}
	if dept.Valid {
		id.DepartmentID = &dept.UUID
	}
	return id, nil
}

// ExistsByEmail reports whether the email is registered.
func (r *PGRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE LOWER(email) = LOWER($1))`, email)
}

// ExistsByNationalID reports whether the national id is registered.
func (r *PGRepository) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE national_id = $1)`, nationalID)
}

// ExistsByEmployeeNumber reports whether the employee number is registered.
func (r *PGRepository) ExistsByEmployeeNumber(ctx context.Context, employeeNumber string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE employee_number = $1)`, employeeNumber)
}

func (r *PGRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var found bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

var constraintFields = map[string]string{
	"employees_email_key":           "email",
	"employees_national_id_key":     "national id",
	"employees_employee_number_key": "employee number",
}

// Create inserts a new identity. Unique violations become shared.Conflict.
func (r *PGRepository) Create(ctx context.Context, identity Identity) error {
	const q = `INSERT INTO employees (id, email, password_hash, first_name, last_name, national_id,
    employee_number, date_of_hire, role_id, department_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, q,
		identity.ID, identity.Email, identity.PasswordHash, identity.FirstName, identity.LastName,
		identity.NationalID, identity.EmployeeNumber, identity.DateOfHire, identity.RoleID, identity.DepartmentID,
	)
	if err == nil {
		return nil
	}
	if constraint, ok := db.UniqueConstraint(err); ok {
		field, known := constraintFields[constraint]
		if !known {
			field = "identity"
		}
		return shared.Conflict("%s already registered", field)
	}
	return fmt.Errorf("auth: insert identity: %w", err)
}

var _ Repository = (*PGRepository)(nil)
