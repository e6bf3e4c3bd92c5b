package departments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/db"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// ErrNotFound indicates the department does not exist.
var ErrNotFound = fmt.Errorf("departments: not found: %w", httpx.ErrNotFound)

// ErrDuplicateCode indicates the department code is taken.
var ErrDuplicateCode = fmt.Errorf("departments: code already exists: %w", httpx.ErrDuplicate)

const selectColumns = `SELECT id, code, name, parent_id, head_employee_id, created_at FROM departments`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// List returns every department ordered by code.
func (r *Repository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.db.Query(ctx, selectColumns+` ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Department, error) {
		return scanDepartment(row)
	})
}

// FindByCode fetches a department by its unique code.
func (r *Repository) FindByCode(ctx context.Context, code string) (Department, error) {
	dept, err := scanDepartment(r.db.QueryRow(ctx, selectColumns+` WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrNotFound
	}
	return dept, err
}

// Create inserts a department.
func (r *Repository) Create(ctx context.Context, dept Department) (Department, error) {
	const q = `INSERT INTO departments (id, code, name, parent_id) VALUES ($1, $2, $3, $4)
RETURNING id, code, name, parent_id, head_employee_id, created_at`
	created, err := scanDepartment(r.db.QueryRow(ctx, q, dept.ID, dept.Code, dept.Name, dept.ParentID))
	if err != nil {
		if _, ok := db.UniqueConstraint(err); ok {
			return Department{}, ErrDuplicateCode
		}
		return Department{}, fmt.Errorf("departments: insert %s: %w", dept.Code, err)
	}
	return created, nil
}

func scanDepartment(row pgx.Row) (Department, error) {
	var (
		d      Department
		parent uuid.NullUUID
		head   uuid.NullUUID
	)
	if err := row.Scan(&d.ID, &d.Code, &d.Name, &parent, &head, &d.CreatedAt); err != nil {
		return Department{}, err
	}
	if parent.Valid {
		d.ParentID = &parent.UUID
	}
	if head.Valid {
		d.HeadEmployeeID = &head.UUID
	}
	return d, nil
}
