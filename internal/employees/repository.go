package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/db"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// ErrNotFound indicates the employee does not exist.
var ErrNotFound = fmt.Errorf("employees: not found: %w", httpx.ErrNotFound)

const profileColumns = `e.id, e.email, e.first_name, e.last_name, e.national_id, e.employee_number,
       e.date_of_hire, COALESCE(r.name, ''), e.department_id, COALESCE(d.code, ''), e.is_active, e.created_at`

const profileFrom = `FROM employees e
LEFT JOIN roles r ON r.id = e.role_id
LEFT JOIN departments d ON d.id = e.department_id`

const listWhere = `WHERE ($1::text IS NULL OR d.code = $1)
  AND ($2::text IS NULL OR LOWER(e.email) LIKE $2 OR LOWER(e.first_name || ' ' || e.last_name) LIKE $2 OR e.employee_number ILIKE $2)`

// Repository reads employee profiles from PostgreSQL.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// List returns one page of profiles and the total number of matches.
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Profile, int, error) {
	var dept, search *string
	if code := strings.TrimSpace(filter.DepartmentCode); code != "" {
		code = strings.ToUpper(code)
		dept = &code
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		search = &pattern
	}
	q := `SELECT ` + profileColumns + `, COUNT(*) OVER () ` + profileFrom + `
` + listWhere + `
ORDER BY e.last_name, e.first_name, e.id
LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, q, dept, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []Profile
		total int
	)
	for rows.Next() {
		var (
			p      Profile
			deptID uuid.NullUUID
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.NationalID, &p.EmployeeNumber,
			&p.DateOfHire, &p.Role, &deptID, &p.DepartmentCode, &p.IsActive, &p.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		if deptID.Valid {
			p.DepartmentID = &deptID.UUID
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	// The window count rides on returned rows, so a page past the end needs its own count.
	if len(out) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) `+profileFrom+` `+listWhere, dept, search).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// FindByID fetches one profile.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	var (
		p      Profile
		deptID uuid.NullUUID
	)
	err := r.db.QueryRow(ctx, `SELECT `+profileColumns+` `+profileFrom+` WHERE e.id = $1`, id).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.NationalID, &p.EmployeeNumber,
		&p.DateOfHire, &p.Role, &deptID, &p.DepartmentCode, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if deptID.Valid {
		p.DepartmentID = &deptID.UUID
	}
	return p, nil
}
