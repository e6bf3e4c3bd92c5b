package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/db"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// ErrNotFound indicates the role row does not exist.
var ErrNotFound = fmt.Errorf("roles: not found: %w", httpx.ErrNotFound)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Seed is a role row kept in sync with the registry.
type Seed struct {
	Name        string
	Description string
}

const upsertSQL = `INSERT INTO roles (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()
RETURNING id, name, description, created_at, updated_at`

// SeedAll upserts every seed in one transaction when the connection can
// begin one, so a partial role table is never committed.
func (r *Repository) SeedAll(ctx context.Context, seeds []Seed) error {
	apply := func(conn db.DBTX) error {
		for _, seed := range seeds {
			if _, err := upsert(ctx, conn, seed.Name, seed.Description); err != nil {
				return err
			}
		}
		return nil
	}
	beginner, ok := r.db.(db.TxBeginner)
	if !ok {
		return apply(r.db)
	}
	return db.WithTx(ctx, beginner, func(tx pgx.Tx) error { return apply(tx) })
}

func upsert(ctx context.Context, conn db.DBTX, name, description string) (Role, error) {
	var role Role
	if err := conn.QueryRow(ctx, upsertSQL, name, description).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, fmt.Errorf("roles: upsert %s: %w", name, err)
	}
	return role, nil
}

// FindByName fetches a role by its exact name.
func (r *Repository) FindByName(ctx context.Context, name string) (Role, error) {
	const q = `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`
	var role Role
	if err := r.db.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
