package roles

import (
	"context"
	"log/slog"

	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	SeedAll(ctx context.Context, seeds []Seed) error
	FindByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// Service keeps the roles table aligned with the static registry.
type Service struct {
	repo     RepositoryPort
	registry *rbac.Registry
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, registry *rbac.Registry, logger *slog.Logger) *Service {
	return &Service{repo: repo, registry: registry, logger: logger}
}

// EnsureRoles upserts a row for every enumerated role. Run once at startup.
func (s *Service) EnsureRoles(ctx context.Context) error {
	seeds := make([]Seed, 0, len(rbac.Roles()))
	for _, role := range rbac.Roles() {
		seeds = append(seeds, Seed{Name: string(role), Description: descriptions[role]})
	}
	if err := s.repo.SeedAll(ctx, seeds); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Debug("roles seeded", slog.Int("count", len(seeds)))
	}
	return nil
}

// Resolve returns the stored row for a known role.
func (s *Service) Resolve(ctx context.Context, role rbac.Role) (Role, error) {
	return s.repo.FindByName(ctx, string(role))
}

// Describe returns the stored row for label with its permissions. Labels are
// matched the way registration matches them.
func (s *Service) Describe(ctx context.Context, label string) (RoleWithPermissions, error) {
	role, ok := rbac.ParseRole(label)
	if !ok {
		return RoleWithPermissions{}, ErrNotFound
	}
	row, err := s.repo.FindByName(ctx, string(role))
	if err != nil {
		return RoleWithPermissions{}, err
	}
	perms, err := s.registry.PermissionsFor(role)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	return RoleWithPermissions{Role: row, Permissions: perms.Slice()}, nil
}

// ListRoles returns stored roles with their registry permissions. Rows whose
// name is not an enumerated role are reported with no permissions.
func (s *Service) ListRoles(ctx context.Context) ([]RoleWithPermissions, error) {
	rows, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleWithPermissions, 0, len(rows))
	for _, row := range rows {
		item := RoleWithPermissions{Role: row, Permissions: []rbac.Permission{}}
		if role := rbac.Role(row.Name); role.Valid() {
			if perms, err := s.registry.PermissionsFor(role); err == nil {
				item.Permissions = perms.Slice()
			}
		} else if s.logger != nil {
			s.logger.Warn("stored role not in registry", slog.String("role", row.Name))
		}
		out = append(out, item)
	}
	return out, nil
}
