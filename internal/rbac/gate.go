package rbac

import (
	"context"
	"fmt"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// ErrForbidden is returned when a caller lacks the required role or permission.
var ErrForbidden = fmt.Errorf("rbac: insufficient role or permission: %w", httpx.ErrForbidden)

// Requirement lists the roles and permissions that satisfy a gate. A caller
// passes when its role is listed or its permissions intersect Permissions.
// An empty Requirement admits every authenticated caller.
type Requirement struct {
	Roles       []Role
	Permissions []Permission
}

// AnyRole builds a role-only requirement.
func AnyRole(roles ...Role) Requirement {
	return Requirement{Roles: roles}
}

// AnyPermission builds a permission-only requirement.
func AnyPermission(perms ...Permission) Requirement {
	return Requirement{Permissions: perms}
}

// IsEmpty reports whether the requirement has no constraints.
func (r Requirement) IsEmpty() bool {
	return len(r.Roles) == 0 && len(r.Permissions) == 0
}

// Gate decides allow/deny for a caller role against a requirement.
type Gate struct {
	registry *Registry
}

// NewGate constructs a Gate over registry.
func NewGate(registry *Registry) *Gate {
	return &Gate{registry: registry}
}

// Registry exposes the backing registry.
func (g *Gate) Registry() *Registry {
	return g.registry
}

// Allow returns nil when role satisfies req, ErrForbidden otherwise.
func (g *Gate) Allow(role Role, req Requirement) error {
	if req.IsEmpty() {
		return nil
	}
	for _, r := range req.Roles {
		if r == role {
			return nil
		}
	}
	if len(req.Permissions) > 0 {
		perms, err := g.registry.PermissionsFor(role)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		if perms.Intersects(req.Permissions) {
			return nil
		}
	}
	return ErrForbidden
}

// Can reports whether role holds perm.
func (g *Gate) Can(role Role, perm Permission) bool {
	return g.Allow(role, AnyPermission(perm)) == nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok && p != nil
}
