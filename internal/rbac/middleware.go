package rbac

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// Middleware guards chi routes with registry checks against the request principal.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
	// OnDeny, when set, is called with the denied role after a 403.
	OnDeny func(role Role)
}

// RequireRoles admits principals holding one of roles.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return m.Require(AnyRole(roles...))
}

// RequirePermissions admits principals whose role grants at least one of perms.
func (m Middleware) RequirePermissions(perms ...Permission) func(http.Handler) http.Handler {
	return m.Require(AnyPermission(perms...))
}

// Require enforces req. A missing principal is a 401, a failed check a 403.
func (m Middleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.ProblemFor(w, r, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "authentication required")
				return
			}
			role := principal.GetRole()
			if err := m.Gate.Allow(role, req); err != nil {
				m.deny(r, role, err)
				httpx.ProblemFor(w, r, httpx.StatusFor(err), http.StatusText(httpx.StatusFor(err)), err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(r *http.Request, role Role, err error) {
	if m.OnDeny != nil {
		m.OnDeny(role)
	}
	if m.Logger == nil {
		return
	}
	m.Logger.Warn("rbac denied",
		slog.String("role", string(role)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.Any("error", err))
}
