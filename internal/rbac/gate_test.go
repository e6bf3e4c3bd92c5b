package rbac

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

type rolePrincipal Role

func (p rolePrincipal) GetRole() Role { return Role(p) }

func TestGateRoleMembership(t *testing.T) {
	gate := NewGate(MustDefault())

	assert.NoError(t, gate.Allow(RoleHRManager, AnyRole(RoleHRAdmin, RoleHRManager)))
	err := gate.Allow(RoleRecruiter, AnyRole(RoleHRAdmin, RoleHRManager))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestGatePermissionIntersection(t *testing.T) {
	gate := NewGate(MustDefault())

	// Department Head is not in the role set but can approve leaves.
	req := Requirement{Roles: []Role{RoleHRAdmin}, Permissions: []Permission{PermApproveLeaves}}
	assert.NoError(t, gate.Allow(RoleDepartmentHead, req))
	assert.ErrorIs(t, gate.Allow(RoleJobCandidate, req), ErrForbidden)

	assert.True(t, gate.Can(RoleSystemAdmin, PermManagePayroll))
	assert.False(t, gate.Can(RoleDepartmentEmployee, PermManagePayroll))
}

func TestGateEmptyRequirementAllows(t *testing.T) {
	gate := NewGate(MustDefault())
	assert.NoError(t, gate.Allow(RoleJobCandidate, Requirement{}))
}

func TestGateUnknownRoleDenied(t *testing.T) {
	gate := NewGate(MustDefault())
	assert.ErrorIs(t, gate.Allow(Role("Janitor"), AnyPermission(PermViewOwnProfile)), ErrForbidden)
}

func TestMiddlewareRequire(t *testing.T) {
	mw := Middleware{Gate: NewGate(MustDefault())}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name      string
		principal Principal
		handler   http.Handler
		want      int
	}{
		{"anonymous", nil, mw.RequireRoles(RoleHRAdmin)(ok), http.StatusUnauthorized},
		{"role match", rolePrincipal(RoleHRAdmin), mw.RequireRoles(RoleHRAdmin)(ok), http.StatusOK},
		{"role miss", rolePrincipal(RoleRecruiter), mw.RequireRoles(RoleHRAdmin)(ok), http.StatusForbidden},
		{"perm match", rolePrincipal(RolePayrollSpecialist), mw.RequirePermissions(PermManagePayroll)(ok), http.StatusOK},
		{"perm miss", rolePrincipal(RoleJobCandidate), mw.RequirePermissions(PermViewAuditLog)(ok), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.principal != nil {
				req = req.WithContext(ContextWithPrincipal(context.Background(), tc.principal))
			}
			rr := httptest.NewRecorder()
			tc.handler.ServeHTTP(rr, req)
			require.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestMiddlewareDenyHookAndProblem(t *testing.T) {
	var denied []Role
	mw := Middleware{
		Gate:   NewGate(MustDefault()),
		OnDeny: func(role Role) { denied = append(denied, role) },
	}
	h := mw.RequirePermissions(PermViewAuditLog)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), rolePrincipal(RoleRecruiter)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	assert.Equal(t, "/audit", problem.Instance)
	assert.Equal(t, []Role{RoleRecruiter}, denied)
}

func TestDescribeRegistry(t *testing.T) {
	view := DescribeRegistry(MustDefault())
	require.Len(t, view.Permissions, len(Permissions()))
	require.Len(t, view.Roles, len(Roles()))
	assert.Equal(t, "Manage All Profiles", view.Permissions[0].Label)
	assert.Equal(t, RoleSystemAdmin, view.Roles[0].Name)
	assert.Len(t, view.Roles[0].Permissions, len(Permissions()))
}
