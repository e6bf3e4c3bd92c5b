// Package uiaccess decides which navigation entries a client renders for the
// cached, unverified session claim. It is advisory only: the server-side
// rbac gate remains the single authoritative check.
package uiaccess

import (
	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

// Route is a navigation entry and the roles or permissions that reveal it.
// A route with neither is shown to every signed-in user.
type Route struct {
	Path        string            `json:"path" yaml:"path"`
	Title       string            `json:"title" yaml:"title"`
	Roles       []rbac.Role       `json:"-" yaml:"-"`
	Permissions []rbac.Permission `json:"-" yaml:"-"`
}

// DefaultRoutes is the navigation table of the HR portal.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Title: "Dashboard"},
		{Path: "/profile", Title: "My Profile", Permissions: []rbac.Permission{rbac.PermViewOwnProfile}},
		{Path: "/employees", Title: "Employees", Permissions: []rbac.Permission{rbac.PermViewAllProfiles, rbac.PermManageAllProfiles}},
		{Path: "/team", Title: "My Team", Roles: []rbac.Role{rbac.RoleDepartmentHead}, Permissions: []rbac.Permission{rbac.PermViewTeamProfiles}},
		{Path: "/org-structure", Title: "Organization", Permissions: []rbac.Permission{rbac.PermViewOrgStructure, rbac.PermManageOrgStructure}},
		{Path: "/leaves", Title: "Leave", Permissions: []rbac.Permission{rbac.PermRequestLeave, rbac.PermApproveLeaves}},
		{Path: "/appraisals", Title: "Appraisals", Permissions: []rbac.Permission{rbac.PermViewOwnAppraisals, rbac.PermConductAppraisals, rbac.PermManageAppraisals}},
		{Path: "/disputes", Title: "Disputes", Permissions: []rbac.Permission{rbac.PermRaiseDisputes, rbac.PermResolveDisputes}},
		{Path: "/payroll", Title: "Payroll", Permissions: []rbac.Permission{rbac.PermManagePayroll}},
		{Path: "/recruitment", Title: "Recruitment", Roles: []rbac.Role{rbac.RoleRecruiter, rbac.RoleHRManager}, Permissions: []rbac.Permission{rbac.PermManageRecruitment}},
		{Path: "/careers", Title: "Open Positions", Permissions: []rbac.Permission{rbac.PermApplyForJobs}},
		{Path: "/audit", Title: "Audit Log", Permissions: []rbac.Permission{rbac.PermViewAuditLog}},
		{Path: "/admin", Title: "System Administration", Roles: []rbac.Role{rbac.RoleSystemAdmin}},
	}
}

// Navigator filters a route table for a claim.
type Navigator struct {
	registry *rbac.Registry
	routes   []Route
}

// NewNavigator builds a Navigator. A nil routes slice uses DefaultRoutes.
func NewNavigator(registry *rbac.Registry, routes []Route) *Navigator {
	if routes == nil {
		routes = DefaultRoutes()
	}
	return &Navigator{registry: registry, routes: routes}
}

// VisibleRoutes returns the routes the claim may see, in table order.
func (n *Navigator) VisibleRoutes(claim claims.SessionClaim) []Route {
	out := make([]Route, 0, len(n.routes))
	for _, route := range n.routes {
		if n.CanView(claim.Role, route) {
			out = append(out, route)
		}
	}
	return out
}

// CanView reports whether a role label would see route. Labels are compared
// after rbac.NormalizeLabel, so "hr_admin" and "HR  Admin" both match HR Admin.
func (n *Navigator) CanView(label rbac.Role, route Route) bool {
	if len(route.Roles) == 0 && len(route.Permissions) == 0 {
		return true
	}
	normalized := rbac.NormalizeLabel(string(label))
	for _, allowed := range route.Roles {
		if rbac.NormalizeLabel(string(allowed)) == normalized {
			return true
		}
	}
	if len(route.Permissions) == 0 || n.registry == nil {
		return false
	}
	role, ok := rbac.ParseRole(string(label))
	if !ok {
		return false
	}
	perms, err := n.registry.PermissionsFor(role)
	if err != nil {
		return false
	}
	return perms.Intersects(route.Permissions)
}
