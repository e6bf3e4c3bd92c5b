package rbac

import (
	"fmt"
	"sort"
)

// ConfigurationError reports a programmer error in the static role table.
type ConfigurationError struct {
	Role   Role
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rbac: role %q: %s", e.Role, e.Reason)
}

// PermissionSet is an immutable set of permissions.
type PermissionSet struct {
	items map[Permission]struct{}
}

func newPermissionSet(perms []Permission) PermissionSet {
	items := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		items[p] = struct{}{}
	}
	return PermissionSet{items: items}
}

// Has reports whether p is part of the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.items[p]
	return ok
}

// Len returns the number of permissions.
func (s PermissionSet) Len() int { return len(s.items) }

// Intersects reports whether any of perms is in the set.
func (s PermissionSet) Intersects(perms []Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// Slice returns the permissions sorted by name.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s.items))
	for p := range s.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry maps every Role to its permissions. Read-only after construction.
type Registry struct {
	byRole map[Role]PermissionSet
}

// NewRegistry validates table and builds a Registry. System Admin always
// receives the full permission enumeration regardless of its table entry.
func NewRegistry(table map[Role][]Permission) (*Registry, error) {
	known := newPermissionSet(Permissions())
	byRole := make(map[Role]PermissionSet, len(Roles()))
	for _, role := range Roles() {
		if role == RoleSystemAdmin {
			byRole[role] = known
			continue
		}
		perms, ok := table[role]
		if !ok {
			return nil, &ConfigurationError{Role: role, Reason: "missing from permission table"}
		}
		for _, p := range perms {
			if !known.Has(p) {
				return nil, &ConfigurationError{Role: role, Reason: fmt.Sprintf("unknown permission %q", p)}
			}
		}
		byRole[role] = newPermissionSet(perms)
	}
	for role := range table {
		if !role.Valid() {
			return nil, &ConfigurationError{Role: role, Reason: "not an enumerated role"}
		}
	}
	return &Registry{byRole: byRole}, nil
}

// MustDefault builds the registry from DefaultTable and panics on error.
func MustDefault() *Registry {
	reg, err := NewRegistry(DefaultTable())
	if err != nil {
		panic(err)
	}
	return reg
}

// PermissionsFor returns the permission set granted to role.
func (r *Registry) PermissionsFor(role Role) (PermissionSet, error) {
	set, ok := r.byRole[role]
	if !ok {
		return PermissionSet{}, &ConfigurationError{Role: role, Reason: "missing from registry"}
	}
	return set, nil
}

// DefaultTable is the static role to permission mapping.
func DefaultTable() map[Role][]Permission {
	return map[Role][]Permission{
		RoleSystemAdmin: nil,
		RoleHRAdmin: {
			PermManageAllProfiles,
			PermViewAllProfiles,
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermManageOrgStructure,
			PermViewOrgStructure,
			PermApproveLeaves,
			PermManageAppraisals,
			PermResolveDisputes,
			PermViewAuditLog,
		},
		RoleHRManager: {
			PermViewAllProfiles,
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermViewOrgStructure,
			PermApproveLeaves,
			PermManageAppraisals,
			PermConductAppraisals,
			PermResolveDisputes,
		},
		RoleHREmployee: {
			PermViewAllProfiles,
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermViewOrgStructure,
			PermRequestLeave,
			PermViewOwnAppraisals,
			PermRaiseDisputes,
		},
		RoleDepartmentHead: {
			PermViewTeamProfiles,
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermViewOrgStructure,
			PermApproveLeaves,
			PermConductAppraisals,
			PermViewOwnAppraisals,
			PermRaiseDisputes,
		},
		RoleDepartmentEmployee: {
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermViewOrgStructure,
			PermRequestLeave,
			PermViewOwnAppraisals,
			PermRaiseDisputes,
		},
		RolePayrollSpecialist: {
			PermViewAllProfiles,
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermManagePayroll,
			PermRequestLeave,
		},
		RoleRecruiter: {
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermViewOrgStructure,
			PermManageRecruitment,
			PermRequestLeave,
		},
		RoleJobCandidate: {
			PermViewOwnProfile,
			PermEditOwnProfile,
			PermApplyForJobs,
		},
	}
}
