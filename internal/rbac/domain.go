package rbac

import "strings"

// Role identifies a fixed access profile. Values are the canonical display labels.
type Role string

// Known roles.
const (
	RoleSystemAdmin        Role = "System Admin"
	RoleHRAdmin            Role = "HR Admin"
	RoleHRManager          Role = "HR Manager"
	RoleHREmployee         Role = "HR Employee"
	RoleDepartmentHead     Role = "Department Head"
	RoleDepartmentEmployee Role = "Department Employee"
	RolePayrollSpecialist  Role = "Payroll Specialist"
	RoleRecruiter          Role = "Recruiter"
	RoleJobCandidate       Role = "Job Candidate"
)

// Permission represents an atomic capability.
type Permission string

// Known permissions.
const (
	PermManageAllProfiles  Permission = "MANAGE_ALL_PROFILES"
	PermViewAllProfiles    Permission = "VIEW_ALL_PROFILES"
	PermViewTeamProfiles   Permission = "VIEW_TEAM_PROFILES"
	PermViewOwnProfile     Permission = "VIEW_OWN_PROFILE"
	PermEditOwnProfile     Permission = "EDIT_OWN_PROFILE"
	PermManageOrgStructure Permission = "MANAGE_ORG_STRUCTURE"
	PermViewOrgStructure   Permission = "VIEW_ORG_STRUCTURE"
	PermApproveLeaves      Permission = "APPROVE_LEAVES"
	PermRequestLeave       Permission = "REQUEST_LEAVE"
	PermManageAppraisals   Permission = "MANAGE_APPRAISALS"
	PermConductAppraisals  Permission = "CONDUCT_APPRAISALS"
	PermViewOwnAppraisals  Permission = "VIEW_OWN_APPRAISALS"
	PermResolveDisputes    Permission = "RESOLVE_DISPUTES"
	PermRaiseDisputes      Permission = "RAISE_DISPUTES"
	PermManagePayroll      Permission = "MANAGE_PAYROLL"
	PermManageRecruitment  Permission = "MANAGE_RECRUITMENT"
	PermApplyForJobs       Permission = "APPLY_FOR_JOBS"
	PermViewAuditLog       Permission = "VIEW_AUDIT_LOG"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{
		RoleSystemAdmin,
		RoleHRAdmin,
		RoleHRManager,
		RoleHREmployee,
		RoleDepartmentHead,
		RoleDepartmentEmployee,
		RolePayrollSpecialist,
		RoleRecruiter,
		RoleJobCandidate,
	}
}

// Permissions lists every permission in a stable order.
func Permissions() []Permission {
	return []Permission{
		PermManageAllProfiles,
		PermViewAllProfiles,
		PermViewTeamProfiles,
		PermViewOwnProfile,
		PermEditOwnProfile,
		PermManageOrgStructure,
		PermViewOrgStructure,
		PermApproveLeaves,
		PermRequestLeave,
		PermManageAppraisals,
		PermConductAppraisals,
		PermViewOwnAppraisals,
		PermResolveDisputes,
		PermRaiseDisputes,
		PermManagePayroll,
		PermManageRecruitment,
		PermApplyForJobs,
		PermViewAuditLog,
	}
}

// NormalizeLabel lower-cases a role label and collapses runs of whitespace,
// underscores and hyphens into a single space.
func NormalizeLabel(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		switch r {
		case '_', '-', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
	return strings.Join(fields, " ")
}

var rolesByLabel = func() map[string]Role {
	out := make(map[string]Role, len(Roles()))
	for _, role := range Roles() {
		out[NormalizeLabel(string(role))] = role
	}
	return out
}()

// ParseRole resolves a free-form label to a known Role.
func ParseRole(label string) (Role, bool) {
	role, ok := rolesByLabel[NormalizeLabel(label)]
	return role, ok
}

// ParsePermission resolves a permission name, tolerating case and surrounding space.
func ParsePermission(name string) (Permission, bool) {
	candidate := Permission(strings.ToUpper(strings.TrimSpace(name)))
	for _, p := range Permissions() {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	role, ok := rolesByLabel[NormalizeLabel(string(r))]
	return ok && role == r
}

func (r Role) String() string { return string(r) }

// Principal describes the authenticated actor as seen by the gate.
type Principal interface {
	GetRole() Role
}
