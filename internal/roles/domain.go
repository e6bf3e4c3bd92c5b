package roles

import (
	"time"

	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

// Role is the persisted row that identities reference by ID.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RoleWithPermissions decorates a stored role with its registry permissions.
type RoleWithPermissions struct {
	Role
	Permissions []rbac.Permission `json:"permissions"`
}

var descriptions = map[rbac.Role]string{
	rbac.RoleSystemAdmin:        "Full administrative access",
	rbac.RoleHRAdmin:            "Administers employee records and org structure",
	rbac.RoleHRManager:          "Manages HR processes and appraisals",
	rbac.RoleHREmployee:         "HR staff member",
	rbac.RoleDepartmentHead:     "Leads a department and reviews its members",
	rbac.RoleDepartmentEmployee: "Regular department member",
	rbac.RolePayrollSpecialist:  "Runs payroll",
	rbac.RoleRecruiter:          "Manages recruitment",
	rbac.RoleJobCandidate:       "External applicant",
}
