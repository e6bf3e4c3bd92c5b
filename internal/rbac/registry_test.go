package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryIsTotal(t *testing.T) {
	reg := MustDefault()
	for _, role := range Roles() {
		perms, err := reg.PermissionsFor(role)
		require.NoError(t, err, role)
		assert.NotZero(t, perms.Len(), "role %s has no permissions", role)
	}
}

func TestSystemAdminHoldsEveryPermissionOnce(t *testing.T) {
	reg := MustDefault()
	perms, err := reg.PermissionsFor(RoleSystemAdmin)
	require.NoError(t, err)
	assert.Equal(t, len(Permissions()), perms.Len())
	for _, p := range Permissions() {
		assert.True(t, perms.Has(p), p)
	}
}

func TestNewRegistryRejectsMissingRole(t *testing.T) {
	table := DefaultTable()
	delete(table, RoleRecruiter)

	_, err := NewRegistry(table)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, RoleRecruiter, cfgErr.Role)
}

func TestNewRegistryRejectsUnknownEntries(t *testing.T) {
	table := DefaultTable()
	table[RoleRecruiter] = append(table[RoleRecruiter], Permission("LAUNCH_ROCKETS"))
	_, err := NewRegistry(table)
	assert.Error(t, err)

	table = DefaultTable()
	table[Role("department head")] = []Permission{PermViewOwnProfile}
	_, err = NewRegistry(table)
	assert.Error(t, err)
}

func TestPermissionsForUnknownRole(t *testing.T) {
	reg := MustDefault()
	_, err := reg.PermissionsFor(Role("Janitor"))
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestMustDefaultPanicsOnlyOnBadTable(t *testing.T) {
	assert.NotPanics(t, func() { MustDefault() })
}

func TestParseRoleNormalizesLabels(t *testing.T) {
	cases := map[string]Role{
		"System Admin":          RoleSystemAdmin,
		"  hr   admin ":         RoleHRAdmin,
		"HR_MANAGER":            RoleHRManager,
		"department head":       RoleDepartmentHead,
		"Department-Employee":   RoleDepartmentEmployee,
		"job\tcandidate":        RoleJobCandidate,
		"payroll__specialist  ": RolePayrollSpecialist,
	}
	for label, want := range cases {
		got, ok := ParseRole(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}

	_, ok := ParseRole("Chief Vibes Officer")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestRoleValidRequiresCanonicalLabel(t *testing.T) {
	assert.True(t, RoleHRAdmin.Valid())
	assert.False(t, Role("hr admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestParsePermission(t *testing.T) {
	p, ok := ParsePermission(" approve_leaves ")
	require.True(t, ok)
	assert.Equal(t, PermApproveLeaves, p)

	_, ok = ParsePermission("APPROVE LEAVES")
	assert.False(t, ok)
}

func TestPermissionSetSliceSorted(t *testing.T) {
	set := newPermissionSet([]Permission{PermViewOwnProfile, PermApproveLeaves, PermViewOwnProfile})
	assert.Equal(t, []Permission{PermApproveLeaves, PermViewOwnProfile}, set.Slice())
	assert.True(t, set.Intersects([]Permission{PermManagePayroll, PermApproveLeaves}))
	assert.False(t, set.Intersects(nil))
}
