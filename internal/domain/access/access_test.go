package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

func TestCanAssignRole_Matriz(t *testing.T) {
	assert.False(t, access.CanAssignRole(entity.RoleTenantAdmin, entity.RoleSystemLevel))
	assert.True(t, access.CanAssignRole(entity.RoleSystemLevel, entity.RoleTenantUser))
	assert.True(t, access.CanAssignRole(entity.RoleSystemLevel, entity.RoleSystemLevel))
	assert.True(t, access.CanAssignRole(entity.RoleTenantAdmin, entity.RoleTenantAdmin))
	assert.True(t, access.CanAssignRole(entity.RoleTenantAdmin, entity.RoleTenantUser))
	for _, target := range entity.Roles() {
		assert.False(t, access.CanAssignRole(entity.RoleTenantUser, target), "tenant_user no asigna %s", target)
	}
	assert.False(t, access.CanAssignRole(entity.RoleSystemLevel, entity.Role("root")))
}

func TestAuthorizeRoleAssignment_FueraDeSuClinica(t *testing.T) {
	admin := entity.Actor{ID: "u1", Role: entity.RoleTenantAdmin, ClinicID: "A"}
	require.NoError(t, access.AuthorizeRoleAssignment(admin, entity.RoleTenantUser, "A"))

	err := access.AuthorizeRoleAssignment(admin, entity.RoleTenantUser, "B")
	var authErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDefaultPermissions(t *testing.T) {
	admin := access.DefaultPermissions(entity.RoleTenantAdmin)
	user := access.DefaultPermissions(entity.RoleTenantUser)

	assert.Len(t, admin, 15)
	assert.True(t, access.HasPermission(admin, entity.PermManageUsers))
	assert.Len(t, user, 14)
	assert.False(t, access.HasPermission(user, entity.PermManageUsers))
	assert.True(t, access.HasPermission(user, entity.PermReadDashboard))
	assert.Nil(t, access.DefaultPermissions(entity.Role("otro")))
}

func TestHasPermission_PertenenciaExacta(t *testing.T) {
	perms := []entity.Permission{entity.PermReadPatient}
	assert.True(t, access.HasPermission(perms, entity.PermReadPatient))
	assert.False(t, access.HasPermission(perms, entity.Permission("read_patients")))
	assert.False(t, access.HasPermission(nil, entity.PermReadPatient))
}

func TestResolvePermissions(t *testing.T) {
	perms, err := access.ResolvePermissions(entity.RoleTenantUser, nil)
	require.NoError(t, err)
	assert.Len(t, perms, 14)

	perms, err = access.ResolvePermissions(entity.RoleTenantUser, []string{"read_patient", "read_patient"})
	require.NoError(t, err)
	assert.Equal(t, []entity.Permission{entity.PermReadPatient}, perms)

	_, err = access.ResolvePermissions(entity.RoleTenantUser, []string{"manage_users", "fly"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Result.Errors, 2)
}

// Para toda clínica A ≠ B, un recurso de A es inaccesible desde B y accesible a system_level.
func TestCanAccess_AislamientoEntreClinicas(t *testing.T) {
	clinics := []string{"A", "B", "C"}
	for _, resource := range clinics {
		for _, actor := range clinics {
			assert.Equal(t, actor == resource, access.CanAccess(actor, resource), "actor %s recurso %s", actor, resource)
		}
		assert.True(t, access.CanAccess("", resource), "system_level accede a %s", resource)
	}
}

func TestGuard(t *testing.T) {
	root := entity.Actor{ID: "root", Role: entity.RoleSystemLevel}
	adminA := entity.Actor{ID: "a", Role: entity.RoleTenantAdmin, ClinicID: "A"}
	orphan := entity.Actor{ID: "x", Role: entity.RoleTenantUser}

	assert.NoError(t, access.Guard(root, "A"))
	assert.NoError(t, access.Guard(adminA, "A"))
	assert.ErrorIs(t, access.Guard(adminA, "B"), domain.ErrForbidden)
	assert.ErrorIs(t, access.Guard(orphan, "A"), domain.ErrForbidden, "sin clínica no equivale a system_level")
}

func TestRequireRoleYPermission(t *testing.T) {
	user := entity.Actor{Role: entity.RoleTenantUser, Permissions: access.DefaultPermissions(entity.RoleTenantUser)}
	assert.ErrorIs(t, access.RequireRole(user, entity.RoleSystemLevel), domain.ErrForbidden)
	assert.NoError(t, access.RequireRole(user, entity.RoleTenantAdmin, entity.RoleTenantUser))
	assert.NoError(t, access.RequirePermission(user, entity.PermCreateInvoice))
	assert.ErrorIs(t, access.RequirePermission(user, entity.PermManageUsers), domain.ErrForbidden)
}
