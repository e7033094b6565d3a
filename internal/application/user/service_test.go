package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/user"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/identity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

type fixture struct {
	store     *memory.Store
	identity  *identity.MemoryService
	auditRepo *memory.AuditRepo
	recorder  *audit.QueueRecorder
	svc       *user.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), identity: identity.NewMemoryService(0), auditRepo: memory.NewAuditRepo()}
	f.recorder = audit.NewQueueRecorder(f.auditRepo, audit.RecorderConfig{}, logger.Nop())
	t.Cleanup(func() { _ = f.recorder.Close(context.Background()) })
	f.svc = user.NewService(f.store.Clinics(), f.store.Users(), f.identity, f.recorder, logger.Nop())

	ctx := context.Background()
	for _, c := range []entity.Clinic{
		{ID: "A", Name: "Clínica A", CNPJ: "11444777000161", Status: entity.ClinicStatusActive},
		{ID: "B", Name: "Clínica B", CNPJ: "11222333000181", Status: entity.ClinicStatusActive},
		{ID: "C", Name: "Clínica C", CNPJ: "45997418000153", Status: entity.ClinicStatusInactive},
	} {
		c := c
		require.NoError(t, f.store.Clinics().Create(ctx, &c))
	}
	return f
}

func (f *fixture) flush(t *testing.T) []*entity.AuditLog {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.recorder.Flush(ctx))
	return f.auditRepo.All()
}

var (
	root   = entity.Actor{ID: "root", Role: entity.RoleSystemLevel, Permissions: access.DefaultPermissions(entity.RoleSystemLevel)}
	adminA = entity.Actor{ID: "admin-a", Role: entity.RoleTenantAdmin, ClinicID: "A", Permissions: access.DefaultPermissions(entity.RoleTenantAdmin)}
	userA  = entity.Actor{ID: "user-a", Role: entity.RoleTenantUser, ClinicID: "A", Permissions: access.DefaultPermissions(entity.RoleTenantUser)}
	meta   = entity.RequestMeta{CorrelationID: "corr-u"}
)

func newUser(email, role string, perms ...string) dto.CreateUserRequest {
	return dto.CreateUserRequest{Email: email, Password: "segura123", Name: "Bruno Lima", Role: role, Permissions: perms}
}

// ─── CreateUser ──────────────────────────────────────────────────────────────

func TestCreateUser_TenantAdminEnSuClinica(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.CreateUser(context.Background(), adminA, meta, "A", newUser("Bruno@A.com", "tenant_user"))
	require.NoError(t, err)

	assert.Equal(t, "bruno@a.com", out.Email)
	assert.Equal(t, "A", out.ClinicID)
	assert.NotContains(t, out.Permissions, "manage_users")
	assert.Len(t, out.Permissions, 14)

	require.True(t, f.identity.Has(out.ID))
	assert.Equal(t, "A", f.identity.Claims(out.ID).ClinicID)

	entries := f.flush(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, entity.ActionUserCreated, e.Action)
	require.NotNil(t, e.TenantID)
	assert.Equal(t, "A", *e.TenantID)
	assert.True(t, e.BelongsToTenant("A"))
}

func TestCreateUser_MatrizDeRolesYAislamiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, adminA, meta, "A", newUser("x@a.com", "system_level"))
	assert.ErrorIs(t, err, domain.ErrForbidden, "tenant_admin no asigna system_level")

	_, err = f.svc.CreateUser(ctx, adminA, meta, "B", newUser("x@b.com", "tenant_user"))
	assert.ErrorIs(t, err, domain.ErrForbidden, "fuera de su clínica")

	_, err = f.svc.CreateUser(ctx, userA, meta, "A", newUser("x@a.com", "tenant_user"))
	assert.ErrorIs(t, err, domain.ErrForbidden, "sin manage_users")

	out, err := f.svc.CreateUser(ctx, root, meta, "B", newUser("x@b.com", "tenant_admin"))
	require.NoError(t, err)
	assert.Contains(t, out.Permissions, "manage_users")
}

func TestCreateUser_PermisosFueraDelTechoDelRol(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateUser(context.Background(), adminA, meta, "A",
		newUser("x@a.com", "tenant_user", "read_patient", "manage_users", "fly_drone"))

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Result.Errors, 2)
	assert.Contains(t, vErr.Result.Errors, `permiso desconocido: "fly_drone"`)
}

func TestCreateUser_PermisosExplicitosDentroDelTecho(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.CreateUser(context.Background(), adminA, meta, "A",
		newUser("x@a.com", "tenant_user", "read_patient", "read_patient", "read_dashboard"))
	require.NoError(t, err)
	assert.Equal(t, []string{"read_patient", "read_dashboard"}, out.Permissions)
}

func TestCreateUser_Conflictos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateUser(ctx, adminA, meta, "A", newUser("x@a.com", "tenant_user"))
	require.NoError(t, err)

	_, err = f.svc.CreateUser(ctx, adminA, meta, "A", newUser("X@a.com", "tenant_user"))
	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "email", cErr.Field)

	_, err = f.svc.CreateUser(ctx, root, meta, "C", newUser("y@c.com", "tenant_user"))
	assert.ErrorIs(t, err, domain.ErrConflict, "clínica inactiva")

	_, err = f.svc.CreateUser(ctx, root, meta, "Z", newUser("y@z.com", "tenant_user"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateUser_CompensaSiFallaLaCuenta(t *testing.T) {
	f := newFixture(t)
	f.identity.FailOn("claims", errors.New("proveedor caído"))

	_, err := f.svc.CreateUser(context.Background(), adminA, meta, "A", newUser("x@a.com", "tenant_user"))

	assert.ErrorIs(t, err, domain.ErrProvisioningFailed)
	u, _ := f.store.Users().GetByEmail(context.Background(), "x@a.com")
	assert.Nil(t, u, "el perfil se borra")
	assert.Empty(t, f.flush(t))
}

// ─── ListUsers ───────────────────────────────────────────────────────────────

func TestListUsers_Aislamiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateUser(ctx, adminA, meta, "A", newUser("x@a.com", "tenant_user"))
	require.NoError(t, err)

	list, err := f.svc.ListUsers(ctx, adminA, "A")
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	_, err = f.svc.ListUsers(ctx, adminA, "B")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.ListUsers(ctx, userA, "A")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ─── EnsureSystemAdmin ───────────────────────────────────────────────────────

func TestEnsureSystemAdmin_Idempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.EnsureSystemAdmin(ctx, "Root@Clinica.com", "segura123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureSystemAdmin(ctx, "root@clinica.com", "segura123")
	require.NoError(t, err)
	assert.False(t, created)

	acc, err := f.identity.Authenticate(ctx, "root@clinica.com", "segura123")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSystemLevel, acc.Claims.Role)
	assert.Empty(t, acc.Claims.ClinicID)
}
