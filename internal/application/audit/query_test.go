package audit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
)

var (
	systemActor = entity.Actor{ID: "root", Role: entity.RoleSystemLevel}
	adminX      = entity.Actor{ID: "admin-x", Role: entity.RoleTenantAdmin, ClinicID: "X"}
	adminY      = entity.Actor{ID: "admin-y", Role: entity.RoleTenantAdmin, ClinicID: "Y"}
	userX       = entity.Actor{ID: "user-x", Role: entity.RoleTenantUser, ClinicID: "X"}
)

func strPtr(s string) *string { return &s }

// seedInterleaved escribe 12 entradas de X intercaladas con 30 de otras clínicas.
// Las de X alternan las dos representaciones: resource_id (sistema) y scope de tenant.
func seedInterleaved(t *testing.T, repo *memory.AuditRepo) []string {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var xIDs []string
	x := 0
	for i := 0; i < 42; i++ {
		e := &entity.AuditLog{
			ID:        fmt.Sprintf("e-%02d", i),
			ActorID:   "root",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Severity:  entity.SeverityInfo,
			Status:    entity.AuditStatusSuccess,
		}
		if i%7 < 2 && x < 12 {
			x++
			xIDs = append(xIDs, e.ID)
			if x%2 == 0 {
				e.Action, e.ResourceType, e.ResourceID = entity.ActionClinicUpdated, entity.ResourceClinic, "X"
				e.Details = map[string]any{entity.DetailTenantID: "X"}
			} else {
				e.TenantID = strPtr("X")
				e.Action, e.ResourceType, e.ResourceID = entity.ActionUserCreated, entity.ResourceUser, "u-"+e.ID
				e.Details = map[string]any{entity.DetailTenantID: "X"}
			}
		} else {
			other := fmt.Sprintf("T%d", i%3)
			if i%2 == 0 {
				e.Action, e.ResourceType, e.ResourceID = entity.ActionClinicUpdated, entity.ResourceClinic, other
				e.Details = map[string]any{entity.DetailTenantID: other}
			} else {
				e.TenantID = strPtr(other)
				e.Action, e.ResourceType, e.ResourceID = entity.ActionUserCreated, entity.ResourceUser, "u-"+e.ID
				e.Details = map[string]any{entity.DetailTenantID: other}
			}
		}
		require.NoError(t, repo.Append(context.Background(), e))
	}
	require.Len(t, xIDs, 12)
	return xIDs
}

// ─── GetForTenant ────────────────────────────────────────────────────────────

func TestGetForTenant_FiltraAntesDePaginar(t *testing.T) {
	repo := memory.NewAuditRepo()
	xIDs := seedInterleaved(t, repo)
	require.Equal(t, 42, repo.Len())
	svc := audit.NewQueryService(repo, memory.NewStore().Clinics(), nil)

	got, err := svc.GetForTenant(context.Background(), systemActor, "X", 10, 5)
	require.NoError(t, err)

	require.Len(t, got, 7)
	// más recientes primero: se saltan las 5 más nuevas de X
	for i, e := range got {
		assert.True(t, e.BelongsToTenant("X"))
		assert.Equal(t, xIDs[len(xIDs)-1-5-i], e.ID)
	}
}

func TestGetForTenant_OffsetFueraDeRangoDevuelveVacio(t *testing.T) {
	repo := memory.NewAuditRepo()
	seedInterleaved(t, repo)
	svc := audit.NewQueryService(repo, memory.NewStore().Clinics(), nil)

	got, err := svc.GetForTenant(context.Background(), systemActor, "X", 10, 12)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetForTenant_RepresentacionAntiguaEnDetails(t *testing.T) {
	repo := memory.NewAuditRepo()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, &entity.AuditLog{
		ID: "legacy", ActorID: "root", Action: entity.ActionUserCreated,
		ResourceType: entity.ResourceUser, ResourceID: "u-1",
		Timestamp: fixedNow, Details: map[string]any{entity.DetailTenantID: "X"},
	}))
	svc := audit.NewQueryService(repo, memory.NewStore().Clinics(), nil)

	got, err := svc.GetForTenant(ctx, adminX, "X", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy", got[0].ID)
}

func TestGetForTenant_Autorizacion(t *testing.T) {
	svc := audit.NewQueryService(memory.NewAuditRepo(), memory.NewStore().Clinics(), nil)
	ctx := context.Background()

	_, err := svc.GetForTenant(ctx, adminY, "X", 10, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetForTenant(ctx, userX, "X", 10, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetForTenant(ctx, adminX, "X", 10, 0)
	assert.NoError(t, err)
}

func TestGetForTenant_PaginacionInvalida(t *testing.T) {
	svc := audit.NewQueryService(memory.NewAuditRepo(), memory.NewStore().Clinics(), nil)

	_, err := svc.GetForTenant(context.Background(), systemActor, "X", -1, -2)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Result.Errors, 2)
}

func TestFilterForTenant_DescartaOtrosTenants(t *testing.T) {
	entries := []*entity.AuditLog{
		{ID: "1", ResourceID: "X"},
		{ID: "2", ResourceID: "Y", Details: map[string]any{entity.DetailTenantID: "Y"}},
		{ID: "3", ResourceID: "u", Details: map[string]any{entity.DetailTenantID: "X"}},
	}
	got := audit.FilterForTenant(entries, "X")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

// ─── List ────────────────────────────────────────────────────────────────────

func TestList_SoloSystemLevelYFiltros(t *testing.T) {
	repo := memory.NewAuditRepo()
	seedInterleaved(t, repo)
	svc := audit.NewQueryService(repo, memory.NewStore().Clinics(), nil)
	ctx := context.Background()

	_, err := svc.List(ctx, adminX, repository.AuditFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.List(ctx, systemActor, repository.AuditFilter{Action: entity.ActionUserCreated, Limit: 100})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, e := range got {
		assert.Equal(t, entity.ActionUserCreated, e.Action)
	}

	_, err = svc.List(ctx, systemActor, repository.AuditFilter{Severity: "critical"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Report ──────────────────────────────────────────────────────────────────

type captureReport struct {
	header  ports.AuditReportHeader
	entries []*entity.AuditLog
}

func (c *captureReport) Generate(_ context.Context, h ports.AuditReportHeader, entries []*entity.AuditLog) ([]byte, error) {
	c.header, c.entries = h, entries
	return []byte("%PDF-"), nil
}

func TestReport_ClinicaInexistente(t *testing.T) {
	svc := audit.NewQueryService(memory.NewAuditRepo(), memory.NewStore().Clinics(), &captureReport{})
	_, err := svc.Report(context.Background(), systemActor, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReport_RenderizaEntradasDeLaClinica(t *testing.T) {
	repo := memory.NewAuditRepo()
	seedInterleaved(t, repo)
	store := memory.NewStore()
	require.NoError(t, store.Clinics().Create(context.Background(), &entity.Clinic{ID: "X", Name: "Clínica X", CNPJ: "11444777000161"}))
	rep := &captureReport{}
	svc := audit.NewQueryService(repo, store.Clinics(), rep)

	out, err := svc.Report(context.Background(), adminX, "X")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-"), out)
	assert.Equal(t, "Clínica X", rep.header.ClinicName)
	assert.Equal(t, "admin-x", rep.header.GeneratedBy)
	assert.Len(t, rep.entries, 12)
}

func TestReport_NoAplicaElLimiteDelVisor(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAuditRepo()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	n := audit.MaxLimit + 50
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Append(ctx, &entity.AuditLog{
			ID:           fmt.Sprintf("r-%04d", i),
			ActorID:      "root",
			TenantID:     strPtr("X"),
			Action:       entity.ActionUserCreated,
			ResourceType: entity.ResourceUser,
			ResourceID:   fmt.Sprintf("u-%d", i),
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			Details:      map[string]any{entity.DetailTenantID: "X"},
			Severity:     entity.SeverityInfo,
			Status:       entity.AuditStatusSuccess,
		}))
	}
	store := memory.NewStore()
	require.NoError(t, store.Clinics().Create(ctx, &entity.Clinic{ID: "X", Name: "Clínica X", CNPJ: "11444777000161"}))
	rep := &captureReport{}
	svc := audit.NewQueryService(repo, store.Clinics(), rep)

	_, err := svc.Report(ctx, systemActor, "X")
	require.NoError(t, err)
	assert.Len(t, rep.entries, n)
	assert.Equal(t, fmt.Sprintf("r-%04d", n-1), rep.entries[0].ID, "más reciente primero")
}

func TestReport_TenantAjenoDenegado(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Clinics().Create(context.Background(), &entity.Clinic{ID: "X", Name: "Clínica X", CNPJ: "11444777000161"}))
	svc := audit.NewQueryService(memory.NewAuditRepo(), store.Clinics(), &captureReport{})
	_, err := svc.Report(context.Background(), adminY, "X")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
