package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

// Límites de paginación del visor de auditoría.
const (
	DefaultLimit     = 50
	MaxLimit         = dto.MaxPageLimit
	ReportMaxEntries = 500
)

// QueryService lectura paginada y filtrable de la traza.
type QueryService struct {
	repo     repository.AuditLogRepository
	clinics  repository.ClinicRepository
	reporter ports.AuditReportGenerator
	now      func() time.Time
}

// NewQueryService construye el servicio. reporter nil deshabilita Report.
func NewQueryService(repo repository.AuditLogRepository, clinics repository.ClinicRepository, reporter ports.AuditReportGenerator) *QueryService {
	return &QueryService{repo: repo, clinics: clinics, reporter: reporter, now: time.Now}
}

// GetForTenant entradas de la clínica, más recientes primero. Pide al almacén una
// ventana de limit+offset candidatas, filtra por pertenencia (resource_id o
// details.tenant_id) y recién entonces corta [offset, offset+limit).
func (s *QueryService) GetForTenant(ctx context.Context, actor entity.Actor, tenantID string, limit, offset int) ([]*entity.AuditLog, error) {
	if err := s.authorizeTenant(actor, tenantID); err != nil {
		return nil, err
	}
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.ListTenantCandidates(ctx, tenantID, limit+offset)
	if err != nil {
		return nil, fmt.Errorf("auditoría de la clínica %s: %w", tenantID, err)
	}
	return paginate(FilterForTenant(candidates, tenantID), limit, offset), nil
}

// FilterForTenant conserva solo las entradas que pertenecen al tenant.
func FilterForTenant(entries []*entity.AuditLog, tenantID string) []*entity.AuditLog {
	out := make([]*entity.AuditLog, 0, len(entries))
	for _, e := range entries {
		if e.BelongsToTenant(tenantID) {
			out = append(out, e)
		}
	}
	return out
}

func paginate(entries []*entity.AuditLog, limit, offset int) []*entity.AuditLog {
	if offset >= len(entries) {
		return []*entity.AuditLog{}
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

// List listado global con filtros. Solo system_level.
func (s *QueryService) List(ctx context.Context, actor entity.Actor, filter repository.AuditFilter) ([]*entity.AuditLog, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel); err != nil {
		return nil, err
	}
	var errs []string
	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset
	switch filter.Severity {
	case "", entity.SeverityInfo, entity.SeverityWarning, entity.SeverityError:
	default:
		errs = append(errs, fmt.Sprintf("severidad desconocida: %q", filter.Severity))
	}
	switch filter.Status {
	case "", entity.AuditStatusSuccess, entity.AuditStatusError:
	default:
		errs = append(errs, fmt.Sprintf("estado desconocido: %q", filter.Status))
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		errs = append(errs, "rango de fechas inválido: from es posterior a to")
	}
	if len(errs) > 0 {
		return nil, &domain.ValidationError{Result: domain.NewValidationResult(errs)}
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listado de auditoría: %w", err)
	}
	return entries, nil
}

// Report renderiza la traza reciente de la clínica.
func (s *QueryService) Report(ctx context.Context, actor entity.Actor, tenantID string) ([]byte, error) {
	if s.reporter == nil {
		return nil, fmt.Errorf("informe de auditoría no configurado")
	}
	if err := s.authorizeTenant(actor, tenantID); err != nil {
		return nil, err
	}
	clinic, err := s.clinics.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, &domain.NotFoundError{Resource: "clínica", ID: tenantID}
	}
	candidates, err := s.repo.ListTenantCandidates(ctx, tenantID, ReportMaxEntries)
	if err != nil {
		return nil, fmt.Errorf("informe de auditoría de la clínica %s: %w", tenantID, err)
	}
	entries := paginate(FilterForTenant(candidates, tenantID), ReportMaxEntries, 0)
	header := ports.AuditReportHeader{
		ClinicID:    clinic.ID,
		ClinicName:  clinic.Name,
		CNPJ:        clinic.CNPJ,
		GeneratedAt: s.now().UTC(),
		GeneratedBy: actor.ID,
	}
	return s.reporter.Generate(ctx, header, entries)
}

// authorizeTenant system_level o tenant_admin de la propia clínica.
func (s *QueryService) authorizeTenant(actor entity.Actor, tenantID string) error {
	if err := access.RequireRole(actor, entity.RoleSystemLevel, entity.RoleTenantAdmin); err != nil {
		return err
	}
	return access.Guard(actor, tenantID)
}

func normalizePage(limit, offset int) (int, int, error) {
	var errs []string
	if limit < 0 {
		errs = append(errs, "limit no puede ser negativo")
	}
	if limit > MaxLimit {
		errs = append(errs, fmt.Sprintf("limit máximo es %d", MaxLimit))
	}
	if offset < 0 {
		errs = append(errs, "offset no puede ser negativo")
	}
	if len(errs) > 0 {
		return 0, 0, &domain.ValidationError{Result: domain.NewValidationResult(errs)}
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return limit, offset, nil
}

// ToResponse convierte entradas al DTO del visor.
func ToResponse(entries []*entity.AuditLog) []dto.AuditLogResponse {
	out := make([]dto.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditLogResponse{
			ID:            e.ID,
			ActorID:       e.ActorID,
			TenantID:      e.TenantID,
			Action:        e.Action,
			ResourceType:  e.ResourceType,
			ResourceID:    e.ResourceID,
			Timestamp:     e.Timestamp,
			IPAddress:     e.IPAddress,
			UserAgent:     e.UserAgent,
			CorrelationID: e.CorrelationID,
			Details:       e.Details,
			Severity:      e.Severity,
			Status:        e.Status,
		})
	}
	return out
}
