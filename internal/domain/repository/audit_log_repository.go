package repository

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// AuditFilter filtros del listado global de auditoría (solo system_level).
type AuditFilter struct {
	Action   string
	ActorID  string
	Severity string
	Status   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// AuditLogRepository almacén append-only: no existe Update ni Delete.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *entity.AuditLog) error
	// ListTenantCandidates devuelve hasta window entradas, más recientes primero, que
	// pueden pertenecer al tenant: las de scope tenantID y las de sistema cuyo
	// resource_id o details.tenant_id lo referencian.
	ListTenantCandidates(ctx context.Context, tenantID string, window int) ([]*entity.AuditLog, error)
	List(ctx context.Context, filter AuditFilter) ([]*entity.AuditLog, error)
}
