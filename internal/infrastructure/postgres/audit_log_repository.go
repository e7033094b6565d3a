package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo traza append-only sobre PostgreSQL (un trigger rechaza UPDATE/DELETE).
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

const auditColumns = `id, actor_id, tenant_id, action, resource_type, resource_id, ts,
	ip_address, user_agent, correlation_id, details, severity, status`

// Append inserta la entrada; details va como JSONB.
func (r *AuditLogRepo) Append(ctx context.Context, e *entity.AuditLog) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("details jsonb: %w", err)
	}
	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		e.ID, e.ActorID, e.TenantID, e.Action, e.ResourceType, e.ResourceID, e.Timestamp,
		e.IPAddress, e.UserAgent, e.CorrelationID, details, e.Severity, e.Status,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListTenantCandidates empuja el predicado de pertenencia a la consulta: entradas con
// scope del tenant o de sistema que lo referencian por resource_id o details.tenant_id.
func (r *AuditLogRepo) ListTenantCandidates(ctx context.Context, tenantID string, window int) ([]*entity.AuditLog, error) {
	query := `
		SELECT ` + auditColumns + ` FROM audit_logs
		WHERE tenant_id = $1
		   OR (tenant_id IS NULL AND (resource_id = $1 OR details ->> 'tenant_id' = $1))
		ORDER BY ts DESC, id DESC
		LIMIT $2`
	return r.query(ctx, query, tenantID, window)
}

// List listado global con filtros opcionales.
func (r *AuditLogRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("ts >= $%d", *f.From)
	}
	if f.To != nil {
		add("ts <= $%d", *f.To)
	}
	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ts DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	args = append(args, f.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))
	return r.query(ctx, query, args...)
}

func (r *AuditLogRepo) query(ctx context.Context, query string, args ...any) ([]*entity.AuditLog, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.AuditLog, 0)
	for rows.Next() {
		e, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanAuditLog(row pgx.Row) (*entity.AuditLog, error) {
	var (
		e       entity.AuditLog
		details []byte
	)
	err := row.Scan(&e.ID, &e.ActorID, &e.TenantID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Timestamp,
		&e.IPAddress, &e.UserAgent, &e.CorrelationID, &details, &e.Severity, &e.Status)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("details jsonb: %w", err)
		}
	}
	return &e, nil
}
