package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditRepo)(nil)

// AuditRepo log de auditoría append-only en memoria.
type AuditRepo struct {
	mu      sync.RWMutex
	entries []entity.AuditLog
	failErr error
}

// NewAuditRepo crea el repositorio vacío.
func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

// FailAppends hace que Append devuelva err (nil lo restablece). Solo para tests.
func (r *AuditRepo) FailAppends(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

// Append agrega una copia de la entrada.
func (r *AuditRepo) Append(ctx context.Context, entry *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.entries = append(r.entries, copyEntry(*entry))
	return nil
}

// Len cantidad de entradas almacenadas.
func (r *AuditRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// All devuelve copias de todas las entradas en orden de escritura.
func (r *AuditRepo) All() []*entity.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.AuditLog, 0, len(r.entries))
	for _, e := range r.entries {
		c := copyEntry(e)
		out = append(out, &c)
	}
	return out
}

func (r *AuditRepo) ListTenantCandidates(ctx context.Context, tenantID string, window int) ([]*entity.AuditLog, error) {
	return r.collect(window, 0, func(e *entity.AuditLog) bool {
		if e.TenantID != nil {
			return *e.TenantID == tenantID
		}
		return e.ResourceID == tenantID || e.DetailsTenantID() == tenantID
	}), nil
}

func (r *AuditRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	return r.collect(f.Limit, f.Offset, func(e *entity.AuditLog) bool {
		switch {
		case f.Action != "" && e.Action != f.Action:
			return false
		case f.ActorID != "" && e.ActorID != f.ActorID:
			return false
		case f.Severity != "" && e.Severity != f.Severity:
			return false
		case f.Status != "" && e.Status != f.Status:
			return false
		case f.From != nil && e.Timestamp.Before(*f.From):
			return false
		case f.To != nil && e.Timestamp.After(*f.To):
			return false
		}
		return true
	}), nil
}

// collect recorre más recientes primero; limit <= 0 significa sin límite.
func (r *AuditRepo) collect(limit, offset int, match func(*entity.AuditLog) bool) []*entity.AuditLog {
	r.mu.RLock()
	idx := make([]int, 0, len(r.entries))
	for i := range r.entries {
		idx = append(idx, i)
	}
	entries := r.entries
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := entries[idx[a]], entries[idx[b]]
		if ea.Timestamp.Equal(eb.Timestamp) {
			return idx[a] > idx[b]
		}
		return ea.Timestamp.After(eb.Timestamp)
	})
	out := make([]*entity.AuditLog, 0)
	skipped := 0
	for _, i := range idx {
		e := copyEntry(entries[i])
		if !match(&e) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	r.mu.RUnlock()
	return out
}

func copyEntry(e entity.AuditLog) entity.AuditLog {
	if e.TenantID != nil {
		t := *e.TenantID
		e.TenantID = &t
	}
	if e.Details != nil {
		d := make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			d[k] = v
		}
		e.Details = d
	}
	return e
}
