// Package audit registra y consulta la traza de auditoría. El registro es asíncrono:
// la operación de negocio nunca espera ni falla por la auditoría.
package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/pkg/ids"
	"github.com/jhoicas/clinica-api/pkg/logger"
	"github.com/jhoicas/clinica-api/pkg/metrics"
)

// Event campos que el caso de uso entrega al recorder. TenantID vacío = evento de sistema.
type Event struct {
	ActorID      string
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	Meta         entity.RequestMeta
	Details      map[string]any
	Severity     string // default info
	Status       string // default success
}

// Recorder es el puerto que consumen los casos de uso.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// RecorderConfig tamaño de cola, workers y reintentos.
type RecorderConfig struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

func (c RecorderConfig) withDefaults() RecorderConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

var _ Recorder = (*QueueRecorder)(nil)

// QueueRecorder cola acotada en proceso con workers y reintento con backoff exponencial.
// Cola llena, recorder cerrado o reintentos agotados se registran en el canal
// operacional (logger component=audit) y en métricas; nunca se devuelven al caller.
type QueueRecorder struct {
	repo    repository.AuditLogRepository
	cfg     RecorderConfig
	log     *logger.Logger
	metrics *metrics.Metrics
	ids     *ids.Generator
	now     func() time.Time

	queue    chan *entity.AuditLog
	mu       sync.RWMutex
	closed   bool
	inflight atomic.Int64
	workers  sync.WaitGroup
	stop     context.CancelFunc
	ctx      context.Context
}

// Option ajustes opcionales del recorder.
type Option func(*QueueRecorder)

// WithClock reloj para el timestamp de las entradas.
func WithClock(now func() time.Time) Option {
	return func(r *QueueRecorder) { r.now = now }
}

// WithMetrics contadores Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *QueueRecorder) { r.metrics = m }
}

// NewQueueRecorder arranca los workers. Llamar Close al apagar.
func NewQueueRecorder(repo repository.AuditLogRepository, cfg RecorderConfig, log *logger.Logger, opts ...Option) *QueueRecorder {
	if log == nil {
		log = logger.Nop()
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	r := &QueueRecorder{
		repo:  repo,
		cfg:   cfg,
		log:   log.Component("audit"),
		now:   time.Now,
		queue: make(chan *entity.AuditLog, cfg.QueueSize),
		ctx:   ctx,
		stop:  cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ids = ids.NewGenerator(r.now)
	for i := 0; i < cfg.Workers; i++ {
		r.workers.Add(1)
		go r.work()
	}
	return r
}

// Record normaliza la entrada y la encola sin bloquear.
func (r *QueueRecorder) Record(_ context.Context, ev Event) {
	entry := r.build(ev)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(entry, "recorder cerrado")
		return
	}
	r.inflight.Add(1)
	select {
	case r.queue <- entry:
		r.gauge()
	default:
		r.inflight.Add(-1)
		r.drop(entry, "cola de auditoría llena")
	}
}

// build aplica la normalización de escritura: el tenant siempre queda en
// details.tenant_id; las acciones sobre clínicas son eventos de sistema con la
// clínica como resource_id.
func (r *QueueRecorder) build(ev Event) *entity.AuditLog {
	details := make(map[string]any, len(ev.Details)+1)
	for k, v := range ev.Details {
		details[k] = v
	}
	entry := &entity.AuditLog{
		ID:            r.ids.New(),
		ActorID:       ev.ActorID,
		Action:        ev.Action,
		ResourceType:  ev.ResourceType,
		ResourceID:    ev.ResourceID,
		Timestamp:     r.now().UTC(),
		IPAddress:     ev.Meta.IPAddress,
		UserAgent:     ev.Meta.UserAgent,
		CorrelationID: ev.Meta.CorrelationID,
		Details:       details,
		Severity:      ev.Severity,
		Status:        ev.Status,
	}
	if entry.Severity == "" {
		entry.Severity = entity.SeverityInfo
	}
	if entry.Status == "" {
		entry.Status = entity.AuditStatusSuccess
	}
	switch {
	case ev.TenantID != "":
		tenant := ev.TenantID
		entry.TenantID = &tenant
		details[entity.DetailTenantID] = tenant
	case ev.ResourceType == entity.ResourceClinic && ev.ResourceID != "":
		if _, ok := details[entity.DetailTenantID]; !ok {
			details[entity.DetailTenantID] = ev.ResourceID
		}
	}
	return entry
}

func (r *QueueRecorder) work() {
	defer r.workers.Done()
	for entry := range r.queue {
		r.persist(entry)
		r.inflight.Add(-1)
		r.gauge()
	}
}

func (r *QueueRecorder) persist(entry *entity.AuditLog) {
	backoff := r.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-r.ctx.Done():
			}
			backoff *= 2
		}
		if err = r.repo.Append(r.ctx, entry); err == nil {
			if r.metrics != nil {
				r.metrics.AuditRecorded.WithLabelValues(entry.Action).Inc()
			}
			return
		}
		r.log.Warn().Err(err).
			Str("audit_id", entry.ID).
			Str("action", entry.Action).
			Int("attempt", attempt+1).
			Msg("fallo al persistir auditoría")
	}
	if r.metrics != nil {
		r.metrics.AuditFailed.WithLabelValues(entry.Action).Inc()
	}
	r.log.Error().Err(err).
		Str("audit_id", entry.ID).
		Str("action", entry.Action).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Msg("auditoría descartada tras agotar reintentos")
}

func (r *QueueRecorder) drop(entry *entity.AuditLog, reason string) {
	if r.metrics != nil {
		r.metrics.AuditDropped.Inc()
	}
	r.log.Error().
		Str("audit_id", entry.ID).
		Str("action", entry.Action).
		Str("resource_id", entry.ResourceID).
		Msg(reason)
}

func (r *QueueRecorder) gauge() {
	if r.metrics != nil {
		r.metrics.AuditQueueDepth.Set(float64(len(r.queue)))
	}
}

// Flush espera a que se procesen las entradas encoladas hasta ahora.
func (r *QueueRecorder) Flush(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for r.inflight.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close deja de aceptar entradas y drena la cola. Si ctx vence, los reintentos
// pendientes se abandonan.
func (r *QueueRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.stop()
		return nil
	case <-ctx.Done():
		r.stop()
		<-done
		return ctx.Err()
	}
}
