package clinic_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/clinic"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/identity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

var (
	systemActor = entity.Actor{ID: "root", Role: entity.RoleSystemLevel}
	meta        = entity.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test", CorrelationID: "corr-1"}
)

// tickingClock avanza un minuto por lectura para que created_at sea distinto.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	store     *memory.Store
	identity  *identity.MemoryService
	auditRepo *memory.AuditRepo
	recorder  *audit.QueueRecorder
	svc       *clinic.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		identity:  identity.NewMemoryService(0),
		auditRepo: memory.NewAuditRepo(),
	}
	f.recorder = audit.NewQueueRecorder(f.auditRepo, audit.RecorderConfig{}, logger.Nop())
	t.Cleanup(func() { _ = f.recorder.Close(context.Background()) })

	clock := &tickingClock{t: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	var mu sync.Mutex
	seq := 0
	nextID := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	f.svc = clinic.NewService(f.store, f.store.Clinics(), f.store.Users(), f.identity, f.recorder, logger.Nop(),
		clinic.WithClock(clock.Now), clinic.WithIDGenerator(nextID))
	return f
}

// auditEntries espera la cola y devuelve las entradas en orden de escritura.
func (f *fixture) auditEntries(t *testing.T) []*entity.AuditLog {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.recorder.Flush(ctx))
	return f.auditRepo.All()
}

func (f *fixture) mustCreate(t *testing.T, in dto.CreateClinicRequest) *dto.ClinicResponse {
	t.Helper()
	out, err := f.svc.Create(context.Background(), systemActor, meta, in)
	require.NoError(t, err)
	return out
}

func validCreate() dto.CreateClinicRequest {
	return dto.CreateClinicRequest{
		Name:  "Clínica São Lucas",
		CNPJ:  "11.444.777/0001-61",
		Email: "contato@saolucas.com.br",
		Phone: "(11) 98765-4321",
		Address: dto.AddressDTO{
			Street:       "Av. Paulista",
			Number:       "1000",
			Neighborhood: "Bela Vista",
			City:         "São Paulo",
			State:        "sp",
			ZipCode:      "01310-100",
		},
		AdminName:     "Ana Souza",
		AdminEmail:    "Ana@SaoLucas.com.br",
		AdminPassword: "segura123",
	}
}

// otherClinic variante con CNPJ y emails distintos.
func otherClinic(name, cnpjDigits, city, emailUser string) dto.CreateClinicRequest {
	in := validCreate()
	in.Name = name
	in.CNPJ = cnpjDigits
	in.Email = emailUser + "@clinica.com.br"
	in.AdminEmail = "admin." + emailUser + "@clinica.com.br"
	in.Address.City = city
	return in
}

func tenantAdmin(clinicID string) entity.Actor {
	return entity.Actor{ID: "admin-" + clinicID, Role: entity.RoleTenantAdmin, ClinicID: clinicID}
}

func countAction(entries []*entity.AuditLog, action string) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
