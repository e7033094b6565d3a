// Package storage arma los adaptadores de persistencia e identidad según STORAGE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/internal/infrastructure/identity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/clinica-api/pkg/config"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// Backend puertos de salida listos para inyectar en los casos de uso.
type Backend struct {
	Tx       repository.TxRunner
	Clinics  repository.ClinicRepository
	Users    repository.UserRepository
	Audit    repository.AuditLogRepository
	Identity ports.IdentityService
	close    func()
}

// Close libera las conexiones del backend.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open crea el backend configurado. postgres aplica el esquema antes de devolver.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &Backend{
			Tx:       store,
			Clinics:  store.Clinics(),
			Users:    store.Users(),
			Audit:    memory.NewAuditRepo(),
			Identity: identity.NewMemoryService(0),
		}, nil
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migración: %w", err)
		}
		return &Backend{
			Tx:       postgres.NewTxRunner(pool),
			Clinics:  postgres.NewClinicRepository(pool),
			Users:    postgres.NewUserRepository(pool),
			Audit:    postgres.NewAuditLogRepository(pool),
			Identity: postgres.NewAccountService(pool, 0),
			close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER desconocido: %q", cfg.Storage.Driver)
	}
}
