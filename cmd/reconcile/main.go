// Command reconcile reaprovisiona las credenciales de las clínicas en provisioning_failed
// e imprime en stdout, como JSON, las contraseñas temporales para el operador.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/clinic"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/storage"
	"github.com/jhoicas/clinica-api/pkg/config"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

const operatorID = "reconcile-cli"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Output: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer backend.Close()

	recorder := audit.NewQueueRecorder(backend.Audit, audit.RecorderConfig{
		QueueSize:    cfg.Audit.QueueSize,
		Workers:      1,
		MaxRetries:   cfg.Audit.MaxRetries,
		RetryBackoff: time.Duration(cfg.Audit.RetryBackoffMS) * time.Millisecond,
	}, log)

	operator := entity.Actor{
		ID:          operatorID,
		Role:        entity.RoleSystemLevel,
		Permissions: access.DefaultPermissions(entity.RoleSystemLevel),
	}
	hostname, _ := os.Hostname()
	meta := entity.RequestMeta{UserAgent: operatorID, IPAddress: hostname}

	results, err := clinic.NewReconciler(backend.Clinics, backend.Users, backend.Identity, recorder, log).
		Reconcile(ctx, operator, meta)
	if closeErr := recorder.Close(ctx); closeErr != nil {
		log.Error().Err(closeErr).Msg("vaciar cola de auditoría")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("reconciliación")
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	log.Info().Int("clinics", len(results)).Int("failed", failed).Msg("reconciliación terminada")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatal().Err(err).Msg("escribir resultado")
	}
	if failed > 0 {
		os.Exit(1)
	}
}
