package ports

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// AuditReportHeader datos de cabecera del informe de auditoría de una clínica.
type AuditReportHeader struct {
	ClinicID    string
	ClinicName  string
	CNPJ        string
	GeneratedAt time.Time
	GeneratedBy string
}

// AuditReportGenerator define el puerto de salida para renderizar el informe (PDF).
type AuditReportGenerator interface {
	Generate(ctx context.Context, header AuditReportHeader, entries []*entity.AuditLog) ([]byte, error)
}
