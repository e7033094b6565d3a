package repository

import (
	"context"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// Campos de ordenación soportados por Search.
const (
	ClinicSortName      = "name"
	ClinicSortCity      = "city"
	ClinicSortCreatedAt = "created_at"
)

// ClinicFilter criterios de listado para búsqueda de clínicas.
// El filtrado por texto lo aplica el caso de uso; aquí solo estado.
type ClinicFilter struct {
	Status string
}

// ClinicRepository define el puerto de persistencia para Clinic (DIP).
// Get* devuelven (nil, nil) cuando no existe, como el resto de repos.
type ClinicRepository interface {
	Create(ctx context.Context, clinic *entity.Clinic) error
	GetByID(ctx context.Context, id string) (*entity.Clinic, error)
	GetByCNPJ(ctx context.Context, cnpj string) (*entity.Clinic, error)
	GetByEmail(ctx context.Context, email string) (*entity.Clinic, error)
	Update(ctx context.Context, clinic *entity.Clinic) error
	UpdateStatus(ctx context.Context, id, status string) error
	List(ctx context.Context, filter ClinicFilter) ([]*entity.Clinic, error)
	Delete(ctx context.Context, id string) error
}
