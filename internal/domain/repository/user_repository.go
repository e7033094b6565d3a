package repository

import (
	"context"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByClinic(ctx context.Context, clinicID string) ([]*entity.User, error)
	Delete(ctx context.Context, id string) error
	DeleteByClinic(ctx context.Context, clinicID string) error
}
