package ports

import (
	"context"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// AccountClaims claims que el proveedor de identidad adjunta a la cuenta y que luego
// viajan en el token como contexto del actor.
type AccountClaims struct {
	Role        entity.Role         `json:"role"`
	ClinicID    string              `json:"tenant_id,omitempty"`
	Permissions []entity.Permission `json:"permissions"`
}

// Account cuenta de acceso autenticada.
type Account struct {
	ID     string
	Email  string
	Claims AccountClaims
}

// IdentityService define el puerto de salida hacia el servicio de cuentas de acceso.
// Es externo al núcleo: sus llamadas no participan de la transacción del almacén.
type IdentityService interface {
	// CreateAccount crea la credencial de login. Email repetido → *domain.ConflictError.
	CreateAccount(ctx context.Context, id, email, password string) error
	SetClaims(ctx context.Context, id string, claims AccountClaims) error
	// DeleteAccount es idempotente: borrar una cuenta inexistente no es error.
	DeleteAccount(ctx context.Context, id string) error
	// Authenticate verifica email y contraseña. Credenciales inválidas → domain.ErrUnauthorized.
	Authenticate(ctx context.Context, email, password string) (*Account, error)
}
