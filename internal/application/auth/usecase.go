package auth

import (
	"context"
	"strings"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login contra el servicio de cuentas y emisión del JWT del actor.
type AuthUseCase struct {
	identity ports.IdentityService
	users    repository.UserRepository
	clinics  repository.ClinicRepository
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(identity ports.IdentityService, users repository.UserRepository, clinics repository.ClinicRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{identity: identity, users: users, clinics: clinics, jwtCfg: jwtCfg}
}

// Login verifica email/password y genera el token. Los claims de la cuenta son el
// contexto del actor; el perfil y la clínica deben seguir activos.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, &domain.ValidationError{Result: domain.NewValidationResult([]string{"email y contraseña son obligatorios"})}
	}
	account, err := uc.identity.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	// Cuenta sin claims (SetClaims falló al aprovisionar): el token no serviría.
	if _, ok := entity.ParseRole(string(account.Claims.Role)); !ok {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.users.GetByID(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.Denied("usuario %s inactivo", user.ID)
	}
	if account.Claims.ClinicID != "" {
		clinic, err := uc.clinics.GetByID(ctx, account.Claims.ClinicID)
		if err != nil {
			return nil, err
		}
		if clinic == nil || !clinic.IsActive() {
			return nil, domain.Denied("la clínica %s no está activa", account.Claims.ClinicID)
		}
	}

	perms := entity.PermissionStrings(account.Claims.Permissions)
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Subject{
		UserID:      account.ID,
		TenantID:    account.Claims.ClinicID,
		Role:        string(account.Claims.Role),
		Permissions: perms,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:       token,
		UserID:      account.ID,
		Role:        string(account.Claims.Role),
		ClinicID:    account.Claims.ClinicID,
		Permissions: perms,
	}, nil
}
