// Package user gestiona los usuarios de cada clínica y el administrador de sistema inicial.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/internal/domain/validation"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// Service casos de uso de usuarios.
type Service struct {
	clinics  repository.ClinicRepository
	users    repository.UserRepository
	identity ports.IdentityService
	recorder audit.Recorder
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewService construye el servicio.
func NewService(clinics repository.ClinicRepository, users repository.UserRepository, identity ports.IdentityService, recorder audit.Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		clinics:  clinics,
		users:    users,
		identity: identity,
		recorder: recorder,
		log:      log.Component("user"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateUser alta de un usuario en la clínica. Exige manage_users, la matriz de
// asignación de roles y la guarda de aislamiento antes de validar. Si la cuenta de
// acceso no se puede crear, el perfil se borra (compensación).
func (s *Service) CreateUser(ctx context.Context, actor entity.Actor, meta entity.RequestMeta, clinicID string, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := access.RequirePermission(actor, entity.PermManageUsers); err != nil {
		return nil, err
	}
	if err := access.Guard(actor, clinicID); err != nil {
		return nil, err
	}
	role, roleOK := entity.ParseRole(in.Role)
	if roleOK {
		if err := access.AuthorizeRoleAssignment(actor, role, clinicID); err != nil {
			return nil, err
		}
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	fields := validation.ActorFields{
		Name:     in.Name,
		Email:    in.Email,
		Password: &in.Password,
		Role:     in.Role,
		ClinicID: clinicID,
	}
	if !roleOK {
		fields.Permissions = in.Permissions
	}
	result := validation.ValidateActor(fields)
	var perms []entity.Permission
	if roleOK {
		// el techo del rol y el conjunto cerrado se validan juntos
		resolved, err := access.ResolvePermissions(role, in.Permissions)
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			result = result.Merge(vErr.Result)
		case err != nil:
			return nil, err
		default:
			perms = resolved
		}
	}
	if err := validation.Check(result); err != nil {
		return nil, err
	}

	clinic, err := s.clinics.GetByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, &domain.NotFoundError{Resource: "clínica", ID: clinicID}
	}
	if !clinic.IsActive() {
		return nil, &domain.ConflictError{Field: "status", Message: fmt.Sprintf("la clínica está %s y no admite nuevos usuarios", clinic.Status)}
	}
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ConflictError{Field: "email"}
	}

	now := s.now().UTC()
	u := &entity.User{
		ID:          s.newID(),
		ClinicID:    clinicID,
		Email:       in.Email,
		Name:        strings.TrimSpace(in.Name),
		Role:        role,
		Permissions: perms,
		Status:      entity.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.provision(ctx, u, in.Password); err != nil {
		s.compensate(ctx, u)
		return nil, &domain.ProvisioningError{ClinicID: clinicID, Err: err}
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:      actor.ID,
		TenantID:     clinicID,
		Action:       entity.ActionUserCreated,
		ResourceType: entity.ResourceUser,
		ResourceID:   u.ID,
		Meta:         meta,
		Details: map[string]any{
			"email":       u.Email,
			"role":        string(u.Role),
			"permissions": entity.PermissionStrings(u.Permissions),
		},
	})
	return toUserResponse(u), nil
}

func (s *Service) provision(ctx context.Context, u *entity.User, password string) error {
	if err := s.identity.CreateAccount(ctx, u.ID, u.Email, password); err != nil {
		return fmt.Errorf("crear cuenta: %w", err)
	}
	claims := ports.AccountClaims{Role: u.Role, ClinicID: u.ClinicID, Permissions: u.Permissions}
	if err := s.identity.SetClaims(ctx, u.ID, claims); err != nil {
		return fmt.Errorf("asignar claims: %w", err)
	}
	return nil
}

func (s *Service) compensate(ctx context.Context, u *entity.User) {
	if err := s.identity.DeleteAccount(ctx, u.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID).Msg("compensación: cuenta parcial sin borrar")
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("compensación: perfil sin borrar")
	}
}

// ListUsers usuarios de la clínica. system_level o tenant_admin de la propia clínica.
func (s *Service) ListUsers(ctx context.Context, actor entity.Actor, clinicID string) (*dto.UserListResponse, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel, entity.RoleTenantAdmin); err != nil {
		return nil, err
	}
	if err := access.Guard(actor, clinicID); err != nil {
		return nil, err
	}
	list, err := s.users.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *toUserResponse(u))
	}
	return &dto.UserListResponse{Items: items}, nil
}

// EnsureSystemAdmin siembra el usuario system_level inicial si el email no existe.
// Devuelve true si lo creó.
func (s *Service) EnsureSystemAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	result := validation.ValidateActor(validation.ActorFields{
		Name:     "Administrador del sistema",
		Email:    email,
		Password: &password,
		Role:     string(entity.RoleSystemLevel),
	})
	if err := validation.Check(result); err != nil {
		return false, err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	now := s.now().UTC()
	u := &entity.User{
		ID:          s.newID(),
		Email:       email,
		Name:        "Administrador del sistema",
		Role:        entity.RoleSystemLevel,
		Permissions: access.DefaultPermissions(entity.RoleSystemLevel),
		Status:      entity.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, err
	}
	if err := s.provision(ctx, u, password); err != nil {
		s.compensate(ctx, u)
		return false, err
	}
	s.log.Info().Str("user_id", u.ID).Msg("administrador de sistema creado")
	return true, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		ClinicID:    u.ClinicID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		Permissions: entity.PermissionStrings(u.Permissions),
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
