// Package clinic orquesta el ciclo de vida de las clínicas (tenants): alta con su
// administrador, edición parcial, cambio de estado, búsqueda, baja y reconciliación
// de credenciales.
package clinic

import (
	"context"
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
	"github.com/jhoicas/clinica-api/pkg/cnpj"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// Service TenantLifecycleManager: autoriza, valida, muta el almacén y audita.
type Service struct {
	tx       repository.TxRunner
	clinics  repository.ClinicRepository
	users    repository.UserRepository
	identity ports.IdentityService
	recorder audit.Recorder
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option ajustes opcionales (tests).
type Option func(*Service)

// WithClock reloj inyectado.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator generador de ids de clínica y usuario.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService construye el servicio con sus puertos.
func NewService(
	tx repository.TxRunner,
	clinics repository.ClinicRepository,
	users repository.UserRepository,
	identity ports.IdentityService,
	recorder audit.Recorder,
	log *logger.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		tx:       tx,
		clinics:  clinics,
		users:    users,
		identity: identity,
		recorder: recorder,
		log:      log.Component("clinic"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create da de alta la clínica y su tenant_admin en una transacción y luego
// aprovisiona la credencial. Si el aprovisionamiento falla la clínica queda en
// provisioning_failed y se devuelve *domain.ProvisioningError.
func (s *Service) Create(ctx context.Context, actor entity.Actor, meta entity.RequestMeta, in dto.CreateClinicRequest) (*dto.ClinicResponse, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel); err != nil {
		return nil, err
	}
	clinicID, adminID := s.newID(), s.newID()
	if err := access.Guard(actor, clinicID); err != nil {
		return nil, err
	}

	in.CNPJ = cnpj.Normalize(in.CNPJ)
	in.Email = normalizeEmail(in.Email)
	in.AdminEmail = normalizeEmail(in.AdminEmail)
	in.Code = strings.TrimSpace(in.Code)
	address := addressFromDTO(in.Address)
	settings := mergeSettings(entity.DefaultClinicSettings(), in.Settings)

	fields := validation.ClinicFields{
		Name:    &in.Name,
		CNPJ:    &in.CNPJ,
		Email:   &in.Email,
		Phone:   &in.Phone,
		Code:    &in.Code,
		Address: &address,
	}
	settingsFields(&fields, in.Settings)
	result := validation.ValidateClinic(fields).Merge(validation.ValidateActor(validation.ActorFields{
		Name:     in.AdminName,
		Email:    in.AdminEmail,
		Password: &in.AdminPassword,
		Role:     string(entity.RoleTenantAdmin),
		ClinicID: clinicID,
	}))
	if err := validation.Check(result); err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, in.CNPJ, in.Email, in.AdminEmail); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	clinic := &entity.Clinic{
		ID:          clinicID,
		Name:        strings.TrimSpace(in.Name),
		CNPJ:        in.CNPJ,
		Code:        in.Code,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     address,
		Status:      entity.ClinicStatusActive,
		Settings:    settings,
		AdminUserID: adminID,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	admin := &entity.User{
		ID:          adminID,
		ClinicID:    clinicID,
		Email:       in.AdminEmail,
		Name:        strings.TrimSpace(in.AdminName),
		Role:        entity.RoleTenantAdmin,
		Permissions: access.DefaultPermissions(entity.RoleTenantAdmin),
		Status:      entity.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.Run(ctx, func(clinics repository.ClinicRepository, users repository.UserRepository) error {
		if err := clinics.Create(ctx, clinic); err != nil {
			return fmt.Errorf("crear clínica: %w", err)
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("crear administrador: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.provision(ctx, admin, in.AdminPassword); err != nil {
		return nil, s.markProvisioningFailed(ctx, actor, meta, clinic, admin, err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:      actor.ID,
		Action:       entity.ActionClinicCreated,
		ResourceType: entity.ResourceClinic,
		ResourceID:   clinic.ID,
		Meta:         meta,
		Details: map[string]any{
			"name":          clinic.Name,
			"cnpj":          clinic.CNPJ,
			"email":         clinic.Email,
			"admin_user_id": admin.ID,
			"admin_email":   admin.Email,
		},
	})
	s.log.Info().Str("clinic_id", clinic.ID).Str("actor_id", actor.ID).Msg("clínica creada")
	return toClinicResponse(clinic), nil
}

// checkUnique las tres sondas de unicidad; el error nombra el campo que colisionó.
func (s *Service) checkUnique(ctx context.Context, cnpjDigits, email, adminEmail string) error {
	existing, err := s.clinics.GetByCNPJ(ctx, cnpjDigits)
	if err != nil {
		return err
	}
	if existing != nil {
		return &domain.ConflictError{Field: "cnpj"}
	}
	existing, err = s.clinics.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return &domain.ConflictError{Field: "email"}
	}
	user, err := s.users.GetByEmail(ctx, adminEmail)
	if err != nil {
		return err
	}
	if user != nil {
		return &domain.ConflictError{Field: "admin_email"}
	}
	return nil
}

func (s *Service) provision(ctx context.Context, u *entity.User, password string) error {
	if err := s.identity.CreateAccount(ctx, u.ID, u.Email, password); err != nil {
		return fmt.Errorf("crear cuenta: %w", err)
	}
	if err := s.identity.SetClaims(ctx, u.ID, claimsFor(u)); err != nil {
		return fmt.Errorf("asignar claims: %w", err)
	}
	return nil
}

func (s *Service) markProvisioningFailed(ctx context.Context, actor entity.Actor, meta entity.RequestMeta, c *entity.Clinic, admin *entity.User, cause error) error {
	s.log.Error().Err(cause).Str("clinic_id", c.ID).Str("admin_user_id", admin.ID).
		Msg("aprovisionamiento de credenciales fallido")
	if err := s.clinics.UpdateStatus(ctx, c.ID, entity.ClinicStatusProvisioningFailed); err != nil {
		s.log.Error().Err(err).Str("clinic_id", c.ID).Msg("no se pudo marcar provisioning_failed")
	}
	s.recorder.Record(ctx, audit.Event{
		ActorID:      actor.ID,
		Action:       entity.ActionClinicProvisioningFailed,
		ResourceType: entity.ResourceClinic,
		ResourceID:   c.ID,
		Meta:         meta,
		Severity:     entity.SeverityError,
		Status:       entity.AuditStatusError,
		Details: map[string]any{
			"name":          c.Name,
			"cnpj":          c.CNPJ,
			"admin_user_id": admin.ID,
			"admin_email":   admin.Email,
			"error":         cause.Error(),
		},
	})
	return &domain.ProvisioningError{ClinicID: c.ID, Err: cause}
}

// Get lectura con guarda de aislamiento.
func (s *Service) Get(ctx context.Context, actor entity.Actor, id string) (*dto.ClinicResponse, error) {
	if err := access.Guard(actor, id); err != nil {
		return nil, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClinicResponse(c), nil
}

// Update aplica un parche parcial. Solo system_level o el tenant_admin de la clínica.
// Los ajustes anidados se fusionan y la auditoría lleva el diff campo a campo.
func (s *Service) Update(ctx context.Context, actor entity.Actor, meta entity.RequestMeta, id string, in dto.UpdateClinicRequest) (*dto.ClinicResponse, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel, entity.RoleTenantAdmin); err != nil {
		return nil, err
	}
	if err := access.Guard(actor, id); err != nil {
		return nil, err
	}

	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.Code != nil {
		c := strings.TrimSpace(*in.Code)
		in.Code = &c
	}
	fields := validation.ClinicFields{Name: in.Name, Email: in.Email, Phone: in.Phone, Code: in.Code}
	if in.Address != nil {
		a := addressFromDTO(*in.Address)
		fields.Address = &a
	}
	settingsFields(&fields, in.Settings)
	result := validation.ValidateClinicPatch(fields)
	if in.CNPJ != nil {
		result = domain.NewValidationResult([]string{"CNPJ no se puede modificar"}).Merge(result)
	}
	if err := validation.Check(result); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && !strings.EqualFold(*in.Email, current.Email) {
		other, err := s.clinics.GetByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != current.ID {
			return nil, &domain.ConflictError{Field: "email"}
		}
	}

	before := snapshot(current)
	updated := *current
	applyPatch(&updated, in, fields.Address)
	changes := audit.Changes(before, snapshot(&updated))
	if len(changes) == 0 {
		return toClinicResponse(current), nil
	}
	updated.UpdatedAt = s.now().UTC()
	if err := s.clinics.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:      actor.ID,
		Action:       entity.ActionClinicUpdated,
		ResourceType: entity.ResourceClinic,
		ResourceID:   id,
		Meta:         meta,
		Details: map[string]any{
			"changes": changes,
			"fields":  audit.ChangedFields(changes),
		},
	})
	if stored, err := s.clinics.GetByID(ctx, id); err == nil && stored != nil {
		return toClinicResponse(stored), nil
	}
	return toClinicResponse(&updated), nil
}

// ToggleStatus transición explícita active ⇄ inactive, solo system_level.
// Pedir el estado actual es un error, no un no-op.
func (s *Service) ToggleStatus(ctx context.Context, actor entity.Actor, meta entity.RequestMeta, id, newStatus string) (*dto.ClinicResponse, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel); err != nil {
		return nil, err
	}
	if newStatus != entity.ClinicStatusActive && newStatus != entity.ClinicStatusInactive {
		return nil, &domain.ValidationError{Result: domain.NewValidationResult([]string{
			fmt.Sprintf("estado inválido %q: se espera active o inactive", newStatus),
		})}
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := c.Status
	switch oldStatus {
	case entity.ClinicStatusProvisioningFailed:
		return nil, &domain.ConflictError{Field: "status", Message: "la clínica está en provisioning_failed: requiere reconciliación"}
	case newStatus:
		return nil, &domain.ConflictError{Field: "status", Message: fmt.Sprintf("la clínica ya está %s", newStatus)}
	}
	if err := s.clinics.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	c.Status = newStatus

	s.recorder.Record(ctx, audit.Event{
		ActorID:      actor.ID,
		Action:       entity.ActionClinicStatusChanged,
		ResourceType: entity.ResourceClinic,
		ResourceID:   id,
		Meta:         meta,
		Details: map[string]any{
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})
	return toClinicResponse(c), nil
}

// Delete baja definitiva, solo system_level. Usuarios y clínica se borran en una
// transacción; las cuentas de acceso después y a mejor esfuerzo.
func (s *Service) Delete(ctx context.Context, actor entity.Actor, meta entity.RequestMeta, id string) error {
	if err := access.RequireRole(actor, entity.RoleSystemLevel); err != nil {
		return err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	members, err := s.users.ListByClinic(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.Run(ctx, func(clinics repository.ClinicRepository, users repository.UserRepository) error {
		if err := users.DeleteByClinic(ctx, id); err != nil {
			return fmt.Errorf("borrar usuarios: %w", err)
		}
		if err := clinics.Delete(ctx, id); err != nil {
			return fmt.Errorf("borrar clínica: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	orphaned := 0
	for _, u := range members {
		if err := s.identity.DeleteAccount(ctx, u.ID); err != nil {
			orphaned++
			s.log.Warn().Err(err).Str("clinic_id", id).Str("user_id", u.ID).Msg("cuenta de acceso sin borrar")
		}
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:      actor.ID,
		Action:       entity.ActionClinicDeleted,
		ResourceType: entity.ResourceClinic,
		ResourceID:   id,
		Meta:         meta,
		Details: map[string]any{
			"name":              c.Name,
			"cnpj":              c.CNPJ,
			"deleted_users":     len(members),
			"orphaned_accounts": orphaned,
		},
	})
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*entity.Clinic, error) {
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &domain.NotFoundError{Resource: "clínica", ID: id}
	}
	return c, nil
}

func claimsFor(u *entity.User) ports.AccountClaims {
	return ports.AccountClaims{Role: u.Role, ClinicID: u.ClinicID, Permissions: u.Permissions}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
