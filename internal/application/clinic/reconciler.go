package clinic

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

const (
	tempPasswordLength   = 16
	tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// TemporaryPassword contraseña aleatoria para la credencial reconstruida.
func TemporaryPassword() (string, error) {
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	out := make([]byte, tempPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}

// Reconciler reintenta fuera de banda el aprovisionamiento de las clínicas en
// provisioning_failed.
type Reconciler struct {
	clinics  repository.ClinicRepository
	users    repository.UserRepository
	identity ports.IdentityService
	recorder audit.Recorder
	log      *logger.Logger
	password func() (string, error)
}

// NewReconciler construye el reconciliador.
func NewReconciler(clinics repository.ClinicRepository, users repository.UserRepository, identity ports.IdentityService, recorder audit.Recorder, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		clinics:  clinics,
		users:    users,
		identity: identity,
		recorder: recorder,
		log:      log.Component("reconciler"),
		password: TemporaryPassword,
	}
}

// Reconcile procesa cada clínica en provisioning_failed: borra la cuenta parcial, la
// recrea con contraseña temporal, asigna claims y vuelve la clínica a active.
// Un fallo en una clínica no detiene las demás; queda en su resultado.
func (r *Reconciler) Reconcile(ctx context.Context, actor entity.Actor, meta entity.RequestMeta) ([]dto.ReconcileResult, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel); err != nil {
		return nil, err
	}
	pending, err := r.clinics.List(ctx, repository.ClinicFilter{Status: entity.ClinicStatusProvisioningFailed})
	if err != nil {
		return nil, err
	}
	sortClinics(pending, repository.ClinicSortCreatedAt, false)

	results := make([]dto.ReconcileResult, 0, len(pending))
	for _, c := range pending {
		res := dto.ReconcileResult{ClinicID: c.ID, AdminUserID: c.AdminUserID}
		admin, err := r.reconcileOne(ctx, c, &res)
		if err != nil {
			res.TemporaryPassword = ""
			res.Error = err.Error()
			r.log.Error().Err(err).Str("clinic_id", c.ID).Msg("reconciliación fallida")
			results = append(results, res)
			continue
		}
		r.recorder.Record(ctx, audit.Event{
			ActorID:      actor.ID,
			Action:       entity.ActionClinicProvisioningReconcile,
			ResourceType: entity.ResourceClinic,
			ResourceID:   c.ID,
			Meta:         meta,
			Details: map[string]any{
				"admin_user_id": admin.ID,
				"admin_email":   admin.Email,
				"new_status":    entity.ClinicStatusActive,
			},
		})
		r.log.Info().Str("clinic_id", c.ID).Msg("clínica reconciliada")
		results = append(results, res)
	}
	return results, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, c *entity.Clinic, res *dto.ReconcileResult) (*entity.User, error) {
	admin, err := r.users.GetByID(ctx, c.AdminUserID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, fmt.Errorf("administrador %s no existe", c.AdminUserID)
	}
	res.AdminEmail = admin.Email

	if err := r.identity.DeleteAccount(ctx, admin.ID); err != nil {
		return nil, fmt.Errorf("borrar cuenta parcial: %w", err)
	}
	pwd, err := r.password()
	if err != nil {
		return nil, fmt.Errorf("generar contraseña temporal: %w", err)
	}
	if err := r.identity.CreateAccount(ctx, admin.ID, admin.Email, pwd); err != nil {
		return nil, fmt.Errorf("crear cuenta: %w", err)
	}
	if err := r.identity.SetClaims(ctx, admin.ID, claimsFor(admin)); err != nil {
		return nil, fmt.Errorf("asignar claims: %w", err)
	}
	if err := r.clinics.UpdateStatus(ctx, c.ID, entity.ClinicStatusActive); err != nil {
		return nil, fmt.Errorf("activar clínica: %w", err)
	}
	res.TemporaryPassword = pwd
	return admin, nil
}
