// Package access concentra el modelo de permisos por rol y la guarda de aislamiento
// entre clínicas. Es el único punto que decide quién puede hacer qué y dónde.
package access

import (
	"fmt"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

var crudPermissions = []entity.Permission{
	entity.PermCreatePatient, entity.PermReadPatient, entity.PermUpdatePatient, entity.PermDeletePatient,
	entity.PermCreateInvoice, entity.PermReadInvoice, entity.PermUpdateInvoice, entity.PermDeleteInvoice,
	entity.PermCreateRequest, entity.PermReadRequest, entity.PermUpdateRequest, entity.PermDeleteRequest,
}

// DefaultPermissions tabla fija de permisos por rol.
func DefaultPermissions(role entity.Role) []entity.Permission {
	switch role {
	case entity.RoleSystemLevel, entity.RoleTenantAdmin:
		return entity.AllPermissions()
	case entity.RoleTenantUser:
		out := make([]entity.Permission, 0, len(crudPermissions)+2)
		out = append(out, crudPermissions...)
		return append(out, entity.PermReadInventory, entity.PermReadDashboard)
	default:
		return nil
	}
}

// AllowedPermissions techo de permisos que un rol puede recibir. Hoy coincide con
// la tabla por defecto: un tenant_user nunca recibe manage_users.
func AllowedPermissions(role entity.Role) []entity.Permission {
	return DefaultPermissions(role)
}

// HasPermission pertenencia exacta al conjunto del actor.
func HasPermission(actorPermissions []entity.Permission, required entity.Permission) bool {
	for _, p := range actorPermissions {
		if p == required {
			return true
		}
	}
	return false
}

// CanAssignRole matriz de asignación: system_level asigna cualquier rol, tenant_admin
// asigna tenant_admin o tenant_user (solo en su clínica, ver AuthorizeRoleAssignment)
// y tenant_user no asigna nada.
func CanAssignRole(creator, target entity.Role) bool {
	switch creator {
	case entity.RoleSystemLevel:
		_, ok := entity.ParseRole(string(target))
		return ok
	case entity.RoleTenantAdmin:
		return target == entity.RoleTenantAdmin || target == entity.RoleTenantUser
	case entity.RoleTenantUser:
		return false
	default:
		return false
	}
}

// AuthorizeRoleAssignment combina la matriz de roles con la guarda de aislamiento.
// Devuelve *domain.AuthorizationError antes de cualquier mutación.
func AuthorizeRoleAssignment(creator entity.Actor, target entity.Role, targetClinicID string) error {
	if !CanAssignRole(creator.Role, target) {
		return domain.Denied("el rol %s no puede asignar el rol %s", creator.Role, target)
	}
	if !creator.IsSystemLevel() && !CanAccess(creator.ClinicID, targetClinicID) {
		return domain.Denied("no puede asignar roles fuera de su clínica")
	}
	return nil
}

// ResolvePermissions devuelve los permisos efectivos para un usuario nuevo: los
// explícitos si se enviaron, si no los del rol. Cualquier permiso fuera del conjunto
// cerrado o por encima del techo del rol es un error de validación agregado.
func ResolvePermissions(role entity.Role, explicit []string) ([]entity.Permission, error) {
	if len(explicit) == 0 {
		return DefaultPermissions(role), nil
	}
	allowed := AllowedPermissions(role)
	var errs []string
	out := make([]entity.Permission, 0, len(explicit))
	seen := make(map[entity.Permission]bool, len(explicit))
	for _, raw := range explicit {
		p, ok := entity.ParsePermission(raw)
		if !ok {
			errs = append(errs, fmt.Sprintf("permiso desconocido: %q", raw))
			continue
		}
		if !HasPermission(allowed, p) {
			errs = append(errs, fmt.Sprintf("el rol %s no admite el permiso %s", role, p))
			continue
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if len(errs) > 0 {
		return nil, &domain.ValidationError{Result: domain.NewValidationResult(errs)}
	}
	return out, nil
}

// ParsePermissions convierte strings externos descartando los que no pertenecen al conjunto.
func ParsePermissions(raw []string) []entity.Permission {
	out := make([]entity.Permission, 0, len(raw))
	for _, s := range raw {
		if p, ok := entity.ParsePermission(s); ok {
			out = append(out, p)
		}
	}
	return out
}
