package access

import (
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// CanAccess única guarda de aislamiento: true si el actor es de nivel sistema
// (sin clínica) o si su clínica coincide con la del recurso.
func CanAccess(actorClinicID, resourceClinicID string) bool {
	if actorClinicID == "" {
		return true
	}
	return actorClinicID == resourceClinicID
}

// Guard valida acceso de un actor a recursos de una clínica. Se invoca antes de
// cualquier lectura o escritura con scope de clínica, incluida la creación.
func Guard(actor entity.Actor, resourceClinicID string) error {
	clinicID := actor.ClinicID
	if !actor.IsSystemLevel() && clinicID == "" {
		// Un actor de clínica sin clínica no puede pasar por system_level.
		return domain.Denied("actor %s sin clínica asociada", actor.ID)
	}
	if actor.IsSystemLevel() {
		clinicID = ""
	}
	if !CanAccess(clinicID, resourceClinicID) {
		return domain.Denied("acceso a la clínica %s fuera del alcance del actor", resourceClinicID)
	}
	return nil
}

// RequireRole exige que el actor tenga uno de los roles indicados.
func RequireRole(actor entity.Actor, roles ...entity.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return domain.Denied("rol %s no autorizado para esta operación", actor.Role)
}

// RequirePermission exige el permiso exacto en el conjunto del actor.
func RequirePermission(actor entity.Actor, perm entity.Permission) error {
	if HasPermission(actor.Permissions, perm) {
		return nil
	}
	return domain.Denied("falta el permiso %s", perm)
}
