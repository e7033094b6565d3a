package entity

import "time"

// Role rol cerrado de un usuario. Solo los valores declarados aquí son válidos.
type Role string

// Roles válidos para User.
const (
	RoleSystemLevel Role = "system_level"
	RoleTenantAdmin Role = "tenant_admin"
	RoleTenantUser  Role = "tenant_user"
)

// Roles devuelve todos los roles en orden de privilegio descendente.
func Roles() []Role {
	return []Role{RoleSystemLevel, RoleTenantAdmin, RoleTenantUser}
}

// ParseRole convierte un string externo (JWT, JSON) al enum cerrado.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSystemLevel, RoleTenantAdmin, RoleTenantUser:
		return Role(s), true
	default:
		return "", false
	}
}

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un actor autenticable. ClinicID es vacío solo para system_level.
type User struct {
	ID          string
	ClinicID    string
	Email       string
	Name        string
	Role        Role
	Permissions []Permission
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Actor contexto ya autenticado que el transporte entrega al núcleo.
type Actor struct {
	ID          string
	Role        Role
	ClinicID    string // vacío = system_level
	Permissions []Permission
}

// IsSystemLevel informa si el actor no está atado a ninguna clínica.
func (a Actor) IsSystemLevel() bool {
	return a.Role == RoleSystemLevel
}

// RequestMeta metadatos de origen que viajan sin cambios hasta la auditoría.
type RequestMeta struct {
	IPAddress     string
	UserAgent     string
	CorrelationID string
}
