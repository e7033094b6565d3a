package entity

// Permission unidad del conjunto cerrado de operaciones permitidas.
type Permission string

// Permisos válidos. Ningún string fuera de esta lista es un permiso.
const (
	PermCreatePatient Permission = "create_patient"
	PermReadPatient   Permission = "read_patient"
	PermUpdatePatient Permission = "update_patient"
	PermDeletePatient Permission = "delete_patient"

	PermCreateInvoice Permission = "create_invoice"
	PermReadInvoice   Permission = "read_invoice"
	PermUpdateInvoice Permission = "update_invoice"
	PermDeleteInvoice Permission = "delete_invoice"

	PermCreateRequest Permission = "create_request"
	PermReadRequest   Permission = "read_request"
	PermUpdateRequest Permission = "update_request"
	PermDeleteRequest Permission = "delete_request"

	PermReadInventory Permission = "read_inventory"
	PermReadDashboard Permission = "read_dashboard"
	PermManageUsers   Permission = "manage_users"
)

var allPermissions = []Permission{
	PermCreatePatient, PermReadPatient, PermUpdatePatient, PermDeletePatient,
	PermCreateInvoice, PermReadInvoice, PermUpdateInvoice, PermDeleteInvoice,
	PermCreateRequest, PermReadRequest, PermUpdateRequest, PermDeleteRequest,
	PermReadInventory, PermReadDashboard, PermManageUsers,
}

// AllPermissions devuelve una copia del conjunto cerrado.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// ParsePermission convierte un string externo al enum cerrado.
func ParsePermission(s string) (Permission, bool) {
	for _, p := range allPermissions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// PermissionStrings serializa permisos para JWT o JSON.
func PermissionStrings(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
