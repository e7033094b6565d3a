package entity

import "time"

// Severidad de una entrada de auditoría.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Resultado de la operación auditada.
const (
	AuditStatusSuccess = "success"
	AuditStatusError   = "error"
)

// Acciones auditadas sobre clínicas y usuarios.
const (
	ActionClinicCreated               = "clinic_created"
	ActionClinicUpdated               = "clinic_updated"
	ActionClinicStatusChanged         = "clinic_status_changed"
	ActionClinicDeleted               = "clinic_deleted"
	ActionClinicProvisioningFailed    = "clinic_provisioning_failed"
	ActionClinicProvisioningReconcile = "clinic_provisioning_reconciled"
	ActionUserCreated                 = "user_created"
)

// Tipos de recurso.
const (
	ResourceClinic = "clinic"
	ResourceUser   = "user"
)

// DetailTenantID clave canónica del tenant dentro de Details.
const DetailTenantID = "tenant_id"

// AuditLog entrada inmutable (append-only). TenantID nil = evento de nivel sistema.
type AuditLog struct {
	ID            string
	ActorID       string
	TenantID      *string
	Action        string
	ResourceType  string
	ResourceID    string
	Timestamp     time.Time
	IPAddress     string
	UserAgent     string
	CorrelationID string
	Details       map[string]any
	Severity      string
	Status        string
}

// DetailsTenantID devuelve details.tenant_id si existe como string.
func (a *AuditLog) DetailsTenantID() string {
	if a == nil || a.Details == nil {
		return ""
	}
	s, _ := a.Details[DetailTenantID].(string)
	return s
}

// BelongsToTenant aplica la doble comprobación de lectura: resource_id o details.tenant_id,
// además del scope explícito para entradas escritas con tenant.
func (a *AuditLog) BelongsToTenant(tenantID string) bool {
	if a == nil || tenantID == "" {
		return false
	}
	if a.ResourceID == tenantID || a.DetailsTenantID() == tenantID {
		return true
	}
	return a.TenantID != nil && *a.TenantID == tenantID
}

// FieldChange par from/to de un campo modificado.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}
