package entity

import "time"

// Estados de una clínica. provisioning_failed no forma parte de la máquina
// active ⇄ inactive: marca clínicas cuyo administrador no tiene credenciales.
const (
	ClinicStatusActive             = "active"
	ClinicStatusInactive           = "inactive"
	ClinicStatusProvisioningFailed = "provisioning_failed"
)

// Clinic representa un tenant del sistema (multi-tenant, enfoque Brasil).
type Clinic struct {
	ID          string
	Name        string
	CNPJ        string // 14 dígitos, sin máscara
	Code        string // código de dominio opcional (CLN-XXXXXX)
	Email       string
	Phone       string
	Address     Address
	Status      string // active, inactive, provisioning_failed
	Settings    ClinicSettings
	AdminUserID string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Address dirección postal de la clínica.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// ClinicSettings preferencias anidadas; en update se fusionan, no se reemplazan.
type ClinicSettings struct {
	Timezone      string               `json:"timezone"`
	Notifications NotificationSettings `json:"notifications"`
}

// NotificationSettings canales y alertas de notificación de la clínica.
type NotificationSettings struct {
	Email                 bool `json:"email"`
	SMS                   bool `json:"sms"`
	LowStockAlerts        bool `json:"low_stock_alerts"`
	ExpirationAlerts      bool `json:"expiration_alerts"`
	ExpirationWarningDays int  `json:"expiration_warning_days"`
}

// DefaultClinicSettings valores iniciales al crear una clínica.
func DefaultClinicSettings() ClinicSettings {
	return ClinicSettings{
		Timezone: "America/Sao_Paulo",
		Notifications: NotificationSettings{
			Email:                 true,
			SMS:                   false,
			LowStockAlerts:        true,
			ExpirationAlerts:      true,
			ExpirationWarningDays: 30,
		},
	}
}

// IsActive informa si la clínica opera normalmente.
func (c *Clinic) IsActive() bool {
	return c != nil && c.Status == ClinicStatusActive
}
