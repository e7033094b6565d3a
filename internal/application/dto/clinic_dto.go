package dto

import "time"

// AddressDTO dirección postal de la clínica.
type AddressDTO struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// NotificationSettingsPatch campos opcionales; nil = sin cambio.
type NotificationSettingsPatch struct {
	Email                 *bool `json:"email,omitempty"`
	SMS                   *bool `json:"sms,omitempty"`
	LowStockAlerts        *bool `json:"low_stock_alerts,omitempty"`
	ExpirationAlerts      *bool `json:"expiration_alerts,omitempty"`
	ExpirationWarningDays *int  `json:"expiration_warning_days,omitempty"`
}

// ClinicSettingsPatch ajustes anidados; se fusionan con los existentes.
type ClinicSettingsPatch struct {
	Timezone      *string                    `json:"timezone,omitempty"`
	Notifications *NotificationSettingsPatch `json:"notifications,omitempty"`
}

// CreateClinicRequest entrada para crear una clínica junto con su administrador.
type CreateClinicRequest struct {
	Name          string               `json:"name"`
	CNPJ          string               `json:"cnpj"`
	Code          string               `json:"code,omitempty"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	Address       AddressDTO           `json:"address"`
	Settings      *ClinicSettingsPatch `json:"settings,omitempty"`
	AdminName     string               `json:"admin_name"`
	AdminEmail    string               `json:"admin_email"`
	AdminPassword string               `json:"admin_password"`
}

// UpdateClinicRequest parche parcial; solo se validan y aplican los campos presentes.
// CNPJ es inmutable: enviarlo es un error de validación.
type UpdateClinicRequest struct {
	Name     *string              `json:"name,omitempty"`
	CNPJ     *string              `json:"cnpj,omitempty"`
	Code     *string              `json:"code,omitempty"`
	Email    *string              `json:"email,omitempty"`
	Phone    *string              `json:"phone,omitempty"`
	Address  *AddressDTO          `json:"address,omitempty"`
	Settings *ClinicSettingsPatch `json:"settings,omitempty"`
}

// ToggleStatusRequest nuevo estado (active | inactive).
type ToggleStatusRequest struct {
	Status string `json:"status"`
}

// SearchClinicsRequest búsqueda por texto sobre nombre, CNPJ y email.
type SearchClinicsRequest struct {
	Query     string `query:"q"`
	Status    string `query:"status"`
	SortBy    string `query:"sort_by"`    // name | city | created_at
	SortOrder string `query:"sort_order"` // asc | desc
	PageRequest
}

// NotificationSettingsDTO salida de notificaciones.
type NotificationSettingsDTO struct {
	Email                 bool `json:"email"`
	SMS                   bool `json:"sms"`
	LowStockAlerts        bool `json:"low_stock_alerts"`
	ExpirationAlerts      bool `json:"expiration_alerts"`
	ExpirationWarningDays int  `json:"expiration_warning_days"`
}

// ClinicSettingsDTO salida de ajustes.
type ClinicSettingsDTO struct {
	Timezone      string                  `json:"timezone"`
	Notifications NotificationSettingsDTO `json:"notifications"`
}

// ClinicResponse salida de una clínica.
type ClinicResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	CNPJ        string            `json:"cnpj"`
	Code        string            `json:"code,omitempty"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Address     AddressDTO        `json:"address"`
	Status      string            `json:"status"`
	Settings    ClinicSettingsDTO `json:"settings"`
	AdminUserID string            `json:"admin_user_id"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ClinicListResponse lista paginada de clínicas.
type ClinicListResponse struct {
	Items []ClinicResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// ReconcileResult resultado de reconciliar una clínica en provisioning_failed.
// TemporaryPassword solo se devuelve al operador; nunca se registra en logs.
type ReconcileResult struct {
	ClinicID          string `json:"clinic_id"`
	AdminUserID       string `json:"admin_user_id"`
	AdminEmail        string `json:"admin_email"`
	TemporaryPassword string `json:"temporary_password,omitempty"`
	Error             string `json:"error,omitempty"`
}
