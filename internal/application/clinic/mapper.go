package clinic

import (
	"strings"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/validation"
)

func addressFromDTO(a dto.AddressDTO) entity.Address {
	return entity.Address{
		Street:       strings.TrimSpace(a.Street),
		Number:       strings.TrimSpace(a.Number),
		Complement:   strings.TrimSpace(a.Complement),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		City:         strings.TrimSpace(a.City),
		State:        strings.ToUpper(strings.TrimSpace(a.State)),
		ZipCode:      strings.TrimSpace(a.ZipCode),
	}
}

// settingsFields expone a la validación los ajustes presentes en el parche.
func settingsFields(f *validation.ClinicFields, p *dto.ClinicSettingsPatch) {
	if p == nil {
		return
	}
	f.Timezone = p.Timezone
	if p.Notifications != nil {
		f.ExpirationWarningDays = p.Notifications.ExpirationWarningDays
	}
}

// mergeSettings fusiona campo a campo: lo ausente en el parche conserva su valor.
func mergeSettings(base entity.ClinicSettings, p *dto.ClinicSettingsPatch) entity.ClinicSettings {
	if p == nil {
		return base
	}
	if p.Timezone != nil {
		base.Timezone = strings.TrimSpace(*p.Timezone)
	}
	if n := p.Notifications; n != nil {
		if n.Email != nil {
			base.Notifications.Email = *n.Email
		}
		if n.SMS != nil {
			base.Notifications.SMS = *n.SMS
		}
		if n.LowStockAlerts != nil {
			base.Notifications.LowStockAlerts = *n.LowStockAlerts
		}
		if n.ExpirationAlerts != nil {
			base.Notifications.ExpirationAlerts = *n.ExpirationAlerts
		}
		if n.ExpirationWarningDays != nil {
			base.Notifications.ExpirationWarningDays = *n.ExpirationWarningDays
		}
	}
	return base
}

func applyPatch(c *entity.Clinic, in dto.UpdateClinicRequest, address *entity.Address) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Code != nil {
		c.Code = *in.Code
	}
	if address != nil {
		c.Address = *address
	}
	c.Settings = mergeSettings(c.Settings, in.Settings)
}

// snapshot campos editables comparados por el diff de auditoría.
func snapshot(c *entity.Clinic) map[string]any {
	return map[string]any{
		"name":     c.Name,
		"email":    c.Email,
		"phone":    c.Phone,
		"code":     c.Code,
		"address":  c.Address,
		"settings": c.Settings,
	}
}

func toClinicResponse(c *entity.Clinic) *dto.ClinicResponse {
	if c == nil {
		return nil
	}
	n := c.Settings.Notifications
	return &dto.ClinicResponse{
		ID:    c.ID,
		Name:  c.Name,
		CNPJ:  c.CNPJ,
		Code:  c.Code,
		Email: c.Email,
		Phone: c.Phone,
		Address: dto.AddressDTO{
			Street:       c.Address.Street,
			Number:       c.Address.Number,
			Complement:   c.Address.Complement,
			Neighborhood: c.Address.Neighborhood,
			City:         c.Address.City,
			State:        c.Address.State,
			ZipCode:      c.Address.ZipCode,
		},
		Status: c.Status,
		Settings: dto.ClinicSettingsDTO{
			Timezone: c.Settings.Timezone,
			Notifications: dto.NotificationSettingsDTO{
				Email:                 n.Email,
				SMS:                   n.SMS,
				LowStockAlerts:        n.LowStockAlerts,
				ExpirationAlerts:      n.ExpirationAlerts,
				ExpirationWarningDays: n.ExpirationWarningDays,
			},
		},
		AdminUserID: c.AdminUserID,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
