// Package rules aplica las reglas de negocio entre campos de notas fiscales, pacientes
// y solicitudes de insumos. Cada regla agrega todas sus violaciones en un único resultado.
package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

const day = 24 * time.Hour

// Límites de las reglas.
const (
	InvoiceMaxAgeDays        = 365
	ItemMaxShelfLifeDays     = 3650
	PatientMinAge            = 18
	PatientMaxAge            = 150
	RequestMaxAgeDays        = 30
	RequestMaxItemQuantity   = 100
	InvoiceTotalToleranceStr = "0.01"
)

var invoiceTolerance = decimal.RequireFromString(InvoiceTotalToleranceStr)

// Validator evalúa las reglas contra un reloj inyectado.
type Validator struct {
	now func() time.Time
}

// NewValidator construye el validador. now nil = time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// ValidateInvoice fecha de emisión dentro del último año, ítems con vencimiento futuro
// (máx. 10 años) y total coherente con Σ(cantidad × precio) con tolerancia de 0,01.
func (v *Validator) ValidateInvoice(inv entity.Invoice) domain.ValidationResult {
	now := v.now()
	var errs []string

	if inv.EmissionDate.After(now) {
		errs = append(errs, "fecha de emisión no puede ser futura")
	}
	if inv.EmissionDate.Before(now.Add(-InvoiceMaxAgeDays * day)) {
		errs = append(errs, fmt.Sprintf("fecha de emisión no puede tener más de %d días", InvoiceMaxAgeDays))
	}
	if len(inv.Items) == 0 {
		errs = append(errs, "la nota debe tener al menos un ítem")
	}

	sum := decimal.Zero
	maxExpiration := now.Add(ItemMaxShelfLifeDays * day)
	for i, item := range inv.Items {
		n := i + 1
		if !item.Quantity.IsPositive() {
			errs = append(errs, fmt.Sprintf("ítem %d: cantidad debe ser mayor que cero", n))
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Sprintf("ítem %d: precio unitario no puede ser negativo", n))
		}
		if !item.ExpirationDate.After(now) {
			errs = append(errs, fmt.Sprintf("ítem %d: fecha de vencimiento debe ser futura", n))
		} else if item.ExpirationDate.After(maxExpiration) {
			errs = append(errs, fmt.Sprintf("ítem %d: fecha de vencimiento supera %d días", n, ItemMaxShelfLifeDays))
		}
		sum = sum.Add(item.Subtotal())
	}

	if sum.Sub(inv.TotalValue).Abs().GreaterThan(invoiceTolerance) {
		errs = append(errs, fmt.Sprintf("valor total (%s) no coincide con la suma de los ítems (%s)",
			inv.TotalValue.StringFixed(2), sum.StringFixed(2)))
	}
	return domain.NewValidationResult(errs)
}

// ValidatePatient fecha de nacimiento no futura y edad entre 18 y 150 años.
func (v *Validator) ValidatePatient(p entity.Patient) domain.ValidationResult {
	now := v.now()
	var errs []string
	if p.BirthDate.IsZero() {
		return domain.NewValidationResult([]string{"fecha de nacimiento es obligatoria"})
	}
	if p.BirthDate.After(now) {
		errs = append(errs, "fecha de nacimiento no puede ser futura")
	} else if age := AgeAt(p.BirthDate, now); age < PatientMinAge || age > PatientMaxAge {
		errs = append(errs, fmt.Sprintf("edad del paciente (%d) debe estar entre %d y %d años", age, PatientMinAge, PatientMaxAge))
	}
	return domain.NewValidationResult(errs)
}

// ValidateRequest fecha de la solicitud en los últimos 30 días y cantidades de 1 a 100.
func (v *Validator) ValidateRequest(r entity.SupplyRequest) domain.ValidationResult {
	now := v.now()
	var errs []string
	if r.RequestDate.After(now) {
		errs = append(errs, "fecha de la solicitud no puede ser futura")
	}
	if r.RequestDate.Before(now.Add(-RequestMaxAgeDays * day)) {
		errs = append(errs, fmt.Sprintf("fecha de la solicitud no puede tener más de %d días", RequestMaxAgeDays))
	}
	if len(r.Items) == 0 {
		errs = append(errs, "la solicitud debe tener al menos un ítem")
	}
	for i, item := range r.Items {
		switch {
		case item.Quantity <= 0:
			errs = append(errs, fmt.Sprintf("ítem %d: cantidad debe ser mayor que cero", i+1))
		case item.Quantity > RequestMaxItemQuantity:
			errs = append(errs, fmt.Sprintf("ítem %d: cantidad máxima por ítem es %d", i+1, RequestMaxItemQuantity))
		}
	}
	return domain.NewValidationResult(errs)
}

// Check convierte un resultado inválido en *domain.BusinessRuleError.
func Check(r domain.ValidationResult) error {
	if r.Valid {
		return nil
	}
	return &domain.BusinessRuleError{Result: r}
}

// AgeAt edad en años cumplidos a la fecha indicada.
func AgeAt(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age
}
