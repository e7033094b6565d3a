package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrBusinessRule       = errors.New("regla de negocio violada")
	ErrUnauthorized       = errors.New("no autenticado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrProvisioningFailed = errors.New("aprovisionamiento de credenciales fallido")
)

// ValidationResult agrega todas las violaciones encontradas en un registro.
// Nunca se corta en la primera: Errors conserva el orden en que se detectaron.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// NewValidationResult construye un resultado a partir de la lista de violaciones.
func NewValidationResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Merge concatena las violaciones de otro resultado.
func (r ValidationResult) Merge(other ValidationResult) ValidationResult {
	all := make([]string, 0, len(r.Errors)+len(other.Errors))
	all = append(all, r.Errors...)
	all = append(all, other.Errors...)
	return NewValidationResult(all)
}

// ValidationError error estructural con todas las violaciones del registro.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return "validación: " + strings.Join(e.Result.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// BusinessRuleError violación de reglas de dominio entre campos (también agregada).
type BusinessRuleError struct {
	Result ValidationResult
}

func (e *BusinessRuleError) Error() string {
	return "regla de negocio: " + strings.Join(e.Result.Errors, "; ")
}

func (e *BusinessRuleError) Unwrap() error { return ErrBusinessRule }

// AuthorizationError denegación por rol, permiso o aislamiento de clínica.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "autorización: " + e.Reason
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// ConflictError violación de unicidad o transición de estado inválida.
// Field nombra el campo que colisionó (cnpj, email, admin_email, status).
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s ya está registrado", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError recurso inexistente.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ProvisioningError la clínica y su administrador quedaron persistidos pero la cuenta
// de acceso no pudo crearse. La clínica queda en provisioning_failed.
type ProvisioningError struct {
	ClinicID string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("clínica %s creada sin credenciales de acceso: %v", e.ClinicID, e.Err)
}

func (e *ProvisioningError) Unwrap() []error { return []error{ErrProvisioningFailed, e.Err} }

// Denied atajo para construir un AuthorizationError.
func Denied(format string, args ...any) error {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}
