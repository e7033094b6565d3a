// Package validation contiene los validadores estructurales de campos (puros, sin I/O)
// y los validadores compuestos que agregan todas las violaciones de un registro.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/cnpj"
)

// DomainCodePrefix prefijo fijo del código de dominio de una clínica.
const DomainCodePrefix = "CLN-"

// MinPasswordLength longitud mínima de la contraseña inicial de un usuario.
const MinPasswordLength = 8

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	domainCodeRe = regexp.MustCompile(`^` + regexp.QuoteMeta(DomainCodePrefix) + `[A-Z0-9]{6,10}$`)
	stateRe      = regexp.MustCompile(`^[A-Z]{2}$`)
)

// IsValidEmail forma simple local@dominio.tld.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// IsValidPhone acepta fijo (10 dígitos) o móvil (11 dígitos con 9 en la posición 2),
// con código de área entre 11 y 99.
func IsValidPhone(s string) bool {
	d := digitsOnly(s)
	switch len(d) {
	case 10:
	case 11:
		if d[2] != '9' {
			return false
		}
	default:
		return false
	}
	area := int(d[0]-'0')*10 + int(d[1]-'0')
	return area >= 11 && area <= 99
}

// IsValidNationalID valida el CNPJ con sus dos dígitos verificadores módulo 11.
func IsValidNationalID(s string) bool {
	return cnpj.IsValid(s)
}

// IsValidCPF valida el CPF de persona física (11 dígitos, módulo 11).
func IsValidCPF(s string) bool {
	d := digitsOnly(s)
	if len(d) != 11 || strings.Count(d, d[:1]) == 11 {
		return false
	}
	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(d[i]-'0') * (pos + 1 - i)
		}
		r := sum % 11
		want := 0
		if r >= 2 {
			want = 11 - r
		}
		if int(d[pos]-'0') != want {
			return false
		}
	}
	return true
}

// IsValidDomainCode prefijo CLN- seguido de 6 a 10 alfanuméricos en mayúscula.
func IsValidDomainCode(s string) bool {
	return domainCodeRe.MatchString(s)
}

// ClinicFields campos de una clínica sujetos a validación. nil = campo ausente.
type ClinicFields struct {
	Name                  *string
	CNPJ                  *string
	Email                 *string
	Phone                 *string
	Code                  *string
	Address               *entity.Address
	Timezone              *string
	ExpirationWarningDays *int
}

// ValidateClinic valida un alta completa: los campos obligatorios ausentes también son violaciones.
func ValidateClinic(f ClinicFields) domain.ValidationResult {
	return validateClinic(f, false)
}

// ValidateClinicPatch valida solo los campos presentes en el patch.
func ValidateClinicPatch(f ClinicFields) domain.ValidationResult {
	return validateClinic(f, true)
}

func validateClinic(f ClinicFields, partial bool) domain.ValidationResult {
	var errs []string
	required := func(v *string) bool { return !partial || v != nil }

	if required(f.Name) {
		if n := strings.TrimSpace(deref(f.Name)); n == "" {
			errs = append(errs, "nombre es obligatorio")
		} else if len([]rune(n)) > 200 {
			errs = append(errs, "nombre no puede superar 200 caracteres")
		}
	}
	if required(f.CNPJ) && !IsValidNationalID(deref(f.CNPJ)) {
		errs = append(errs, "CNPJ inválido")
	}
	if required(f.Email) && !IsValidEmail(deref(f.Email)) {
		errs = append(errs, "email inválido")
	}
	if required(f.Phone) && !IsValidPhone(deref(f.Phone)) {
		errs = append(errs, "teléfono inválido: se esperan 10 u 11 dígitos con DDD entre 11 y 99")
	}
	if f.Code != nil && *f.Code != "" && !IsValidDomainCode(*f.Code) {
		errs = append(errs, fmt.Sprintf("código de dominio inválido: formato %sXXXXXX (6 a 10 caracteres A-Z/0-9)", DomainCodePrefix))
	}
	if f.Address != nil {
		errs = append(errs, validateAddress(*f.Address)...)
	}
	if f.Timezone != nil && strings.TrimSpace(*f.Timezone) == "" {
		errs = append(errs, "zona horaria no puede ser vacía")
	}
	if f.ExpirationWarningDays != nil && (*f.ExpirationWarningDays < 1 || *f.ExpirationWarningDays > 365) {
		errs = append(errs, "días de aviso de vencimiento deben estar entre 1 y 365")
	}
	return domain.NewValidationResult(errs)
}

func validateAddress(a entity.Address) []string {
	var errs []string
	if strings.TrimSpace(a.City) == "" {
		errs = append(errs, "ciudad es obligatoria")
	}
	if a.State != "" && !stateRe.MatchString(a.State) {
		errs = append(errs, "estado debe ser la sigla de 2 letras (ej. SP)")
	}
	if a.ZipCode != "" && len(digitsOnly(a.ZipCode)) != 8 {
		errs = append(errs, "CEP debe tener 8 dígitos")
	}
	return errs
}

// ActorFields campos de un usuario sujetos a validación.
type ActorFields struct {
	Name        string
	Email       string
	Password    *string // nil cuando no se está creando la credencial
	Role        string
	ClinicID    string
	Permissions []string
}

// ValidateActor valida nombre, email, contraseña, rol del conjunto cerrado,
// vínculo con clínica según el rol y que cada permiso pertenezca al conjunto cerrado.
func ValidateActor(f ActorFields) domain.ValidationResult {
	var errs []string
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, "nombre del usuario es obligatorio")
	}
	if !IsValidEmail(f.Email) {
		errs = append(errs, "email del usuario inválido")
	}
	if f.Password != nil && len(*f.Password) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("contraseña debe tener al menos %d caracteres", MinPasswordLength))
	}
	role, ok := entity.ParseRole(f.Role)
	if !ok {
		errs = append(errs, fmt.Sprintf("rol desconocido: %q", f.Role))
	}
	switch {
	case ok && role == entity.RoleSystemLevel && f.ClinicID != "":
		errs = append(errs, "un usuario system_level no puede pertenecer a una clínica")
	case ok && role != entity.RoleSystemLevel && f.ClinicID == "":
		errs = append(errs, "clínica es obligatoria para usuarios de clínica")
	}
	for _, p := range f.Permissions {
		if _, valid := entity.ParsePermission(p); !valid {
			errs = append(errs, fmt.Sprintf("permiso desconocido: %q", p))
		}
	}
	return domain.NewValidationResult(errs)
}

// Check convierte un resultado inválido en *domain.ValidationError.
func Check(r domain.ValidationResult) error {
	if r.Valid {
		return nil
	}
	return &domain.ValidationError{Result: r}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
