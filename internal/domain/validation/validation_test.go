package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/validation"
)

func strPtr(s string) *string { return &s }

// ──────────────────────────────────────────────────────────────────────────────
// Validadores de campo
// ──────────────────────────────────────────────────────────────────────────────

func TestIsValidEmail(t *testing.T) {
	assert.True(t, validation.IsValidEmail("contato@clinica.com.br"))
	assert.False(t, validation.IsValidEmail("contato@clinica"))
	assert.False(t, validation.IsValidEmail("contato clinica@x.com"))
	assert.False(t, validation.IsValidEmail(""))
}

func TestIsValidPhone(t *testing.T) {
	cases := map[string]bool{
		"(11) 3456-7890":   true,  // fijo, 10 dígitos
		"(11) 98765-4321":  true,  // móvil con 9
		"(11) 88765-4321":  false, // móvil sin 9 en la posición 2
		"(10) 3456-7890":   false, // DDD fuera de rango
		"(01) 98765-4321":  false,
		"3456-7890":        false,
		"+55 11 98765-432": false, // 12 dígitos con el código de país
	}
	for in, want := range cases {
		assert.Equal(t, want, validation.IsValidPhone(in), "teléfono %q", in)
	}
}

func TestIsValidNationalID(t *testing.T) {
	assert.True(t, validation.IsValidNationalID("11.444.777/0001-61"))
	assert.False(t, validation.IsValidNationalID("11.444.777/0001-60"))
	assert.False(t, validation.IsValidNationalID("11111111111111"))
}

func TestIsValidCPF(t *testing.T) {
	assert.True(t, validation.IsValidCPF("529.982.247-25"))
	assert.False(t, validation.IsValidCPF("529.982.247-24"))
	assert.False(t, validation.IsValidCPF("111.111.111-11"))
}

func TestIsValidDomainCode(t *testing.T) {
	assert.True(t, validation.IsValidDomainCode("CLN-ABC123"))
	assert.True(t, validation.IsValidDomainCode("CLN-ABCDEF1234"))
	assert.False(t, validation.IsValidDomainCode("CLN-ABC12"), "menos de 6 caracteres")
	assert.False(t, validation.IsValidDomainCode("CLN-ABCDEF12345"), "más de 10 caracteres")
	assert.False(t, validation.IsValidDomainCode("CLN-abc123"), "minúsculas")
	assert.False(t, validation.IsValidDomainCode("XYZ-ABC123"), "prefijo distinto")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validadores compuestos
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateClinic_AcumulaTodasLasViolaciones(t *testing.T) {
	res := validation.ValidateClinic(validation.ClinicFields{
		Name:  strPtr(""),
		CNPJ:  strPtr("11.444.777/0001-60"),
		Email: strPtr("no-es-email"),
		Phone: strPtr("123"),
	})
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 4, "debe reportar cada campo inválido, sin cortar en el primero")
	assert.Equal(t, "nombre es obligatorio", res.Errors[0])
	assert.Equal(t, "CNPJ inválido", res.Errors[1])
}

func TestValidateClinic_Valida(t *testing.T) {
	res := validation.ValidateClinic(validation.ClinicFields{
		Name:    strPtr("Clínica Vida"),
		CNPJ:    strPtr("11.444.777/0001-61"),
		Email:   strPtr("contato@vida.com.br"),
		Phone:   strPtr("(11) 98765-4321"),
		Address: &entity.Address{City: "São Paulo", State: "SP", ZipCode: "01310-100"},
	})
	assert.True(t, res.Valid, "errores: %v", res.Errors)
	assert.Empty(t, res.Errors)
}

func TestValidateClinicPatch_SoloCamposPresentes(t *testing.T) {
	res := validation.ValidateClinicPatch(validation.ClinicFields{Phone: strPtr("(11) 3456-7890")})
	assert.True(t, res.Valid)

	res = validation.ValidateClinicPatch(validation.ClinicFields{Email: strPtr("x")})
	assert.Equal(t, []string{"email inválido"}, res.Errors)
}

func TestValidateActor(t *testing.T) {
	res := validation.ValidateActor(validation.ActorFields{
		Name:        "Ana",
		Email:       "ana@vida.com.br",
		Password:    strPtr("corta"),
		Role:        "superuser",
		ClinicID:    "c1",
		Permissions: []string{"read_patient", "launch_missiles"},
	})
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[2], "launch_missiles")

	res = validation.ValidateActor(validation.ActorFields{
		Name: "Root", Email: "root@sistema.com", Role: string(entity.RoleSystemLevel), ClinicID: "c1",
	})
	assert.Equal(t, []string{"un usuario system_level no puede pertenecer a una clínica"}, res.Errors)

	res = validation.ValidateActor(validation.ActorFields{
		Name: "Bia", Email: "bia@vida.com.br", Role: string(entity.RoleTenantUser),
	})
	assert.Equal(t, []string{"clínica es obligatoria para usuarios de clínica"}, res.Errors)
}

func TestCheck_EnvuelveValidationError(t *testing.T) {
	assert.NoError(t, validation.Check(domain.NewValidationResult(nil)))

	err := validation.Check(domain.NewValidationResult([]string{"a", "b"}))
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"a", "b"}, vErr.Result.Errors)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
