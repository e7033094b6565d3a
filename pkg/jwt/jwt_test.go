package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "secreto-de-pruebas"

func TestGenerateParse_RoundTrip(t *testing.T) {
	sub := Subject{UserID: "u-1", TenantID: "c-1", Role: "tenant_user", Permissions: []string{"read_patient"}}

	tok, err := Generate(testSecret, "clinica-api", 5, sub)
	require.NoError(t, err)

	got, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, sub, got)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := Generate(testSecret, "clinica-api", 5, Subject{UserID: "u-1", Role: "system_level"})
	require.NoError(t, err)

	_, err = Parse("otro-secreto", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := generateAt(testSecret, "clinica-api", 1, Subject{UserID: "u-1"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = Parse(testSecret, tok)
	assert.Error(t, err)
}

func TestGenerate_SinSecret(t *testing.T) {
	_, err := Generate("", "x", 5, Subject{UserID: "u"})
	assert.Error(t, err)
	_, err = Generate(testSecret, "x", 5, Subject{})
	assert.Error(t, err)
}
