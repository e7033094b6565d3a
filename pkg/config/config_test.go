package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := fromViper(newViper(map[string]any{"JWT_SECRET": "s"}))

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 1024, cfg.Audit.QueueSize)
	assert.Equal(t, 2, cfg.Audit.Workers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Bootstrap.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestFromViper_EnvComoTexto(t *testing.T) {
	cfg := fromViper(newViper(map[string]any{
		"JWT_SECRET":       "s",
		"HTTP_PORT":        "9090",
		"AUDIT_WORKERS":    " 4 ",
		"RATE_LIMIT_RPS":   "2.5",
		"STORAGE_DRIVER":   "POSTGRES",
		"DATABASE_URL":     "postgres://u:p@db:5432/c",
		"AUDIT_QUEUE_SIZE": "no-numero",
	}))

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 4, cfg.Audit.Workers)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 1024, cfg.Audit.QueueSize, "valor inválido cae al default")
	assert.Equal(t, "postgres://u:p@db:5432/c", cfg.DB.ConnectionString())
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "h", Port: 5432, User: "u", Password: "p@ss/word", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@h:5432/d?sslmode=disable", c.ConnectionString())
}

func TestValidate_AcumulaErrores(t *testing.T) {
	cfg := fromViper(newViper(map[string]any{
		"STORAGE_DRIVER":        "mongo",
		"AUDIT_WORKERS":         0,
		"BOOTSTRAP_ADMIN_EMAIL": "root@example.com",
	}))

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "JWT_SECRET")
	assert.Contains(t, msg, "STORAGE_DRIVER desconocido")
	assert.Contains(t, msg, "AUDIT_WORKERS")
	assert.Contains(t, msg, "BOOTSTRAP_ADMIN_EMAIL")
}
