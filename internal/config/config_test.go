package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.LoadFrom(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Empty(t, cfg.RabbitMQ.URL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
}

func TestLoadFrom_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "JWT_SECRET=fromfile\nDB_DRIVER=sqlite\nDATABASE_DSN=file::memory:\nJWT_EXPIRY=1h\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := config.LoadFrom(viper.New(), envFile)
	require.NoError(t, err)

	assert.Equal(t, "fromfile", cfg.JWT.Secret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
}

func TestLoadFrom_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := config.LoadFrom(viper.New(), filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadFrom_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := config.LoadFrom(viper.New(), "")
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "mongo")
	_, err = config.LoadFrom(viper.New(), "")
	assert.ErrorContains(t, err, "DB_DRIVER")
}
