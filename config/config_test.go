package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	utils "github.com/minaorangina/kingdoms/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("KINGDOMS_TOKEN_SECRET", "shh")

		cfg, err := Load(noEnvFile(t))
		require.NoError(t, err)

		assert.Equal(t, ":8000", cfg.Addr)
		assert.Equal(t, "memory", cfg.DBDialect)
		assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	})

	t.Run("environment values", func(t *testing.T) {
		t.Setenv("KINGDOMS_TOKEN_SECRET", "shh")
		t.Setenv("KINGDOMS_ADDR", ":9999")
		t.Setenv("KINGDOMS_DB_DIALECT", "sqlite")
		t.Setenv("KINGDOMS_DB_DSN", "/tmp/k.sqlite")
		t.Setenv("KINGDOMS_TOKEN_TTL", "90m")
		t.Setenv("KINGDOMS_ALLOWED_ORIGINS", "http://a.test;http://b.test")

		cfg, err := Load(noEnvFile(t))
		require.NoError(t, err)

		assert.Equal(t, ":9999", cfg.Addr)
		assert.Equal(t, "sqlite", cfg.DBDialect)
		assert.Equal(t, "/tmp/k.sqlite", cfg.DBDSN)
		assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	})

	t.Run("reads a .env file without overriding the environment", func(t *testing.T) {
		t.Setenv("KINGDOMS_ADDR", ":7000")
		// registered so the variable is restored after the test
		t.Setenv("KINGDOMS_TOKEN_SECRET", "")
		require.NoError(t, os.Unsetenv("KINGDOMS_TOKEN_SECRET"))

		path := filepath.Join(t.TempDir(), ".env")
		contents := "KINGDOMS_TOKEN_SECRET=from-file\nKINGDOMS_ADDR=:6000\n"
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "from-file", cfg.TokenSecret)
		assert.Equal(t, ":7000", cfg.Addr)
	})

	t.Run("secret is required", func(t *testing.T) {
		t.Setenv("KINGDOMS_TOKEN_SECRET", "")
		require.NoError(t, os.Unsetenv("KINGDOMS_TOKEN_SECRET"))

		_, err := Load(noEnvFile(t))
		utils.AssertErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		DBDialect:   "memory",
		TokenSecret: "shh",
		TokenTTL:    time.Hour,
		LogLevel:    "debug",
	}
	utils.AssertNoError(t, valid.Validate())

	tt := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown dialect", func(c *Config) { c.DBDialect = "oracle" }},
		{"postgres without dsn", func(c *Config) { c.DBDialect = "postgres" }},
		{"blank secret", func(c *Config) { c.TokenSecret = "  " }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "shouty" }},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			utils.AssertErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn"}
	logger := cfg.Logger(&buf)

	logger.Info().Msg("quiet")
	utils.AssertEqual(t, buf.Len(), 0)

	logger.Warn().Msg("loud")
	assert.Contains(t, buf.String(), `"message":"loud"`)
}
