package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/balancete/internal/model"
)

// clearEnv unsets the override variables for one test and restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDBPath, EnvLogLevel, EnvAddr, EnvPretty} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default("Test Biz", "services")
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business, got.Business)
	assert.Equal(t, cfg.Ledger, got.Ledger)
	assert.Equal(t, cfg.Log, got.Log)
	assert.Equal(t, cfg.Server, got.Server)
	assert.Equal(t, filepath.Join(dir, "data", "ledger.db"), got.Database.Path, "relative paths resolve against the config dir")
	assert.Equal(t, filepath.Join(dir, "logs", "audit.csv"), got.Audit.Path)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "services")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "services", cfg.Business.EntityType)
	assert.Equal(t, 1000, cfg.Ledger.PageSize)
	assert.Equal(t, model.ReferenceOpeningBalance, cfg.OpeningReferenceType())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)

	tol, err := cfg.TrialTolerance()
	require.NoError(t, err)
	assert.Equal(t, "0.01", tol.String())
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "services")
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "entity_type: services")
	assert.Contains(t, contents, "page_size: 1000")
	assert.Contains(t, contents, "opening_reference_type: opening_balance")
	assert.Contains(t, contents, `tolerance: "0.01"`)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Biz", "services")))

	t.Setenv(EnvDBPath, "/var/lib/balancete/ledger.db")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvAddr, ":9090")
	t.Setenv(EnvPretty, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/balancete/ledger.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Log.Pretty)
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, Default("Biz", "services")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BALANCETE_ADDR=0.0.0.0:7000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"negative page size", func(c *Config) { c.Ledger.PageSize = -1 }, "page_size"},
		{"bad tolerance", func(c *Config) { c.Ledger.Tolerance = "abc" }, "ledger.tolerance"},
		{"negative tolerance", func(c *Config) { c.Ledger.Tolerance = "-1" }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("Biz", "services")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
