package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 20, cfg.PageSize)
	assert.InDelta(t, 0.01, cfg.HeatmapDefaultRadius, 1e-12)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.AllowedOrigins())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("FRONTEND_URL", "https://front.example.org/")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Contains(t, cfg.AllowedOrigins(), "https://front.example.org")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"7000\"\ndb_driver: mysql\ntrusted_proxies: \"10.0.0.1, 10.0.0.2\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Proxies())
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.DBDriver = "oracle"

	_, err := cfg.Dialector()
	assert.Error(t, err)
}

func TestInitDBSQLite(t *testing.T) {
	cfg := Default()
	cfg.DBDriver = "sqlite"
	cfg.DBPath = "file:config_test?mode=memory&cache=shared"

	db, err := InitDB(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Dialector.Name())

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}
