package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "values_test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_dsn: postgres://file@db/journal
service:
  public_port: 9000
auth:
  dev_user_id: 7
journal:
  recent_runs: 3
`), 0o600))

	t.Setenv("DATABASE_DSN", "postgres://env@db/journal")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env@db/journal", cfg.DB)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, int64(7), cfg.Auth.DevUserID)
	assert.Equal(t, 9000, cfg.Service.PublicPort)
	assert.Equal(t, 8081, cfg.Service.AdminPort)
	assert.Equal(t, 3, cfg.Journal.RecentRuns)
	assert.Equal(t, "journal_token", cfg.Auth.CookieName)
	assert.Equal(t, "0.0.0.0:9000", cfg.PublicAddr())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Journal.RecentRuns)
	assert.Equal(t, "media", cfg.Journal.MediaDir)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
