package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Security.AutoModeration)
	assert.Equal(t, 3, cfg.Security.SuspiciousThreshold)
	assert.Equal(t, "medium", cfg.Security.Level)
	assert.True(t, cfg.Security.WelcomeMessage)
	assert.Equal(t, "level", cfg.Security.AlertMode)

	assert.Equal(t, 10*time.Second, cfg.Spam.Window)
	assert.Equal(t, 5, cfg.Spam.Burst)
	assert.Equal(t, 5*time.Minute, cfg.Scan.Interval)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warden.yaml")
	content := []byte(`
security:
  auto_moderation: false
  suspicious_threshold: 5
  alert_mode: edge
spam:
  window: 30s
  burst: 8
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Security.AutoModeration)
	assert.Equal(t, 5, cfg.Security.SuspiciousThreshold)
	assert.Equal(t, "edge", cfg.Security.AlertMode)
	assert.Equal(t, 30*time.Second, cfg.Spam.Window)
	assert.Equal(t, 8, cfg.Spam.Burst)

	// Untouched keys keep their defaults.
	assert.Equal(t, "medium", cfg.Security.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/warden.yaml")
	assert.Error(t, err)
}

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warden.yaml")
	require.NoError(t, os.WriteFile(path, []byte("security:\n  suspicious_threshold: 4\n"), 0o600))

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Current().Security.SuspiciousThreshold)

	require.NoError(t, os.WriteFile(path, []byte("security:\n  suspicious_threshold: 9\n"), 0o600))
	_, err = store.Reload()
	require.NoError(t, err)
	assert.Equal(t, 9, store.Current().Security.SuspiciousThreshold)
}

func TestConnString(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5432, User: "warden", Password: "secret",
		Database: "warden", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://warden:secret@db:5432/warden?sslmode=disable", p.ConnString())
}
