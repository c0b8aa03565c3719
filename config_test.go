package site

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mevoq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigLayers(t *testing.T) {
	path := writeConfig(t, `
name: Mevoq Staging
addr: ":4000"
session_secret: yaml-secret-0123456789
backend_timeout: 3s
sample_fallback: false
`)
	t.Setenv("MEVOQ_ADDR", ":8080")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Mevoq Staging", cfg.Name)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "yaml-secret-0123456789", cfg.SessionSecret)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.False(t, cfg.Fallback())

	// Defaults fill what neither layer set.
	assert.Equal(t, "data/mevoq.db", cfg.DatabasePath)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "http://localhost:3000", cfg.URL)
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("MEVOQ_SESSION_SECRET", "env-secret-0123456789")
	t.Setenv("MEVOQ_SESSION_TTL", "30m")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env-secret-0123456789", cfg.SessionSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.Fallback())
}

func TestLoadConfigRejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, "addr: \":4000\"\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SessionSecret (required)")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsShortSecretAndBadURL(t *testing.T) {
	cfg := SiteConfig{SessionSecret: "short", URL: "not a url"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SessionSecret (min)")
	assert.Contains(t, err.Error(), "URL (url)")
}
