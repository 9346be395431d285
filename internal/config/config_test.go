package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/smartdiff/internal/render"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvBackendURL, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.RequestTimeout)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvBackendURL, "")
	t.Setenv(EnvLogLevel, "")

	path := writeConfig(t, `
backend_url: https://review.example.com
request_timeout: 45s
default_mode: side-by-side
export_dir: /tmp/reviews
log_level: debug
include:
  - "src/**/*.py"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://review.example.com", cfg.BackendURL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, render.ModeSideBySide, cfg.Mode())
	assert.Equal(t, "/tmp/reviews", cfg.ExportDir)
	assert.Equal(t, []string{"src/**/*.py"}, cfg.Include)
	assert.Equal(t, "info", DefaultConfig().LogLevel)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "backend_url: [unterminated"))
	assert.ErrorContains(t, err, "parse config file")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvBackendURL, "http://env:9000")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, "backend_url: http://file:8000\nlog_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000", cfg.BackendURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnvIgnoresBlank(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(string) string { return "  " })
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidateCollectsFieldErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackendURL = "ftp://example.com"
	cfg.DefaultMode = "diagonal"
	cfg.LogLevel = "loud"
	cfg.RequestTimeout = -time.Second
	cfg.Include = []string{"ok/**", "[bad"}

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"backend_url", "request_timeout", "default_mode", "log_level", "include[1]"}, fields)
}

func TestValidateBackendURLNeedsHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackendURL = "http://"
	assert.Error(t, cfg.Validate())
}

func TestDefaultPathUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "smartdiff", "config.yaml"), DefaultPath())
}
