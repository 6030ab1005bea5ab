package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://dados.cvm.gov.br/dados/FI/DOC/CDA/DADOS", cfg.Source.BaseURL)
	assert.Equal(t, 10, cfg.Source.TimeoutSecs)
	assert.Equal(t, 1, cfg.Source.MaxRetries)
	assert.InDelta(t, 2.0, cfg.Source.RatePerSec, 0.001)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.Pipeline.LowMemory)
	assert.InDelta(t, 0.5, cfg.Pipeline.SuppressBelow, 0.001)
	assert.Equal(t, "Títulos Públicos", cfg.Pipeline.PublicDebtLabel)
	assert.Equal(t, 2005, cfg.Pipeline.MinYear)
	assert.Equal(t, 0, cfg.Cache.TTLMinutes)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.5, cfg.Monitor.FailureRateThreshold, 0.001)
	assert.Equal(t, 300, cfg.Monitor.CheckIntervalSecs)
	assert.Equal(t, 24, cfg.Monitor.LookbackWindowHours)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  base_url: ftp://mirror.example.com/cda
  timeout_secs: 30
pipeline:
  workers: 2
  low_memory: true
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ftp://mirror.example.com/cda", cfg.Source.BaseURL)
	assert.Equal(t, 30, cfg.Source.TimeoutSecs)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.True(t, cfg.Pipeline.LowMemory)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.5, cfg.Pipeline.SuppressBelow, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
pipeline:
  workers: 2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FUNDCOMP_PIPELINE_WORKERS", "6")
	t.Setenv("FUNDCOMP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 6, cfg.Pipeline.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FUNDCOMP_SERVER_PORT=3000\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("FUNDCOMP_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Source.BaseURL = "https://example.com/cda"
	cfg.Source.TimeoutSecs = 10
	cfg.Pipeline.Workers = 4
	cfg.Pipeline.SuppressBelow = 0.5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateComposition(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("composition"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	// Port is irrelevant outside serve.
	assert.NoError(t, cfg.Validate("composition"))

	cfg.Server.Port = 8080
	cfg.Monitor.FailureRateThreshold = 1.5
	assert.ErrorContains(t, cfg.Validate("serve"), "monitor.failure_rate_threshold")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.Workers = 0
	err := cfg.Validate("composition")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.workers must be between 1 and 12")

	cfg.Pipeline.Workers = 13
	assert.Error(t, cfg.Validate("composition"))

	cfg.Pipeline.Workers = 12
	cfg.Pipeline.SuppressBelow = -1
	err = cfg.Validate("composition")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "suppress_below")

	cfg.Pipeline.SuppressBelow = 0.5
	cfg.Source.BaseURL = ""
	cfg.Source.TimeoutSecs = 0
	err = cfg.Validate("composition")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source.base_url is required")
	assert.Contains(t, err.Error(), "source.timeout_secs must be > 0")
}
