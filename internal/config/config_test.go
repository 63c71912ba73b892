package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 120, cfg.Server.RequestTimeout)
	require.Equal(t, 30, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 250, cfg.HTTP.BackoffInitialMs)
	require.Equal(t, 5000, cfg.HTTP.BackoffMaxMs)
	require.Equal(t, int64(2<<20), cfg.HTTP.MaxBodyBytes)
	require.Equal(t, 5, cfg.Scanner.DeepScanConcurrency)
	require.False(t, cfg.Auth.Enabled)
	require.False(t, cfg.Logging.Development)
	require.Contains(t, cfg.HTTP.UserAgent, "wpscope")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
http:
  timeout_seconds: 10
  user_agent: custom-agent
auth:
  enabled: true
  api_key: sekret
scanner:
  deep_scan_concurrency: 2
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 10, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, "custom-agent", cfg.HTTP.UserAgent)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "sekret", cfg.Auth.APIKey)
	require.Equal(t, 2, cfg.Scanner.DeepScanConcurrency)
	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WPSCOPE_SERVER_PORT", "7070")
	t.Setenv("WPSCOPE_HTTP_MAX_RETRIES", "6")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 6, cfg.HTTP.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.HTTP.TimeoutSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.HTTP.MaxRetries = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Scanner.DeepScanConcurrency = -1
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = ""
	require.Error(t, cfg.Validate())
}

func TestDurationHelpers(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, cfg.ProbeTimeout())
	require.Equal(t, 250*time.Millisecond, cfg.BackoffInitial())
	require.Equal(t, 5*time.Second, cfg.BackoffMax())
	require.Equal(t, 120*time.Second, cfg.RequestTimeout())
}
