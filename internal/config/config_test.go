package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "random", cfg.Server.Mode)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 0, cfg.Client.Retries)
	assert.Equal(t, 30, cfg.Analysis.WindowDays)
	assert.False(t, cfg.Analysis.Parallel)
	assert.Equal(t, 10*time.Minute, cfg.Watch.Interval)
	assert.Equal(t, "http://localhost:8000", cfg.BaseURL())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
  mode: static
client:
  base_url: http://analytics.internal:9100/
  timeout: 5s
  retries: 2
analysis:
  parallel: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "static", cfg.Server.Mode)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 2, cfg.Client.Retries)
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, "http://analytics.internal:9100", cfg.BaseURL())
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SITEINSIGHT_SERVER_PORT", "8123")
	t.Setenv("SITEINSIGHT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "localhost:8123", cfg.Addr())
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Server.Mode = "chaos"
	cfg.Server.Port = 0
	cfg.Client.Retries = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "client.retries")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SITEINSIGHT_TEST_ONLY=from-file\n"), 0o600))
	t.Setenv("SITEINSIGHT_TEST_ONLY", "")
	require.NoError(t, os.Unsetenv("SITEINSIGHT_TEST_ONLY"))

	loaded := LoadEnv(path, filepath.Join(dir, "missing.env"))
	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "from-file", os.Getenv("SITEINSIGHT_TEST_ONLY"))
}
