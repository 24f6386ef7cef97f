package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 7200, cfg.CacheTime)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "doubanio.com", cfg.Images.Host)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
cacheTime: 600
upstream:
  timeout: 3s
images:
  proxy: "https://proxy.example.com/?u="
redis:
  addr: "localhost:6379"
  db: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 600, cfg.CacheTime)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "https://proxy.example.com/?u=", cfg.Images.Proxy)
	assert.Equal(t, "doubanio.com", cfg.Images.Host)
	assert.Equal(t, "https://movie.douban.com/top250", cfg.Upstream.TopURL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "cacheTime: 600\n")
	t.Setenv("CACHE_TIME", "60")
	t.Setenv("HTTP_TIMEOUT", "4")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.CacheTime)
	assert.Equal(t, 4*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "listen: [unterminated"))
	assert.ErrorContains(t, err, "syntax error")

	_, err = Load(writeConfig(t, "cacheTime: 0\n"))
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = Load(writeConfig(t, "upstream:\n  searchURL: \"\"\n"))
	assert.ErrorContains(t, err, "SearchURL")
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, SetupLogging(Log{Level: "warn", Format: "json"}))
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	assert.Error(t, SetupLogging(Log{Level: "loud", Format: "json"}))
}

func TestFormatter(t *testing.T) {
	assert.IsType(t, &log.JSONFormatter{}, formatter("json", true))
	assert.IsType(t, &log.TextFormatter{}, formatter("text", false))
	assert.IsType(t, &log.TextFormatter{}, formatter("auto", true))
	assert.IsType(t, &log.JSONFormatter{}, formatter("auto", false))
}
