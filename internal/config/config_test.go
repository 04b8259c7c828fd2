package config

import (
	"os"
	"testing"
	"time"

	"healthsync/internal/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, health.DefaultThresholds(), cfg.Dashboard.Thresholds)
	assert.Equal(t, time.Duration(0), cfg.Dashboard.RefreshInterval)
	assert.Equal(t, "healthsync:snapshot", cfg.Dashboard.CacheKey)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.DBEnabled)
	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "healthsync/telemetry", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "healthsync:telemetry", cfg.Stream.Name)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("API_BASE_URL", "http://api.local:9000/")
	t.Setenv("API_TIMEOUT_SECONDS", "3")
	t.Setenv("REFRESH_INTERVAL_SECONDS", "30")
	t.Setenv("DASHBOARD_TIMEZONE", "UTC")
	t.Setenv("HR_CRITICAL_HIGH", "130")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("MQTT_TOPIC_PREFIX", "ward7/vitals")
	t.Setenv("DB_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.local:9000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, time.UTC, cfg.Dashboard.Location)
	assert.Equal(t, 130, cfg.Dashboard.Thresholds.CriticalHeartRateHigh)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "ward7/vitals/P-1", cfg.MQTT.TelemetryTopic("P-1"))
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir+"/.env", "HTTP_ADDR=:9090\nLOG_LEVEL=debug\n"))
	chdir(t, dir)
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { _ = os.Unsetenv("HTTP_ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	// 已有环境变量优先
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidThresholds(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HR_WARNING_HIGH", "140")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid heart rate thresholds")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DASHBOARD_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.ErrorContains(t, err, "DASHBOARD_TIMEZONE")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
