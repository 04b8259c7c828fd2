package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("AUDIT_DB_HOST", "db.internal")
	t.Setenv("AUDIT_DB_PORT", "6543")
	t.Setenv("AUDIT_DB_NAME", "healthsync")
	t.Setenv("AUDIT_DB_MAX_CONNS", "not-a-number")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, MaxConns: 4, SSLMode: "disable"}
	cfg.LoadFromEnv("AUDIT_DB")

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "healthsync", cfg.Database)
	// 非法数字保持默认值
	assert.Equal(t, 4, cfg.MaxConns)
	assert.Contains(t, cfg.GetDSN(), "host=db.internal port=6543")
	assert.Contains(t, cfg.GetDSN(), "sslmode=disable")
}

func TestMQTTConfig_Topics(t *testing.T) {
	t.Setenv("MQTT_QOS", "5")
	t.Setenv("MQTT_TOPIC_PREFIX", "ward-3/telemetry")

	cfg := MQTTConfig{QoS: 1, TopicPrefix: "healthsync/telemetry"}
	cfg.LoadFromEnv("MQTT")

	// QoS 超出范围被忽略
	assert.Equal(t, byte(1), cfg.QoS)
	assert.Equal(t, "ward-3/telemetry/P-001", cfg.TelemetryTopic("P-001"))
	assert.Equal(t, "ward-3/telemetry/+", cfg.TelemetryWildcard())
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")

	cfg := RedisConfig{Addr: "localhost:6379"}
	cfg.LoadFromEnv("REDIS")

	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
	assert.Equal(t, "", cfg.Password)
}
