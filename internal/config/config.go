package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "healthsync/common/config"
	"healthsync/internal/health"

	"github.com/joho/godotenv"
)

// Config healthsync 服务配置（dashboard 与 sim 共用）
type Config struct {
	HTTP struct {
		Addr string
	}
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Dashboard struct {
		Thresholds      health.Thresholds
		Location        *time.Location
		CacheKey        string
		CacheTTL        time.Duration
		RefreshInterval time.Duration // 0 表示不自动刷新
		AuditCapacity   int           // 未启用 DB 时内存审计保留条数
	}

	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	Stream       struct {
		Name            string
		MaxLen          int64
		ConsumerEnabled bool
		Group           string
		Consumer        string
		BatchSize       int64
	}

	DBEnabled bool
	Database  commoncfg.DatabaseConfig

	MQTTEnabled bool
	MQTT        commoncfg.MQTTConfig

	Log struct {
		Level  string
		Format string
	}
}

// Load 读取环境变量；当前目录存在 .env 时先加载（不覆盖已有变量）
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.API.BaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/")
	cfg.API.Timeout = time.Duration(parseInt(getEnv("API_TIMEOUT_SECONDS", "10"), 10)) * time.Second

	th, err := loadThresholds()
	if err != nil {
		return nil, err
	}
	cfg.Dashboard.Thresholds = th

	loc, err := loadLocation(getEnv("DASHBOARD_TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}
	cfg.Dashboard.Location = loc
	cfg.Dashboard.CacheKey = getEnv("CACHE_KEY", "healthsync:snapshot")
	cfg.Dashboard.CacheTTL = time.Duration(parseInt(getEnv("CACHE_TTL_SECONDS", "300"), 300)) * time.Second
	cfg.Dashboard.RefreshInterval = time.Duration(parseInt(getEnv("REFRESH_INTERVAL_SECONDS", "0"), 0)) * time.Second
	cfg.Dashboard.AuditCapacity = parseInt(getEnv("AUDIT_CAPACITY", "500"), 500)

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Stream.Name = getEnv("SIM_STREAM", "healthsync:telemetry")
	cfg.Stream.MaxLen = int64(parseInt(getEnv("SIM_STREAM_MAX_LEN", "10000"), 10000))
	cfg.Stream.ConsumerEnabled = getEnv("STREAM_CONSUMER_ENABLED", "false") == "true"
	cfg.Stream.Group = getEnv("STREAM_GROUP", "healthsync-dashboard")
	cfg.Stream.Consumer = getEnv("STREAM_CONSUMER", defaultConsumerName())
	cfg.Stream.BatchSize = int64(parseInt(getEnv("STREAM_BATCH_SIZE", "50"), 50))

	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "healthsync",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  2,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:      "tcp://localhost:1883",
		ClientID:    "healthsync-dashboard",
		QoS:         1,
		TopicPrefix: "healthsync/telemetry",
		ConnectWait: 10 * time.Second,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// loadThresholds 默认阈值 + 环境变量覆盖；危急区间必须包含警告区间
func loadThresholds() (health.Thresholds, error) {
	th := health.DefaultThresholds()
	th.CriticalHeartRateHigh = parseInt(getEnv("HR_CRITICAL_HIGH", ""), th.CriticalHeartRateHigh)
	th.CriticalHeartRateLow = parseInt(getEnv("HR_CRITICAL_LOW", ""), th.CriticalHeartRateLow)
	th.WarningHeartRateHigh = parseInt(getEnv("HR_WARNING_HIGH", ""), th.WarningHeartRateHigh)
	th.WarningHeartRateLow = parseInt(getEnv("HR_WARNING_LOW", ""), th.WarningHeartRateLow)
	th.CriticalOxygenLow = parseInt(getEnv("SPO2_CRITICAL_LOW", ""), th.CriticalOxygenLow)
	th.WarningOxygenLow = parseInt(getEnv("SPO2_WARNING_LOW", ""), th.WarningOxygenLow)

	if th.CriticalHeartRateLow > th.WarningHeartRateLow ||
		th.WarningHeartRateLow > th.WarningHeartRateHigh ||
		th.WarningHeartRateHigh > th.CriticalHeartRateHigh {
		return th, fmt.Errorf("invalid heart rate thresholds: critical %d-%d must contain warning %d-%d",
			th.CriticalHeartRateLow, th.CriticalHeartRateHigh, th.WarningHeartRateLow, th.WarningHeartRateHigh)
	}
	if th.CriticalOxygenLow > th.WarningOxygenLow {
		return th, fmt.Errorf("invalid oxygen thresholds: critical %d above warning %d",
			th.CriticalOxygenLow, th.WarningOxygenLow)
	}
	return th, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "dashboard-1"
	}
	return "dashboard-" + host
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
