package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthsync/common/database"
	"healthsync/common/logger"
	mqttcommon "healthsync/common/mqtt"
	rediscommon "healthsync/common/redis"
	"healthsync/internal/client"
	"healthsync/internal/config"
	"healthsync/internal/consumer"
	httpapi "healthsync/internal/http"
	telemetrymqtt "healthsync/internal/mqtt"
	"healthsync/internal/repository"
	"healthsync/internal/service"
	"healthsync/internal/simulator"
	"healthsync/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthsync-dashboard")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 可选依赖：Redis（快照缓存 + 遥测流）、Postgres（审计）、MQTT（实时遥测）
	var redisClient *redis.Client
	var kv store.KV
	if cfg.RedisEnabled {
		if c, err := rediscommon.NewRedisClient(ctx, &cfg.Redis); err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			log.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
		} else {
			log.Warn("Redis enabled but connection failed, using in-memory snapshot cache", zap.Error(err))
		}
	}
	if kv == nil {
		kv = store.NewMemoryKV()
	}

	var db *sql.DB
	var audit repository.AuditRepository = repository.NewMemoryAuditRepo(cfg.Dashboard.AuditCapacity)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(ctx, &cfg.Database); err == nil {
			repo := repository.NewPostgresAuditRepository(d, log)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Warn("Failed to ensure audit schema, falling back to in-memory audit", zap.Error(err))
				_ = d.Close()
			} else {
				db = d
				audit = repo
				log.Info("DB enabled for audit log")
			}
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory audit", zap.Error(err))
		}
	}

	// 4. 外部 API 客户端 + 看板服务
	api := client.NewAPIClient(cfg.API.BaseURL, cfg.API.Timeout, log)
	svc := service.NewDashboardService(api, kv, audit, service.Options{
		Thresholds:      cfg.Dashboard.Thresholds,
		Location:        cfg.Dashboard.Location,
		CacheKey:        cfg.Dashboard.CacheKey,
		CacheTTL:        cfg.Dashboard.CacheTTL,
		RefreshInterval: cfg.Dashboard.RefreshInterval,
	}, log)

	if err := svc.LoadCached(ctx); err != nil {
		log.Warn("Failed to load cached snapshot", zap.Error(err))
	}
	if err := svc.Refresh(ctx); err != nil {
		log.Warn("Initial refresh failed", zap.Error(err))
	}
	svc.Start(ctx)

	// 5. 实时遥测入口：MQTT 订阅、Redis Stream 消费
	var mqttClient *mqttcommon.Client
	if cfg.MQTTEnabled {
		if c, err := mqttcommon.NewClient(&cfg.MQTT, log); err == nil {
			mqttClient = c
			broker := telemetrymqtt.NewTelemetryBroker(svc, log)
			if err := c.Subscribe(cfg.MQTT.TelemetryWildcard(), broker.HandleMessage); err != nil {
				log.Warn("Failed to subscribe telemetry topic", zap.Error(err))
			} else {
				log.Info("Subscribed to telemetry", zap.String("topic", cfg.MQTT.TelemetryWildcard()))
			}
		} else {
			log.Warn("MQTT enabled but connection failed", zap.Error(err))
		}
	}

	if redisClient != nil && cfg.Stream.ConsumerEnabled {
		tc := consumer.NewTelemetryConsumer(redisClient, svc, log,
			cfg.Stream.Name, cfg.Stream.Group, cfg.Stream.Consumer, cfg.Stream.BatchSize)
		go func() {
			if err := tc.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error("Telemetry consumer stopped", zap.Error(err))
			}
		}()
	}

	// 测试中心模拟器经由看板转发到外部 API，成功后立即反映到快照
	sim := simulator.NewSimulator(
		simulator.NewGenerator(time.Now().UnixNano()),
		[]simulator.Sink{simulator.NewFuncSink(simulator.SinkHTTP, svc.SubmitTelemetry)},
		log,
	)

	// 6. HTTP 路由
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(svc, log))
	router.RegisterPatientRoutes(httpapi.NewPatientHandler(svc, log))
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(svc, log))
	router.RegisterTestCenterRoutes(httpapi.NewTestCenterHandler(svc, sim, log))
	router.RegisterExportRoutes(httpapi.NewExportHandler(svc, log))
	router.RegisterAuditRoutes(httpapi.NewAuditHandler(audit, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.Info("HealthSync dashboard started",
		zap.String("addr", srv.Addr()),
		zap.String("api", cfg.API.BaseURL),
	)

	// 7. 等待信号（优雅关闭）
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	svc.Stop()
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Info("HealthSync dashboard stopped")
}
