package consumer

import (
	"context"
	"fmt"
	"time"

	rediscommon "healthsync/common/redis"
	"healthsync/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TelemetryApplier service.DashboardService 满足此接口
type TelemetryApplier interface {
	ApplyTelemetry(r models.TelemetryReading) bool
}

// TelemetryConsumer 从 Redis Stream 读取模拟器写入的读数
type TelemetryConsumer struct {
	redisClient  *redis.Client
	applier      TelemetryApplier
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
	block        time.Duration
}

// NewTelemetryConsumer 创建消费者
func NewTelemetryConsumer(
	redisClient *redis.Client,
	applier TelemetryApplier,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *TelemetryConsumer {
	return &TelemetryConsumer{
		redisClient:  redisClient,
		applier:      applier,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
		block:        2 * time.Second,
	}
}

// Start 阻塞消费直到 ctx 结束；读取失败时指数退避
func (c *TelemetryConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Telemetry consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume telemetry",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = time.Second
	}
}

// consumeOnce 读取一批消息，返回已确认的条数
// 解析失败的消息也会确认，避免反复投递
func (c *TelemetryConsumer) consumeOnce(ctx context.Context) (int, error) {
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, c.stream, c.groupName, c.consumerName, c.batchSize, c.block)
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	acked := 0
	for _, msg := range messages {
		if err := c.process(msg); err != nil {
			c.logger.Warn("Dropping malformed telemetry",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		if err := c.redisClient.XAck(ctx, c.stream, c.groupName, msg.ID).Err(); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		acked++
	}
	return acked, nil
}

func (c *TelemetryConsumer) process(msg rediscommon.StreamMessage) error {
	data, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no data field", msg.ID)
	}
	r, err := models.ParseTelemetry([]byte(data), "")
	if err != nil {
		return err
	}
	c.applier.ApplyTelemetry(r)
	return nil
}
