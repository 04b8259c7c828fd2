package simulator

import (
	"context"
	"encoding/json"
	"fmt"

	rediscommon "healthsync/common/redis"
	"healthsync/internal/models"

	"github.com/go-redis/redis/v8"
)

// Sink 读数的投递目标
type Sink interface {
	Name() string
	Send(ctx context.Context, r models.TelemetryReading) error
}

// 内置 sink 名
const (
	SinkHTTP  = "http"
	SinkMQTT  = "mqtt"
	SinkRedis = "redis"
)

// FuncSink 用函数实现 Sink
type FuncSink struct {
	name string
	fn   func(ctx context.Context, r models.TelemetryReading) error
}

func NewFuncSink(name string, fn func(ctx context.Context, r models.TelemetryReading) error) *FuncSink {
	return &FuncSink{name: name, fn: fn}
}

func (s *FuncSink) Name() string { return s.name }

func (s *FuncSink) Send(ctx context.Context, r models.TelemetryReading) error {
	return s.fn(ctx, r)
}

// TelemetrySubmitter client.APIClient 满足此接口
type TelemetrySubmitter interface {
	SubmitTelemetry(ctx context.Context, r models.TelemetryReading) error
}

// NewHTTPSink POST /telemetry
func NewHTTPSink(api TelemetrySubmitter) *FuncSink {
	return NewFuncSink(SinkHTTP, api.SubmitTelemetry)
}

// Publisher common/mqtt.Client 满足此接口
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTSink 发布到 {prefix}/{patient_id}
type MQTTSink struct {
	pub   Publisher
	topic func(patientID string) string
}

func NewMQTTSink(pub Publisher, topic func(patientID string) string) *MQTTSink {
	return &MQTTSink{pub: pub, topic: topic}
}

func (s *MQTTSink) Name() string { return SinkMQTT }

func (s *MQTTSink) Send(_ context.Context, r models.TelemetryReading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	return s.pub.Publish(s.topic(r.PatientID), false, payload)
}

// StreamSink 写入 Redis Stream
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *StreamSink) Name() string { return SinkRedis }

func (s *StreamSink) Send(ctx context.Context, r models.TelemetryReading) error {
	_, err := rediscommon.PublishJSONToStream(ctx, s.client, s.stream, r, s.maxLen)
	return err
}
