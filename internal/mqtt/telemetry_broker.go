package mqtt

import (
	"strings"

	"healthsync/internal/models"

	"go.uber.org/zap"
)

// TelemetryApplier service.DashboardService 满足此接口
type TelemetryApplier interface {
	ApplyTelemetry(r models.TelemetryReading) bool
}

// TelemetryBroker 处理 {prefix}/{patient_id} 主题上的实时读数
type TelemetryBroker struct {
	applier TelemetryApplier
	logger  *zap.Logger
}

// NewTelemetryBroker 创建 broker
func NewTelemetryBroker(applier TelemetryApplier, logger *zap.Logger) *TelemetryBroker {
	return &TelemetryBroker{
		applier: applier,
		logger:  logger,
	}
}

// HandleMessage 解析读数并写入快照
// 消息体缺少 patient_id 时取主题最后一段
func (b *TelemetryBroker) HandleMessage(topic string, payload []byte) error {
	r, err := models.ParseTelemetry(payload, patientFromTopic(topic))
	if err != nil {
		return err
	}

	if !b.applier.ApplyTelemetry(r) {
		b.logger.Debug("Telemetry not applied",
			zap.String("topic", topic),
			zap.String("patient_id", r.PatientID),
		)
		return nil
	}

	b.logger.Debug("Telemetry applied",
		zap.String("patient_id", r.PatientID),
		zap.String("scenario", r.Scenario),
	)
	return nil
}

func patientFromTopic(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return ""
}
