package service

import (
	"context"
	"fmt"
	"strings"

	"healthsync/internal/models"

	"go.uber.org/zap"
)

// SubmitTelemetry 转发一条读数到外部 API，成功后同步到本地快照
func (s *DashboardService) SubmitTelemetry(ctx context.Context, r models.TelemetryReading) error {
	if strings.TrimSpace(r.PatientID) == "" {
		return fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	if err := s.api.SubmitTelemetry(ctx, r); err != nil {
		return fmt.Errorf("submit telemetry: %w", err)
	}
	s.ApplyTelemetry(r)
	return nil
}

// ApplyTelemetry 把实时读数写入快照中的患者；患者不存在或服务已停止时返回 false
// 只覆盖读数中存在的字段，同时把连接状态置为 Online
func (s *DashboardService) ApplyTelemetry(r models.TelemetryReading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	for i := range s.snap.Patients {
		p := &s.snap.Patients[i]
		if p.PatientID != r.PatientID {
			continue
		}
		if r.HeartRate != nil {
			hr := *r.HeartRate
			p.HeartRate = &hr
		}
		if r.OxygenLevel != nil {
			o2 := *r.OxygenLevel
			p.OxygenLevel = &o2
		}
		if !r.Timestamp.IsZero() {
			ts := r.Timestamp
			p.LastReading = &ts
		}
		p.ConnectionStatus = models.ConnectionOnline
		return true
	}

	s.logger.Debug("Telemetry for unknown patient", zap.String("patient_id", r.PatientID))
	return false
}
