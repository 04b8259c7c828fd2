package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"healthsync/internal/models"

	"go.uber.org/zap"
)

// CreatePatient 校验后转发到外部 API；成功后刷新
func (s *DashboardService) CreatePatient(ctx context.Context, in models.PatientInput) (*models.Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	p, err := s.api.CreatePatient(ctx, in)
	target := ""
	if p != nil {
		target = p.PatientID
	}
	s.record(ctx, models.AuditPatientCreate, target, err, in)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.refreshAfterWrite(ctx)
	return p, nil
}

// UpdatePatient 更新患者
func (s *DashboardService) UpdatePatient(ctx context.Context, id string, in models.PatientInput) (*models.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: patient id is required", ErrInvalidInput)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	p, err := s.api.UpdatePatient(ctx, id, in)
	s.record(ctx, models.AuditPatientUpdate, id, err, in)
	if err != nil {
		return nil, fmt.Errorf("update patient %s: %w", id, err)
	}

	s.refreshAfterWrite(ctx)
	return p, nil
}

// DeletePatient 删除患者
func (s *DashboardService) DeletePatient(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: patient id is required", ErrInvalidInput)
	}

	var details any
	if p, err := s.Patient(id); err == nil {
		details = map[string]string{"name": p.Name}
	}

	err := s.api.DeletePatient(ctx, id)
	s.record(ctx, models.AuditPatientDelete, id, err, details)
	if err != nil {
		return fmt.Errorf("delete patient %s: %w", id, err)
	}

	s.refreshAfterWrite(ctx)
	return nil
}

// ResolveAlert 标记报警已处理
func (s *DashboardService) ResolveAlert(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: alert id is required", ErrInvalidInput)
	}

	err := s.api.ResolveAlert(ctx, id)
	s.record(ctx, models.AuditAlertResolve, id, err, nil)
	if err != nil {
		return fmt.Errorf("resolve alert %s: %w", id, err)
	}

	s.refreshAfterWrite(ctx)
	return nil
}

// refreshAfterWrite 写操作已成功，刷新失败只体现在错误横幅上
func (s *DashboardService) refreshAfterWrite(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Debug("Refresh after write failed", zap.Error(err))
	}
}

// record 写审计；审计失败不影响操作结果
func (s *DashboardService) record(ctx context.Context, action, target string, opErr error, details any) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditEntry{
		Action:   action,
		TargetID: target,
		Operator: OperatorFrom(ctx),
		Success:  opErr == nil,
	}
	if opErr != nil {
		msg := opErr.Error()
		entry.ErrorMessage = &msg
	}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = b
		}
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry",
			zap.String("action", action),
			zap.String("target_id", target),
			zap.Error(err),
		)
	}
}
