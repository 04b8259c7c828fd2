package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"healthsync/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultTimeout 单次请求超时
const DefaultTimeout = 10 * time.Second

// APIClient 外部患者/报警 API 客户端（不做重试，失败直接返回给调用方）
type APIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewAPIClient 创建客户端；timeout <= 0 时使用 DefaultTimeout
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &APIClient{
		httpClient: client,
		logger:     logger,
	}
}

// do 发送请求；非 2xx 转成 *APIError
func (c *APIClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	req := c.httpClient.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("External API call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := newAPIError(resp.StatusCode(), resp.Body())
		c.logger.Warn("External API returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", apiErr.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	c.logger.Debug("External API call succeeded",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)
	return resp.Body(), nil
}

// ListPatients GET /patients
func (c *APIClient) ListPatients(ctx context.Context) ([]models.Patient, error) {
	body, err := c.do(ctx, resty.MethodGet, "/patients", nil)
	if err != nil {
		return nil, err
	}
	raw, err := unwrapList(body, "patients")
	if err != nil {
		return nil, err
	}
	var wires []patientWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	patients := make([]models.Patient, 0, len(wires))
	for _, w := range wires {
		patients = append(patients, w.toModel())
	}
	return patients, nil
}

// ListAlerts GET /alerts
// 时间无法解析的记录跳过并记日志
func (c *APIClient) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	body, err := c.do(ctx, resty.MethodGet, "/alerts", nil)
	if err != nil {
		return nil, err
	}
	raw, err := unwrapList(body, "alerts")
	if err != nil {
		return nil, err
	}
	var wires []alertWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	alerts := make([]models.Alert, 0, len(wires))
	for _, w := range wires {
		a, err := w.toModel()
		if err != nil {
			c.logger.Warn("Skipping malformed alert", zap.Error(err))
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// GetStats GET /stats
func (c *APIClient) GetStats(ctx context.Context) (*models.APIStats, error) {
	body, err := c.do(ctx, resty.MethodGet, "/stats", nil)
	if err != nil {
		return nil, err
	}
	var w statsWire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	stats := w.toModel()
	return &stats, nil
}

// CreatePatient POST /patients，返回 API 生成的患者记录
func (c *APIClient) CreatePatient(ctx context.Context, in models.PatientInput) (*models.Patient, error) {
	body, err := c.do(ctx, resty.MethodPost, "/patients", in)
	if err != nil {
		return nil, err
	}
	return decodePatient(body)
}

// UpdatePatient PUT /patients/{id}
func (c *APIClient) UpdatePatient(ctx context.Context, id string, in models.PatientInput) (*models.Patient, error) {
	body, err := c.do(ctx, resty.MethodPut, "/patients/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	return decodePatient(body)
}

// DeletePatient DELETE /patients/{id}
func (c *APIClient) DeletePatient(ctx context.Context, id string) error {
	_, err := c.do(ctx, resty.MethodDelete, "/patients/"+url.PathEscape(id), nil)
	return err
}

// ResolveAlert PUT /alerts/{id}/resolve
func (c *APIClient) ResolveAlert(ctx context.Context, id string) error {
	_, err := c.do(ctx, resty.MethodPut, "/alerts/"+url.PathEscape(id)+"/resolve", nil)
	return err
}

// SubmitTelemetry POST /telemetry
func (c *APIClient) SubmitTelemetry(ctx context.Context, r models.TelemetryReading) error {
	w := telemetryWire{
		PatientID:   r.PatientID,
		HeartRate:   r.HeartRate,
		OxygenLevel: r.OxygenLevel,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
	}
	_, err := c.do(ctx, resty.MethodPost, "/telemetry", w)
	return err
}

// decodePatient 写接口的响应体可能为空（204），此时返回 nil
func decodePatient(body []byte) (*models.Patient, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var w patientWire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	p := w.toModel()
	return &p, nil
}
