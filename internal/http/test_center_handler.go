package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"healthsync/internal/aggregator"
	"healthsync/internal/filter"
	"healthsync/internal/health"
	"healthsync/internal/models"
	"healthsync/internal/service"
	"healthsync/internal/simulator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTelemetryCount 单次请求最多生成的读数
const maxTelemetryCount = 20

// TestCenterHandler 测试中心：实时监护、模拟读数、统计
type TestCenterHandler struct {
	svc    *service.DashboardService
	sim    *simulator.Simulator
	logger *zap.Logger
}

func NewTestCenterHandler(svc *service.DashboardService, sim *simulator.Simulator, logger *zap.Logger) *TestCenterHandler {
	return &TestCenterHandler{svc: svc, sim: sim, logger: logger}
}

type monitorResult struct {
	Online     int                   `json:"online"`
	Offline    int                   `json:"offline"`
	Critical   int                   `json:"critical"`
	Patients   []service.PatientView `json:"patients"`
	ServerTime time.Time             `json:"server_time"`
}

// Monitor GET /api/v1/test-center/monitor
func (h *TestCenterHandler) Monitor(w http.ResponseWriter, r *http.Request) {
	patients := h.svc.Patients(filter.PatientFilter{})
	res := monitorResult{Patients: patients, ServerTime: h.svc.Now()}
	for _, p := range patients {
		if p.IsOnline() {
			res.Online++
		} else {
			res.Offline++
		}
		if p.HealthStatus == health.StatusCritical {
			res.Critical++
		}
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// telemetryRequest 指定 scenario 时按场景生成，否则使用显式读数
type telemetryRequest struct {
	PatientID   string `json:"patient_id"`
	Scenario    string `json:"scenario,omitempty"`
	HeartRate   *int   `json:"heart_rate,omitempty"`
	OxygenLevel *int   `json:"oxygen_level,omitempty"`
	Count       int    `json:"count,omitempty"`
}

type telemetryResult struct {
	Readings []models.TelemetryReading `json:"readings"`
	Stats    simulator.StatsSnapshot   `json:"stats"`
}

// SendTelemetry POST /api/v1/test-center/telemetry
func (h *TestCenterHandler) SendTelemetry(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.PatientID == "" {
		writeError(w, fmt.Errorf("%w: patient_id is required", service.ErrInvalidInput))
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > maxTelemetryCount {
		writeError(w, fmt.Errorf("%w: count must be at most %d", service.ErrInvalidInput, maxTelemetryCount))
		return
	}

	var readings []models.TelemetryReading
	var sendErr error
	if req.Scenario != "" {
		sc, err := simulator.Lookup(req.Scenario)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %w", service.ErrInvalidInput, err))
			return
		}
		for i := 0; i < req.Count; i++ {
			reading, err := h.sim.Emit(r.Context(), req.PatientID, sc)
			readings = append(readings, reading)
			if err != nil {
				sendErr = err
				break
			}
		}
	} else {
		reading, err := manualReading(req, h.svc.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		readings = append(readings, reading)
		sendErr = h.sim.Send(r.Context(), reading)
	}

	if sendErr != nil {
		h.logger.Warn("Test center telemetry failed",
			zap.String("patient_id", req.PatientID),
			zap.Error(sendErr),
		)
		writeError(w, sendErr)
		return
	}
	writeJSON(w, http.StatusOK, Ok(telemetryResult{Readings: readings, Stats: h.sim.Stats()}))
}

// manualReading 0 视为未提供；至少需要一个读数
func manualReading(req telemetryRequest, now time.Time) (models.TelemetryReading, error) {
	if req.HeartRate != nil && *req.HeartRate == 0 {
		req.HeartRate = nil
	}
	if req.OxygenLevel != nil && *req.OxygenLevel == 0 {
		req.OxygenLevel = nil
	}
	if req.HeartRate == nil && req.OxygenLevel == nil {
		return models.TelemetryReading{}, fmt.Errorf("%w: scenario or at least one vital is required", service.ErrInvalidInput)
	}
	if req.HeartRate != nil && *req.HeartRate < 0 {
		return models.TelemetryReading{}, fmt.Errorf("%w: heart_rate must not be negative", service.ErrInvalidInput)
	}
	if req.OxygenLevel != nil && (*req.OxygenLevel < 0 || *req.OxygenLevel > 100) {
		return models.TelemetryReading{}, fmt.Errorf("%w: oxygen_level must be between 0 and 100", service.ErrInvalidInput)
	}
	return models.TelemetryReading{
		ReadingID:   uuid.New().String(),
		PatientID:   req.PatientID,
		HeartRate:   req.HeartRate,
		OxygenLevel: req.OxygenLevel,
		Timestamp:   now.UTC(),
		Scenario:    "manual",
	}, nil
}

type analyticsResult struct {
	Transmission simulator.StatsSnapshot `json:"transmission"`
	Alerts       aggregator.AlertStats   `json:"alerts"`
	System       aggregator.SystemHealth `json:"system"`
	Patients     aggregator.PatientStats `json:"patients"`
}

// Analytics GET /api/v1/test-center/analytics
func (h *TestCenterHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	d := h.svc.Dashboard()
	writeJSON(w, http.StatusOK, Ok(analyticsResult{
		Transmission: h.sim.Stats(),
		Alerts:       d.Alerts,
		System:       d.System,
		Patients:     d.Patients,
	}))
}

// ResetStats DELETE /api/v1/test-center/stats
func (h *TestCenterHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	h.sim.ResetStats()
	h.logger.Info("Test center transmission stats reset")
	writeJSON(w, http.StatusOK, Ok(h.sim.Stats()))
}

// Scenarios GET /api/v1/test-center/scenarios
func (h *TestCenterHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(simulator.Scenarios()))
}
