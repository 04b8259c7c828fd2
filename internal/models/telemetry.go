package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidTelemetry 读数无法解析
var ErrInvalidTelemetry = errors.New("invalid telemetry")

// TelemetryReading 一次生命体征读数（测试中心模拟器产生，或从 MQTT / Redis Stream 收到）
type TelemetryReading struct {
	ReadingID   string    `json:"reading_id"`
	PatientID   string    `json:"patient_id"`
	HeartRate   *int      `json:"heart_rate,omitempty"`
	OxygenLevel *int      `json:"oxygen_level,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Scenario    string    `json:"scenario,omitempty"`
}

// ParseTelemetry 解析外部读数；0 视为无数据，超出范围的读数返回 ErrInvalidTelemetry；fallbackPatientID 在消息体缺少 patient_id 时使用
func ParseTelemetry(payload []byte, fallbackPatientID string) (TelemetryReading, error) {
	var raw struct {
		ReadingID   string     `json:"reading_id"`
		PatientID   string     `json:"patient_id"`
		HeartRate   *float64   `json:"heart_rate"`
		OxygenLevel *float64   `json:"oxygen_level"`
		Timestamp   *time.Time `json:"timestamp"`
		Scenario    string     `json:"scenario"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return TelemetryReading{}, fmt.Errorf("%w: %v", ErrInvalidTelemetry, err)
	}

	r := TelemetryReading{
		ReadingID:   raw.ReadingID,
		PatientID:   strings.TrimSpace(raw.PatientID),
		HeartRate:   vital(raw.HeartRate),
		OxygenLevel: vital(raw.OxygenLevel),
		Scenario:    raw.Scenario,
	}
	if r.PatientID == "" {
		r.PatientID = strings.TrimSpace(fallbackPatientID)
	}
	if r.PatientID == "" {
		return TelemetryReading{}, fmt.Errorf("%w: patient_id is required", ErrInvalidTelemetry)
	}
	if r.HeartRate != nil && *r.HeartRate < 0 {
		return TelemetryReading{}, fmt.Errorf("%w: heart_rate must not be negative", ErrInvalidTelemetry)
	}
	if r.OxygenLevel != nil && (*r.OxygenLevel < 0 || *r.OxygenLevel > 100) {
		return TelemetryReading{}, fmt.Errorf("%w: oxygen_level must be between 0 and 100", ErrInvalidTelemetry)
	}
	if raw.Timestamp != nil {
		r.Timestamp = raw.Timestamp.UTC()
	}
	return r, nil
}

// vital 四舍五入后为 0 视为无数据
func vital(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	if n == 0 {
		return nil
	}
	return &n
}
