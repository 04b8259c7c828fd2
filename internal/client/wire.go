package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"healthsync/internal/models"
)

// timestampLayouts 外部 API 可能返回的时间格式
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// flexString 兼容数字或字符串 ID
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(b), err)
	}
	*f = flexString(n.String())
	return nil
}

// flexBool 兼容 true/false、0/1、"true"/"false"
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.ToLower(string(b)), `"`)
	switch s {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		return fmt.Errorf("invalid bool %s", string(b))
	}
	return nil
}

type patientWire struct {
	PatientID         flexString `json:"patient_id"`
	Name              string     `json:"name"`
	Age               int        `json:"age"`
	Gender            string     `json:"gender"`
	MedicalConditions *string    `json:"medical_conditions"`
	ConnectionStatus  string     `json:"connection_status"`
	HeartRate         *float64   `json:"heart_rate"`
	OxygenLevel       *float64   `json:"oxygen_level"`
	LastReading       *string    `json:"last_reading"`
}

func (w patientWire) toModel() models.Patient {
	p := models.Patient{
		PatientID:        string(w.PatientID),
		Name:             w.Name,
		Age:              w.Age,
		Gender:           w.Gender,
		ConnectionStatus: models.NormalizeConnectionStatus(w.ConnectionStatus),
		HeartRate:        reading(w.HeartRate),
		OxygenLevel:      reading(w.OxygenLevel),
	}
	if w.MedicalConditions != nil {
		p.MedicalConditions = *w.MedicalConditions
	}
	if w.LastReading != nil {
		if t, err := parseTimestamp(*w.LastReading); err == nil {
			p.LastReading = &t
		}
	}
	return p
}

type alertWire struct {
	AlertID       flexString `json:"alert_id"`
	PatientID     flexString `json:"patient_id"`
	PatientName   string     `json:"patient_name"`
	SeverityLevel string     `json:"severity_level"`
	IssueDetected string     `json:"issue_detected"`
	Message       *string    `json:"message"`
	Datetime      string     `json:"datetime"`
	Resolved      flexBool   `json:"resolved"`
}

func (w alertWire) toModel() (models.Alert, error) {
	ts, err := parseTimestamp(w.Datetime)
	if err != nil {
		return models.Alert{}, fmt.Errorf("alert %s: %w", string(w.AlertID), err)
	}
	sev, ok := models.ParseSeverity(w.SeverityLevel)
	if !ok {
		sev = models.SeverityLevel(strings.ToLower(strings.TrimSpace(w.SeverityLevel)))
	}
	a := models.Alert{
		AlertID:       string(w.AlertID),
		PatientID:     string(w.PatientID),
		PatientName:   w.PatientName,
		SeverityLevel: sev,
		IssueDetected: w.IssueDetected,
		Datetime:      ts,
		Resolved:      bool(w.Resolved),
	}
	if w.Message != nil {
		a.Message = *w.Message
	}
	return a, nil
}

// reading 缺失或四舍五入后为 0 视为无数据
func reading(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	if n == 0 {
		return nil
	}
	return &n
}

// parseTimestamp 无时区的时间按 UTC 处理；也接受 unix 秒
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// unwrapList 列表接口可能直接返回数组，也可能包在 {"data": [...]} 或 {"<key>": [...]} 中
func unwrapList(body []byte, key string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	for _, k := range []string{key, "data", "items", "results"} {
		if raw, ok := env[k]; ok {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("decode %s: no list in response", key)
}

// statsWire /stats 响应
type statsWire struct {
	TotalPatients       int      `json:"total_patients"`
	ActivePatients      int      `json:"active_patients"`
	CriticalAlertsToday int      `json:"critical_alerts_today"`
	UnresolvedAlerts    int      `json:"unresolved_alerts"`
	AvgHeartRateToday   *float64 `json:"avg_heart_rate_today"`
	AvgOxygenLevelToday *float64 `json:"avg_oxygen_level_today"`
}

func (w statsWire) toModel() models.APIStats {
	s := models.APIStats{
		TotalPatients:       w.TotalPatients,
		ActivePatients:      w.ActivePatients,
		CriticalAlertsToday: w.CriticalAlertsToday,
		UnresolvedAlerts:    w.UnresolvedAlerts,
	}
	if w.AvgHeartRateToday != nil && *w.AvgHeartRateToday != 0 {
		s.AvgHeartRateToday = w.AvgHeartRateToday
	}
	if w.AvgOxygenLevelToday != nil && *w.AvgOxygenLevelToday != 0 {
		s.AvgOxygenLevelToday = w.AvgOxygenLevelToday
	}
	return s
}

// telemetryWire POST /telemetry 请求体
type telemetryWire struct {
	PatientID   string `json:"patient_id"`
	HeartRate   *int   `json:"heart_rate,omitempty"`
	OxygenLevel *int   `json:"oxygen_level,omitempty"`
	Timestamp   string `json:"timestamp"`
}
