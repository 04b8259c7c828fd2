package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPatient 患者输入校验失败
var ErrInvalidPatient = errors.New("invalid patient")

// ConnectionStatus 监护设备连接状态（统一为 "Online" / "Offline"）
type ConnectionStatus string

const (
	ConnectionOnline  ConnectionStatus = "Online"
	ConnectionOffline ConnectionStatus = "Offline"
)

// NormalizeConnectionStatus 规范化连接状态：大小写不敏感，未知值视为 Offline
func NormalizeConnectionStatus(s string) ConnectionStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(ConnectionOnline)) {
		return ConnectionOnline
	}
	return ConnectionOffline
}

// Patient 患者记录（由外部 API 维护，这里只是投影）
// HeartRate / OxygenLevel 为 nil 表示没有读数
type Patient struct {
	PatientID         string           `json:"patient_id"`
	Name              string           `json:"name"`
	Age               int              `json:"age"`
	Gender            string           `json:"gender"`
	MedicalConditions string           `json:"medical_conditions,omitempty"`
	ConnectionStatus  ConnectionStatus `json:"connection_status"`
	HeartRate         *int             `json:"heart_rate,omitempty"`
	OxygenLevel       *int             `json:"oxygen_level,omitempty"`
	LastReading       *time.Time       `json:"last_reading,omitempty"`
}

// IsOnline 设备是否在线
func (p Patient) IsOnline() bool {
	return p.ConnectionStatus == ConnectionOnline
}

// PatientInput 创建/更新患者的请求体
type PatientInput struct {
	Name              string `json:"name"`
	Age               int    `json:"age"`
	Gender            string `json:"gender"`
	MedicalConditions string `json:"medical_conditions,omitempty"`
	ConnectionStatus  string `json:"connection_status,omitempty"`
	HeartRate         *int   `json:"heart_rate,omitempty"`
	OxygenLevel       *int   `json:"oxygen_level,omitempty"`
}

// Validate 校验并规范化输入
func (in *PatientInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = strings.TrimSpace(in.Gender)
	in.MedicalConditions = strings.TrimSpace(in.MedicalConditions)

	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPatient)
	}
	if in.Age < 0 || in.Age > 150 {
		return fmt.Errorf("%w: age must be between 0 and 150", ErrInvalidPatient)
	}
	if in.HeartRate != nil && *in.HeartRate < 0 {
		return fmt.Errorf("%w: heart_rate must not be negative", ErrInvalidPatient)
	}
	if in.OxygenLevel != nil && (*in.OxygenLevel < 0 || *in.OxygenLevel > 100) {
		return fmt.Errorf("%w: oxygen_level must be between 0 and 100", ErrInvalidPatient)
	}
	if in.ConnectionStatus != "" {
		in.ConnectionStatus = string(NormalizeConnectionStatus(in.ConnectionStatus))
	}
	return nil
}
