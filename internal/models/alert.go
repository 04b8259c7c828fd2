package models

import (
	"strings"
	"time"
)

// SeverityLevel 报警优先级
type SeverityLevel string

const (
	SeverityHigh   SeverityLevel = "high"
	SeverityMedium SeverityLevel = "medium"
	SeverityLow    SeverityLevel = "low"
)

// ParseSeverity 解析优先级（大小写不敏感），未知值返回 false
func ParseSeverity(s string) (SeverityLevel, bool) {
	switch SeverityLevel(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityHigh:
		return SeverityHigh, true
	case SeverityMedium:
		return SeverityMedium, true
	case SeverityLow:
		return SeverityLow, true
	}
	return "", false
}

// Rank 排序权重：high=3 > medium=2 > low=1，未知为 0
func (s SeverityLevel) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Alert 报警记录（patient_id 只是引用，不代表归属）
type Alert struct {
	AlertID       string        `json:"alert_id"`
	PatientID     string        `json:"patient_id"`
	PatientName   string        `json:"patient_name"`
	SeverityLevel SeverityLevel `json:"severity_level"`
	IssueDetected string        `json:"issue_detected"`
	Message       string        `json:"message,omitempty"`
	Datetime      time.Time     `json:"datetime"`
	Resolved      bool          `json:"resolved"`
}
