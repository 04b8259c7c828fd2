package models

import (
	"encoding/json"
	"time"
)

// 审计动作
const (
	AuditPatientCreate = "patient.create"
	AuditPatientUpdate = "patient.update"
	AuditPatientDelete = "patient.delete"
	AuditAlertResolve  = "alert.resolve"
)

// AuditEntry 操作员写操作审计记录（对应 operator_audit_log 表）
type AuditEntry struct {
	EntryID      string          `json:"entry_id" db:"entry_id"`
	Action       string          `json:"action" db:"action"`
	TargetID     string          `json:"target_id" db:"target_id"`
	Operator     string          `json:"operator" db:"operator"`
	Success      bool            `json:"success" db:"success"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"` // JSONB
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
