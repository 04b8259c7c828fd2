package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"healthsync/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresAuditRepository operator_audit_log 表
type PostgresAuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAuditRepository 创建审计仓库
func NewPostgresAuditRepository(db *sql.DB, logger *zap.Logger) *PostgresAuditRepository {
	return &PostgresAuditRepository{
		db:     db,
		logger: logger,
	}
}

const auditSchema = `
	CREATE TABLE IF NOT EXISTS operator_audit_log (
		entry_id      UUID PRIMARY KEY,
		action        VARCHAR(64) NOT NULL,
		target_id     VARCHAR(128) NOT NULL,
		operator      VARCHAR(128) NOT NULL,
		success       BOOLEAN NOT NULL,
		error_message TEXT,
		details       JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_operator_audit_log_created_at ON operator_audit_log (created_at DESC);
`

// EnsureSchema 建表（幂等）
func (r *PostgresAuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to create operator_audit_log: %w", err)
	}
	return nil
}

// Record 写入审计记录
func (r *PostgresAuditRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var details sql.NullString
	if len(entry.Details) > 0 {
		details = sql.NullString{String: string(entry.Details), Valid: true}
	}

	query := `
		INSERT INTO operator_audit_log (
			entry_id, action, target_id, operator, success, error_message, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.EntryID,
		entry.Action,
		entry.TargetID,
		entry.Operator,
		entry.Success,
		entry.ErrorMessage,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert audit entry",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListRecent 最近的审计记录
func (r *PostgresAuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT
			entry_id,
			action,
			target_id,
			operator,
			success,
			error_message,
			details,
			created_at
		FROM operator_audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query operator_audit_log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			e       models.AuditEntry
			errMsg  sql.NullString
			details []byte
		)
		if err := rows.Scan(
			&e.EntryID,
			&e.Action,
			&e.TargetID,
			&e.Operator,
			&e.Success,
			&errMsg,
			&details,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if errMsg.Valid {
			msg := errMsg.String
			e.ErrorMessage = &msg
		}
		if len(details) > 0 {
			e.Details = details
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
