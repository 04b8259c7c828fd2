package repository

import (
	"context"

	"healthsync/internal/models"
)

// DefaultAuditLimit ListRecent 未指定 limit 时的条数
const DefaultAuditLimit = 50

// MaxAuditLimit ListRecent 单次最多返回条数
const MaxAuditLimit = 500

// AuditRepository 操作员写操作审计
type AuditRepository interface {
	// Record 写入一条审计；EntryID / CreatedAt 为空时自动填充
	Record(ctx context.Context, entry *models.AuditEntry) error
	// ListRecent 按 created_at 倒序返回最近的记录
	ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		return MaxAuditLimit
	}
	return limit
}
