package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthsync/internal/models"

	"github.com/google/uuid"
)

// MemoryAuditRepo 未启用数据库时使用，最多保留 capacity 条
type MemoryAuditRepo struct {
	mu       sync.RWMutex
	entries  []models.AuditEntry
	capacity int
}

func NewMemoryAuditRepo(capacity int) *MemoryAuditRepo {
	if capacity <= 0 {
		capacity = MaxAuditLimit
	}
	return &MemoryAuditRepo{capacity: capacity}
}

func (r *MemoryAuditRepo) Record(_ context.Context, entry *models.AuditEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	if over := len(r.entries) - r.capacity; over > 0 {
		r.entries = append([]models.AuditEntry(nil), r.entries[over:]...)
	}
	return nil
}

func (r *MemoryAuditRepo) ListRecent(_ context.Context, limit int) ([]models.AuditEntry, error) {
	r.mu.RLock()
	out := make([]models.AuditEntry, len(r.entries))
	copy(out, r.entries)
	r.mu.RUnlock()

	// 同一时刻写入的记录保持后写在前
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit = clampLimit(limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
