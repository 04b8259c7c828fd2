package httpapi

import (
	"net/http"

	"healthsync/internal/repository"

	"go.uber.org/zap"
)

// AuditHandler 操作审计查询
type AuditHandler struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func NewAuditHandler(repo repository.AuditRepository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, logger: logger}
}

// ListAudit GET /api/v1/audit?limit=
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), repository.DefaultAuditLimit)
	entries, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list audit entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list audit entries"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}
