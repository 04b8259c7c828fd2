package httpapi

import (
	"net/http"

	"healthsync/internal/service"

	"go.uber.org/zap"
)

// DashboardHandler 概览
type DashboardHandler struct {
	svc    *service.DashboardService
	logger *zap.Logger
}

func NewDashboardHandler(svc *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// GetDashboard GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.svc.Dashboard()))
}

// Refresh POST /api/v1/refresh
// 失败时横幅已设置，仍返回当前（旧的）概览以及错误
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		h.logger.Warn("Manual refresh failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.svc.Dashboard()))
}

// DismissError DELETE /api/v1/error
func (h *DashboardHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.svc.DismissError()
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
