package httpapi

import (
	"fmt"
	"net/http"

	"healthsync/internal/service"

	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出当前视图（与列表接口使用相同的过滤参数）
type ExportHandler struct {
	svc    *service.DashboardService
	logger *zap.Logger
}

func NewExportHandler(svc *service.DashboardService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, logger: logger}
}

// ExportPatients GET /api/v1/export/patients
func (h *ExportHandler) ExportPatients(w http.ResponseWriter, r *http.Request) {
	f, _, err := patientQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := GeneratePatientExport(h.svc.Patients(f), h.svc.Location())
	if err != nil {
		h.logger.Error("Failed to generate patient export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}
	h.writeFile(w, "patients", data)
}

// ExportAlerts GET /api/v1/export/alerts
func (h *ExportHandler) ExportAlerts(w http.ResponseWriter, r *http.Request) {
	f, key, _, err := alertQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := GenerateAlertExport(h.svc.Alerts(f, key), h.svc.Location())
	if err != nil {
		h.logger.Error("Failed to generate alert export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}
	h.writeFile(w, "alerts", data)
}

func (h *ExportHandler) writeFile(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, h.svc.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
