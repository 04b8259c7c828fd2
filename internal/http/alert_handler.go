package httpapi

import (
	"net/http"

	"healthsync/internal/aggregator"
	"healthsync/internal/filter"
	"healthsync/internal/models"
	"healthsync/internal/service"

	"go.uber.org/zap"
)

// AlertHandler 报警中心
type AlertHandler struct {
	svc    *service.DashboardService
	logger *zap.Logger
}

func NewAlertHandler(svc *service.DashboardService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{svc: svc, logger: logger}
}

type alertListResult struct {
	View         string                `json:"view"`
	Sort         filter.SortKey        `json:"sort"`
	Total        int                   `json:"total"`
	Items        []models.Alert        `json:"items,omitempty"`  // cards / table
	Groups       []filter.DateGroup    `json:"groups,omitempty"` // timeline
	Stats        aggregator.AlertStats `json:"stats"`
	PatientNames []string              `json:"patient_names"`
}

// ListAlerts GET /api/v1/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	f, key, view, err := alertQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	alerts := h.svc.Alerts(f, key)
	res := alertListResult{
		View:         view,
		Sort:         key,
		Total:        len(alerts),
		Stats:        h.svc.AlertStats(),
		PatientNames: h.svc.AlertPatientNames(),
	}
	if view == ViewTimeline {
		res.Groups = filter.DateGroups(alerts, h.svc.Location())
	} else {
		res.Items = alerts
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ResolveAlert POST /api/v1/alerts/{id}/resolve
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.ResolveAlert(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"alert_id": id, "resolved": true}))
}
