package httpapi

import (
	"net/http"

	"healthsync/internal/filter"
	"healthsync/internal/models"
	"healthsync/internal/service"

	"go.uber.org/zap"
)

// PatientHandler 患者管理
type PatientHandler struct {
	svc    *service.DashboardService
	logger *zap.Logger
}

func NewPatientHandler(svc *service.DashboardService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{svc: svc, logger: logger}
}

type patientListResult struct {
	Items   []service.PatientView `json:"items"`
	Total   int                   `json:"total"`   // 过滤后的条数
	Overall int                   `json:"overall"` // 快照中的总数
	Online  int                   `json:"online"`
	View    string                `json:"view"`
}

// ListPatients GET /api/v1/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	f, view, err := patientQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items := h.svc.Patients(f)
	all := h.svc.Patients(filter.PatientFilter{})
	online := 0
	for _, p := range all {
		if p.IsOnline() {
			online++
		}
	}
	writeJSON(w, http.StatusOK, Ok(patientListResult{
		Items:   items,
		Total:   len(items),
		Overall: len(all),
		Online:  online,
		View:    view,
	}))
}

// GetPatient GET /api/v1/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.svc.Patient(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// CreatePatient POST /api/v1/patients
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var in models.PatientInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	p, err := h.svc.CreatePatient(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(p))
}

// UpdatePatient PUT /api/v1/patients/{id}
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request, id string) {
	var in models.PatientInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	p, err := h.svc.UpdatePatient(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// DeletePatient DELETE /api/v1/patients/{id}
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeletePatient(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"patient_id": id}))
}
