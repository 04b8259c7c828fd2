package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)
	r.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("elapsed", time.Since(start)),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RegisterHealthRoutes /healthz
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterDashboardRoutes 概览、刷新、错误横幅
func (r *Router) RegisterDashboardRoutes(h *DashboardHandler) {
	r.Handle("/api/v1/dashboard", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.GetDashboard(w, req)
	})
	r.Handle("/api/v1/refresh", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Refresh(w, req)
	})
	r.Handle("/api/v1/error", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		h.DismissError(w, req)
	})
}

// RegisterPatientRoutes 患者 CRUD
func (r *Router) RegisterPatientRoutes(h *PatientHandler) {
	r.Handle("/api/v1/patients", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListPatients(w, req)
		case http.MethodPost:
			h.CreatePatient(w, withOperator(req))
		default:
			methodNotAllowed(w)
		}
	})
	r.Handle("/api/v1/patients/", func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(req.URL.Path, "/api/v1/patients/")
		if !ok {
			writeJSON(w, http.StatusNotFound, Fail("not found"))
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.GetPatient(w, req, id)
		case http.MethodPut:
			h.UpdatePatient(w, withOperator(req), id)
		case http.MethodDelete:
			h.DeletePatient(w, withOperator(req), id)
		default:
			methodNotAllowed(w)
		}
	})
}

// RegisterAlertRoutes 报警列表与处理
func (r *Router) RegisterAlertRoutes(h *AlertHandler) {
	r.Handle("/api/v1/alerts", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.ListAlerts(w, req)
	})
	r.Handle("/api/v1/alerts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/alerts/")
		id, ok := strings.CutSuffix(rest, "/resolve")
		if !ok || id == "" || strings.Contains(id, "/") {
			writeJSON(w, http.StatusNotFound, Fail("not found"))
			return
		}
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.ResolveAlert(w, withOperator(req), id)
	})
}

// RegisterTestCenterRoutes 测试中心
func (r *Router) RegisterTestCenterRoutes(h *TestCenterHandler) {
	r.Handle("/api/v1/test-center/monitor", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Monitor(w, req)
	})
	r.Handle("/api/v1/test-center/telemetry", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.SendTelemetry(w, req)
	})
	r.Handle("/api/v1/test-center/analytics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Analytics(w, req)
	})
	r.Handle("/api/v1/test-center/stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		h.ResetStats(w, req)
	})
	r.Handle("/api/v1/test-center/scenarios", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Scenarios(w, req)
	})
}

// RegisterExportRoutes xlsx 导出
func (r *Router) RegisterExportRoutes(h *ExportHandler) {
	r.Handle("/api/v1/export/patients", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.ExportPatients(w, req)
	})
	r.Handle("/api/v1/export/alerts", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.ExportAlerts(w, req)
	})
}

// RegisterAuditRoutes 操作审计
func (r *Router) RegisterAuditRoutes(h *AuditHandler) {
	r.Handle("/api/v1/audit", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.ListAudit(w, req)
	})
}
