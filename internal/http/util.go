package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"healthsync/internal/client"
	"healthsync/internal/models"
	"healthsync/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 按错误类型选择状态码；外部 API 的错误消息原样透传
func writeError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, models.ErrInvalidTelemetry):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		writeJSON(w, status, Fail(apiErr.Message))
	case errors.Is(err, service.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, Fail(err.Error()))
	default:
		writeJSON(w, http.StatusBadGateway, Fail(err.Error()))
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// pathID 取 prefix 之后的单段 ID；多段或为空返回 false
func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == path || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// withOperator 把 X-Operator 头写入请求 context
func withOperator(r *http.Request) *http.Request {
	if op := r.Header.Get("X-Operator"); op != "" {
		return r.WithContext(service.WithOperator(r.Context(), op))
	}
	return r
}
