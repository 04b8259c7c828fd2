package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL, time.Second, zap.NewNop())
}

func TestListPatients_NormalizesAtBoundary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/patients", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"patient_id": 7, "name": "Maria", "age": 61, "gender": "F", "connection_status": "online",
			 "heart_rate": 0.4, "oxygen_level": 97.6, "last_reading": "2024-03-10 09:30:00"},
			{"patient_id": "P-2", "name": "John", "age": 45, "gender": "M", "connection_status": "CONNECTING",
			 "medical_conditions": null, "heart_rate": 0}
		]`)
	})

	patients, err := c.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 2)

	p := patients[0]
	assert.Equal(t, "7", p.PatientID)
	assert.Equal(t, models.ConnectionOnline, p.ConnectionStatus)
	assert.Nil(t, p.HeartRate)
	require.NotNil(t, p.OxygenLevel)
	assert.Equal(t, 98, *p.OxygenLevel)
	require.NotNil(t, p.LastReading)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), *p.LastReading)

	assert.Equal(t, models.ConnectionOffline, patients[1].ConnectionStatus)
	assert.Empty(t, patients[1].MedicalConditions)
	assert.Nil(t, patients[1].HeartRate)
}

func TestListPatients_Envelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [{"patient_id": "P-1", "name": "A"}]}`)
	})

	patients, err := c.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "P-1", patients[0].PatientID)
}

func TestListAlerts_SkipsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"alerts": [
			{"alert_id": 1, "patient_id": 7, "patient_name": "Maria", "severity_level": "HIGH",
			 "issue_detected": "Tachycardia", "datetime": "2024-03-10T09:30:00Z", "resolved": 0},
			{"alert_id": 2, "datetime": "yesterday"},
			{"alert_id": 3, "severity_level": "low", "datetime": "2024-03-09T08:00:00", "resolved": "true"}
		]}`)
	})

	alerts, err := c.ListAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "1", alerts[0].AlertID)
	assert.Equal(t, models.SeverityHigh, alerts[0].SeverityLevel)
	assert.False(t, alerts[0].Resolved)
	assert.Equal(t, "3", alerts[1].AlertID)
	assert.True(t, alerts[1].Resolved)
}

func TestGetStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_patients": 5, "active_patients": 4, "avg_heart_rate_today": 0, "avg_oxygen_level_today": 97.5}`)
	})

	s, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, s.TotalPatients)
	assert.Nil(t, s.AvgHeartRateToday)
	require.NotNil(t, s.AvgOxygenLevelToday)
	assert.Equal(t, 97.5, *s.AvgOxygenLevelToday)
}

func TestAPIError_MessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail": "Patient not found"}`, "Patient not found"},
		{"message", `{"message": "bad input"}`, "bad input"},
		{"error", `{"error": "boom"}`, "boom"},
		{"validation list", `{"detail": [{"msg": "field required"}, {"msg": "too old"}]}`, "field required; too old"},
		{"plain text", `upstream down`, "upstream down"},
		{"empty", ``, "Not Found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, tc.body)
			})

			err := c.DeletePatient(context.Background(), "P-9")
			require.Error(t, err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestWriteOperations_Paths(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	var lastBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		lastBody = nil
		_ = json.NewDecoder(r.Body).Decode(&lastBody)
		if r.Method == http.MethodPost && r.URL.Path == "/patients" {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"patient_id": 11, "name": "New", "connection_status": "offline"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	p, err := c.CreatePatient(ctx, models.PatientInput{Name: "New", Age: 30})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "11", p.PatientID)

	p, err = c.UpdatePatient(ctx, "11", models.PatientInput{Name: "Renamed", Age: 31})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, "Renamed", lastBody["name"])

	require.NoError(t, c.ResolveAlert(ctx, "a-1"))
	require.NoError(t, c.DeletePatient(ctx, "11"))

	hr := 72
	require.NoError(t, c.SubmitTelemetry(ctx, models.TelemetryReading{
		PatientID: "11",
		HeartRate: &hr,
		Timestamp: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}))
	assert.Equal(t, "2024-03-10T09:00:00Z", lastBody["timestamp"])
	assert.NotContains(t, lastBody, "oxygen_level")

	assert.Equal(t, []call{
		{http.MethodPost, "/patients"},
		{http.MethodPut, "/patients/11"},
		{http.MethodPut, "/alerts/a-1/resolve"},
		{http.MethodDelete, "/patients/11"},
		{http.MethodPost, "/telemetry"},
	}, calls)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewAPIClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ListPatients(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	c.httpClient.SetTimeout(50 * time.Millisecond)

	_, err := c.ListAlerts(context.Background())
	assert.Error(t, err)
}
