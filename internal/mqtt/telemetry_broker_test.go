package mqtt

import (
	"errors"
	"testing"

	"healthsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingApplier struct {
	readings []models.TelemetryReading
	known    map[string]bool
}

func (a *recordingApplier) ApplyTelemetry(r models.TelemetryReading) bool {
	a.readings = append(a.readings, r)
	return a.known[r.PatientID]
}

func TestHandleMessage(t *testing.T) {
	applier := &recordingApplier{known: map[string]bool{"P-1": true}}
	b := NewTelemetryBroker(applier, zap.NewNop())

	require.NoError(t, b.HandleMessage("healthsync/telemetry/P-1", []byte(`{"heart_rate":72,"oxygen_level":98}`)))
	require.Len(t, applier.readings, 1)
	assert.Equal(t, "P-1", applier.readings[0].PatientID)
	assert.Equal(t, 72, *applier.readings[0].HeartRate)

	// 消息体里的 patient_id 优先
	require.NoError(t, b.HandleMessage("healthsync/telemetry/P-1", []byte(`{"patient_id":"P-2","heart_rate":0}`)))
	assert.Equal(t, "P-2", applier.readings[1].PatientID)
	assert.Nil(t, applier.readings[1].HeartRate)

	err := b.HandleMessage("healthsync/telemetry/P-1", []byte(`{bad`))
	assert.True(t, errors.Is(err, models.ErrInvalidTelemetry))
	assert.Len(t, applier.readings, 2)

	// 超出范围的读数不写入快照
	err = b.HandleMessage("healthsync/telemetry/P-1", []byte(`{"heart_rate":80,"oxygen_level":140}`))
	assert.True(t, errors.Is(err, models.ErrInvalidTelemetry))
	assert.Len(t, applier.readings, 2)
}

func TestPatientFromTopic(t *testing.T) {
	assert.Equal(t, "P-7", patientFromTopic("healthsync/telemetry/P-7"))
	assert.Equal(t, "", patientFromTopic("healthsync/telemetry/"))
	assert.Equal(t, "", patientFromTopic("plain"))
}
