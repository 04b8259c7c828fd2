package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"healthsync/internal/health"
	"healthsync/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func TestScenariosClassifyAsExpected(t *testing.T) {
	gen := NewGenerator(42)
	for _, sc := range Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				r := gen.Reading("P-1", sc)
				require.NotNil(t, r.HeartRate)
				require.NotNil(t, r.OxygenLevel)
				assert.GreaterOrEqual(t, *r.HeartRate, sc.HeartRateMin)
				assert.LessOrEqual(t, *r.HeartRate, sc.HeartRateMax)
				assert.GreaterOrEqual(t, *r.OxygenLevel, sc.OxygenMin)
				assert.LessOrEqual(t, *r.OxygenLevel, sc.OxygenMax)
				assert.Equal(t, sc.Expected, health.Classify(r.HeartRate, r.OxygenLevel))
			}
		})
	}
}

func TestScenarioBoundsClassify(t *testing.T) {
	for _, sc := range Scenarios() {
		for _, hr := range []int{sc.HeartRateMin, sc.HeartRateMax} {
			for _, o2 := range []int{sc.OxygenMin, sc.OxygenMax} {
				hr, o2 := hr, o2
				assert.Equal(t, sc.Expected, health.Classify(&hr, &o2), "%s hr=%d o2=%d", sc.Name, hr, o2)
			}
		}
	}
}

func TestLookup(t *testing.T) {
	sc, err := Lookup(" Critical ")
	require.NoError(t, err)
	assert.Equal(t, ScenarioCritical, sc.Name)

	_, err = Lookup("panic")
	assert.Error(t, err)
}

func TestGenerator_ReadingFields(t *testing.T) {
	gen := NewGenerator(1)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return at }

	sc, _ := Lookup(ScenarioNormal)
	a := gen.Reading("P-9", sc)
	b := gen.Reading("P-9", sc)
	assert.Equal(t, "P-9", a.PatientID)
	assert.Equal(t, ScenarioNormal, a.Scenario)
	assert.Equal(t, at, a.Timestamp)
	assert.NotEmpty(t, a.ReadingID)
	assert.NotEqual(t, a.ReadingID, b.ReadingID)
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(topic string, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestMQTTSink(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewMQTTSink(pub, func(id string) string { return "healthsync/telemetry/" + id })

	hr := 72
	require.NoError(t, sink.Send(context.Background(), models.TelemetryReading{PatientID: "P-1", HeartRate: &hr}))
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "healthsync/telemetry/P-1", pub.topics[0])

	var got models.TelemetryReading
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, 72, *got.HeartRate)
	assert.Equal(t, SinkMQTT, sink.Name())
}

func TestStreamSink(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sink := NewStreamSink(rdb, "healthsync:telemetry", 100)
	hr := 130
	require.NoError(t, sink.Send(context.Background(), models.TelemetryReading{PatientID: "P-1", HeartRate: &hr}))

	msgs, err := rdb.XRange(context.Background(), "healthsync:telemetry", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var got models.TelemetryReading
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, "P-1", got.PatientID)
	assert.Equal(t, 130, *got.HeartRate)
}

func TestSimulator_EmitCombinesSinkErrors(t *testing.T) {
	var httpCalls int
	ok := NewFuncSink(SinkHTTP, func(ctx context.Context, r models.TelemetryReading) error {
		httpCalls++
		return nil
	})
	bad := NewMQTTSink(&recordingPublisher{err: errors.New("broker down")}, func(id string) string { return id })
	bad2 := NewFuncSink("other", func(ctx context.Context, r models.TelemetryReading) error {
		return errors.New("rejected")
	})

	sim := NewSimulator(NewGenerator(7), []Sink{ok, bad, bad2}, zap.NewNop())
	sc, _ := Lookup(ScenarioWarning)

	r, err := sim.Emit(context.Background(), "P-3", sc)
	require.Error(t, err)
	assert.Equal(t, "P-3", r.PatientID)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "mqtt: broker down")
	assert.Contains(t, err.Error(), "other: rejected")
	assert.Equal(t, 1, httpCalls)

	st := sim.Stats()
	assert.Equal(t, 1, st.Sent)
	assert.Equal(t, 2, st.Failed)
	assert.InDelta(t, 33.3, st.SuccessRate, 0.001)
	assert.Equal(t, "rejected", st.LastError)
	require.NotNil(t, st.LastSentAt)

	sim.ResetStats()
	assert.Equal(t, StatsSnapshot{}, sim.Stats())
}

func TestSimulator_NoSinks(t *testing.T) {
	sim := NewSimulator(NewGenerator(1), nil, zap.NewNop())
	_, err := sim.Emit(context.Background(), "P-1", Scenarios()[0])
	assert.True(t, errors.Is(err, ErrNoSinks))
}

func TestSimulator_RunCount(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	sink := NewFuncSink("count", func(ctx context.Context, r models.TelemetryReading) error {
		mu.Lock()
		seen[r.PatientID]++
		mu.Unlock()
		return nil
	})
	sim := NewSimulator(NewGenerator(3), []Sink{sink}, zap.NewNop())
	sc, _ := Lookup(ScenarioNormal)

	err := sim.Run(context.Background(), RunOptions{
		PatientIDs: []string{"P-1", "P-2"},
		Scenario:   sc,
		Count:      3,
		Interval:   time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P-1": 3, "P-2": 3}, seen)
	assert.Equal(t, 6, sim.Stats().Sent)
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	sink := NewFuncSink("noop", func(ctx context.Context, r models.TelemetryReading) error { return nil })
	sim := NewSimulator(NewGenerator(3), []Sink{sink}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := sim.Run(ctx, RunOptions{PatientIDs: []string{"P-1"}, Scenario: Scenarios()[0], Interval: 5 * time.Millisecond})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Greater(t, sim.Stats().Sent, 0)
}

func TestSimulator_RunValidation(t *testing.T) {
	sim := NewSimulator(NewGenerator(3), nil, zap.NewNop())
	assert.Error(t, sim.Run(context.Background(), RunOptions{}))
	assert.Error(t, sim.Run(context.Background(), RunOptions{PatientIDs: []string{"P-1"}}))
}
