package simulator

import (
	"math/rand"
	"sync"
	"time"

	"healthsync/internal/models"

	"github.com/google/uuid"
)

// Generator 按场景生成读数；并发安全
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator seed 固定时结果可复现
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Reading 为患者生成一条读数
func (g *Generator) Reading(patientID string, s Scenario) models.TelemetryReading {
	g.mu.Lock()
	hr := g.between(s.HeartRateMin, s.HeartRateMax)
	o2 := g.between(s.OxygenMin, s.OxygenMax)
	g.mu.Unlock()

	return models.TelemetryReading{
		ReadingID:   uuid.New().String(),
		PatientID:   patientID,
		HeartRate:   &hr,
		OxygenLevel: &o2,
		Timestamp:   g.now().UTC(),
		Scenario:    s.Name,
	}
}

func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}
