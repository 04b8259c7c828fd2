package simulator

import (
	"math"
	"sync"
	"time"
)

// Stats 发送统计；并发安全
type Stats struct {
	mu           sync.Mutex
	sent         int
	failed       int
	totalLatency time.Duration
	lastError    string
	lastSentAt   time.Time
}

// StatsSnapshot 对外展示的统计（测试中心 Analytics）
type StatsSnapshot struct {
	Sent         int        `json:"sent"`
	Failed       int        `json:"failed"`
	SuccessRate  float64    `json:"success_rate"` // 百分比，一位小数；无发送时为 0
	AvgLatencyMs float64    `json:"avg_latency_ms"`
	LastError    string     `json:"last_error,omitempty"`
	LastSentAt   *time.Time `json:"last_sent_at,omitempty"`
}

func (s *Stats) observe(latency time.Duration, at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed++
		s.lastError = err.Error()
		return
	}
	s.sent++
	s.totalLatency += latency
	s.lastSentAt = at
}

// Snapshot 当前统计
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StatsSnapshot{
		Sent:      s.sent,
		Failed:    s.failed,
		LastError: s.lastError,
	}
	if total := s.sent + s.failed; total > 0 {
		out.SuccessRate = math.Round(float64(s.sent)/float64(total)*1000) / 10
	}
	if s.sent > 0 {
		out.AvgLatencyMs = math.Round(float64(s.totalLatency.Microseconds())/float64(s.sent)) / 1000
	}
	if !s.lastSentAt.IsZero() {
		at := s.lastSentAt
		out.LastSentAt = &at
	}
	return out
}

// Reset 清零
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent, s.failed = 0, 0
	s.totalLatency = 0
	s.lastError = ""
	s.lastSentAt = time.Time{}
}
