package aggregator

import (
	"math"
	"time"

	"healthsync/internal/models"
)

// AlertStats 报警汇总
type AlertStats struct {
	Total          int `json:"total"`
	Critical       int `json:"critical"` // severity = high
	Unresolved     int `json:"unresolved"`
	Resolved       int `json:"resolved"`
	Today          int `json:"today"`
	Last24h        int `json:"last_24h"`
	ResolutionRate int `json:"resolution_rate"` // 百分比，四舍五入
}

// SummarizeAlerts 汇总报警列表
// today 按 now.Location() 的日历日计算；last24h 为 datetime >= now-24h
func SummarizeAlerts(alerts []models.Alert, now time.Time) AlertStats {
	var s AlertStats
	s.Total = len(alerts)

	loc := now.Location()
	ny, nm, nd := now.Date()
	cutoff := now.Add(-24 * time.Hour)

	for _, a := range alerts {
		if a.SeverityLevel == models.SeverityHigh {
			s.Critical++
		}
		if a.Resolved {
			s.Resolved++
		} else {
			s.Unresolved++
		}
		y, m, d := a.Datetime.In(loc).Date()
		if y == ny && m == nm && d == nd {
			s.Today++
		}
		if !a.Datetime.Before(cutoff) {
			s.Last24h++
		}
	}

	denom := s.Total
	if denom < 1 {
		denom = 1
	}
	s.ResolutionRate = int(math.Round(float64(s.Resolved) / float64(denom) * 100))
	return s
}
