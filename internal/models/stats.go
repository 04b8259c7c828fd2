package models

// APIStats 外部 API /stats 返回的汇总（集合为空时作为兜底）
type APIStats struct {
	TotalPatients       int      `json:"total_patients"`
	ActivePatients      int      `json:"active_patients"`
	CriticalAlertsToday int      `json:"critical_alerts_today"`
	UnresolvedAlerts    int      `json:"unresolved_alerts"`
	AvgHeartRateToday   *float64 `json:"avg_heart_rate_today,omitempty"`
	AvgOxygenLevelToday *float64 `json:"avg_oxygen_level_today,omitempty"`
}
