package aggregator

import (
	"time"

	"healthsync/internal/filter"
	"healthsync/internal/health"
	"healthsync/internal/models"
)

// RecentAlertLimit 概览中"最近活动"的条数
const RecentAlertLimit = 4

// 系统状态
const (
	SystemHealthy  = "healthy"
	SystemWarning  = "warning"
	SystemCritical = "critical"
)

// SystemHealth 概览页顶部的系统状态
type SystemHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// KPIs 概览卡片数值（集合为空时回退到 /stats）
type KPIs struct {
	TotalPatients    int      `json:"total_patients"`
	ActivePatients   int      `json:"active_patients"`
	CriticalPatients int      `json:"critical_patients"`
	UnresolvedAlerts int      `json:"unresolved_alerts"`
	AvgHeartRate     *float64 `json:"avg_heart_rate,omitempty"`
	AvgOxygenLevel   *float64 `json:"avg_oxygen_level,omitempty"`
}

// Overview 仪表盘概览
type Overview struct {
	KPIs         KPIs           `json:"kpis"`
	Patients     PatientStats   `json:"patients"`
	Alerts       AlertStats     `json:"alerts"`
	System       SystemHealth   `json:"system"`
	RecentAlerts []models.Alert `json:"recent_alerts"`
	ServerTime   time.Time      `json:"server_time"`
}

// EvaluateSystem 危急患者 >5 为 critical；>0 为 warning；在线率 <80% 为 warning；否则 healthy
func EvaluateSystem(k KPIs) SystemHealth {
	switch {
	case k.CriticalPatients > 5:
		return SystemHealth{Status: SystemCritical, Message: "Multiple critical alerts require attention"}
	case k.CriticalPatients > 0:
		return SystemHealth{Status: SystemWarning, Message: "Some patients require monitoring"}
	case k.ActivePatients*10 < k.TotalPatients*8:
		return SystemHealth{Status: SystemWarning, Message: "Some patients are offline"}
	}
	return SystemHealth{Status: SystemHealthy, Message: "All systems operational"}
}

// BuildOverview 组合患者、报警和 /stats 生成概览
// apiStats 可为 nil；只有对应集合为空时才使用其字段
func BuildOverview(patients []models.Patient, alerts []models.Alert, apiStats *models.APIStats, now time.Time, th health.Thresholds) Overview {
	ps := SummarizePatients(patients, th)
	as := SummarizeAlerts(alerts, now)

	k := KPIs{
		TotalPatients:    ps.Total,
		ActivePatients:   ps.Online,
		CriticalPatients: ps.Critical,
		UnresolvedAlerts: as.Unresolved,
		AvgHeartRate:     ps.AvgHeartRate,
		AvgOxygenLevel:   ps.AvgOxygenLevel,
	}
	if apiStats != nil {
		if len(patients) == 0 {
			k.TotalPatients = apiStats.TotalPatients
			k.ActivePatients = apiStats.ActivePatients
			k.CriticalPatients = apiStats.CriticalAlertsToday
		}
		if len(alerts) == 0 {
			k.UnresolvedAlerts = apiStats.UnresolvedAlerts
		}
		if k.AvgHeartRate == nil {
			k.AvgHeartRate = apiStats.AvgHeartRateToday
		}
		if k.AvgOxygenLevel == nil {
			k.AvgOxygenLevel = apiStats.AvgOxygenLevelToday
		}
	}

	recent := filter.SortAlerts(alerts, filter.SortNewest)
	if len(recent) > RecentAlertLimit {
		recent = recent[:RecentAlertLimit]
	}

	return Overview{
		KPIs:         k,
		Patients:     ps,
		Alerts:       as,
		System:       EvaluateSystem(k),
		RecentAlerts: recent,
		ServerTime:   now,
	}
}
