package health

import "healthsync/internal/models"

// Status 由生命体征推导出的健康状态（不存储）
type Status string

const (
	StatusCritical Status = "critical"
	StatusWarning  Status = "warning"
	StatusNormal   Status = "normal"
	StatusNoData   Status = "no-data"
)

// Thresholds 心率 / 血氧阈值表，所有视图共用同一份
type Thresholds struct {
	CriticalHeartRateHigh int `json:"critical_heart_rate_high"`
	CriticalHeartRateLow  int `json:"critical_heart_rate_low"`
	CriticalOxygenLow     int `json:"critical_oxygen_low"`
	WarningHeartRateHigh  int `json:"warning_heart_rate_high"`
	WarningHeartRateLow   int `json:"warning_heart_rate_low"`
	WarningOxygenLow      int `json:"warning_oxygen_low"`
}

// DefaultThresholds 默认阈值：HR >120 / <50、SpO2 <90 为危急；HR >100 / <60、SpO2 <95 为警告
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalHeartRateHigh: 120,
		CriticalHeartRateLow:  50,
		CriticalOxygenLow:     90,
		WarningHeartRateHigh:  100,
		WarningHeartRateLow:   60,
		WarningOxygenLow:      95,
	}
}

// Classify 使用默认阈值分类
func Classify(heartRate, oxygenLevel *int) Status {
	return DefaultThresholds().Classify(heartRate, oxygenLevel)
}

// Classify 按优先级判定：无数据 > 危急 > 警告 > 正常
// nil 读数不参与比较
func (t Thresholds) Classify(heartRate, oxygenLevel *int) Status {
	if heartRate == nil && oxygenLevel == nil {
		return StatusNoData
	}
	if outside(heartRate, t.CriticalHeartRateLow, t.CriticalHeartRateHigh) || below(oxygenLevel, t.CriticalOxygenLow) {
		return StatusCritical
	}
	if outside(heartRate, t.WarningHeartRateLow, t.WarningHeartRateHigh) || below(oxygenLevel, t.WarningOxygenLow) {
		return StatusWarning
	}
	return StatusNormal
}

// ClassifyPatient 对患者当前读数分类
func (t Thresholds) ClassifyPatient(p models.Patient) Status {
	return t.Classify(p.HeartRate, p.OxygenLevel)
}

func outside(v *int, low, high int) bool {
	return v != nil && (*v > high || *v < low)
}

func below(v *int, min int) bool {
	return v != nil && *v < min
}
