package aggregator

import (
	"math"

	"healthsync/internal/health"
	"healthsync/internal/models"
)

// PatientStats 患者汇总
type PatientStats struct {
	Total          int      `json:"total"`
	Online         int      `json:"online"`
	Offline        int      `json:"offline"`
	Critical       int      `json:"critical"`
	Warning        int      `json:"warning"`
	Normal         int      `json:"normal"`
	NoData         int      `json:"no_data"`
	AvgHeartRate   *float64 `json:"avg_heart_rate,omitempty"`
	AvgOxygenLevel *float64 `json:"avg_oxygen_level,omitempty"`
}

// SummarizePatients 统计在线状态、健康状态分布和平均读数
// 平均值只计入有读数的患者，没有任何读数时为 nil
func SummarizePatients(patients []models.Patient, th health.Thresholds) PatientStats {
	s := PatientStats{Total: len(patients)}

	var hrSum, o2Sum, hrN, o2N int
	for _, p := range patients {
		if p.IsOnline() {
			s.Online++
		} else {
			s.Offline++
		}

		switch th.ClassifyPatient(p) {
		case health.StatusCritical:
			s.Critical++
		case health.StatusWarning:
			s.Warning++
		case health.StatusNormal:
			s.Normal++
		default:
			s.NoData++
		}

		if p.HeartRate != nil {
			hrSum += *p.HeartRate
			hrN++
		}
		if p.OxygenLevel != nil {
			o2Sum += *p.OxygenLevel
			o2N++
		}
	}

	s.AvgHeartRate = average(hrSum, hrN)
	s.AvgOxygenLevel = average(o2Sum, o2N)
	return s
}

// average 保留一位小数
func average(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := math.Round(float64(sum)/float64(n)*10) / 10
	return &v
}
