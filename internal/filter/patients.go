package filter

import (
	"strings"

	"healthsync/internal/models"
)

// PatientFilter 患者过滤条件
type PatientFilter struct {
	Search string // 对姓名 / ID / 病史做不区分大小写的子串匹配
	Status string // "" / "all" / "online" / "offline"（大小写不敏感），其他值不匹配
}

// Match 判断患者是否满足条件
func (f PatientFilter) Match(p models.Patient) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !containsFold(p.Name, term) &&
			!containsFold(p.PatientID, term) &&
			!containsFold(p.MedicalConditions, term) {
			return false
		}
	}
	status := strings.TrimSpace(f.Status)
	switch {
	case status == "", strings.EqualFold(status, "all"):
	case strings.EqualFold(status, string(models.ConnectionOnline)),
		strings.EqualFold(status, string(models.ConnectionOffline)):
		if !strings.EqualFold(string(models.NormalizeConnectionStatus(string(p.ConnectionStatus))), status) {
			return false
		}
	default:
		// 未知状态不匹配任何患者
		return false
	}
	return true
}

// FilterPatients 返回满足条件的患者（保持输入顺序）
func FilterPatients(patients []models.Patient, f PatientFilter) []models.Patient {
	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
