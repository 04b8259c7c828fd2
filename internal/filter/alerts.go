package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"healthsync/internal/models"
)

// ResolvedState 按处理状态过滤
type ResolvedState string

const (
	ResolvedAll        ResolvedState = "all"
	ResolvedOnly       ResolvedState = "resolved"
	ResolvedUnresolved ResolvedState = "unresolved"
)

// SortKey 报警排序方式
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortSeverity SortKey = "severity"
	SortPatient  SortKey = "patient"
)

// DateLayout 分组键格式
const DateLayout = "2006-01-02"

// AlertFilter 报警过滤条件，零值表示不过滤；各条件之间为 AND
type AlertFilter struct {
	Severity    models.SeverityLevel // "" = all
	Resolved    ResolvedState        // "" / all
	PatientName string               // "" = all，精确匹配
	Search      string               // 对患者名 / 问题 / 消息做不区分大小写的子串匹配
}

// ParseResolvedState 解析处理状态参数
func ParseResolvedState(s string) (ResolvedState, error) {
	switch ResolvedState(strings.ToLower(strings.TrimSpace(s))) {
	case "", ResolvedAll:
		return ResolvedAll, nil
	case ResolvedOnly:
		return ResolvedOnly, nil
	case ResolvedUnresolved:
		return ResolvedUnresolved, nil
	}
	return "", fmt.Errorf("unknown resolved state: %q", s)
}

// ParseSortKey 解析排序参数，空值默认 newest
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortSeverity:
		return SortSeverity, nil
	case SortPatient:
		return SortPatient, nil
	}
	return "", fmt.Errorf("unknown sort key: %q", s)
}

// Match 判断单条报警是否满足条件
func (f AlertFilter) Match(a models.Alert) bool {
	if f.Severity != "" && a.SeverityLevel != f.Severity {
		return false
	}
	switch f.Resolved {
	case ResolvedOnly:
		if !a.Resolved {
			return false
		}
	case ResolvedUnresolved:
		if a.Resolved {
			return false
		}
	}
	if f.PatientName != "" && a.PatientName != f.PatientName {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !containsFold(a.PatientName, term) &&
			!containsFold(a.IssueDetected, term) &&
			!containsFold(a.Message, term) {
			return false
		}
	}
	return true
}

// FilterAlerts 返回满足条件的子集（保持输入顺序，不修改输入）
func FilterAlerts(alerts []models.Alert, f AlertFilter) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// SortAlerts 稳定排序，返回新切片
func SortAlerts(alerts []models.Alert, key SortKey) []models.Alert {
	out := make([]models.Alert, len(alerts))
	copy(out, alerts)

	var less func(i, j int) bool
	switch key {
	case SortOldest:
		less = func(i, j int) bool { return out[i].Datetime.Before(out[j].Datetime) }
	case SortSeverity:
		less = func(i, j int) bool { return out[i].SeverityLevel.Rank() > out[j].SeverityLevel.Rank() }
	case SortPatient:
		less = func(i, j int) bool {
			return strings.ToLower(out[i].PatientName) < strings.ToLower(out[j].PatientName)
		}
	case SortNewest:
		less = func(i, j int) bool { return out[i].Datetime.After(out[j].Datetime) }
	default:
		return out
	}

	sort.SliceStable(out, less)
	return out
}

// DateGroup 某一天的报警（时间线视图）
type DateGroup struct {
	Date   string         `json:"date"`
	Alerts []models.Alert `json:"alerts"`
}

// GroupByDate 按 loc 时区的日历日期分组，组内保持输入顺序
func GroupByDate(alerts []models.Alert, loc *time.Location) map[string][]models.Alert {
	groups := make(map[string][]models.Alert)
	for _, a := range alerts {
		key := dateKey(a.Datetime, loc)
		groups[key] = append(groups[key], a)
	}
	return groups
}

// DateGroups 与 GroupByDate 相同的划分，按日期首次出现的顺序返回
func DateGroups(alerts []models.Alert, loc *time.Location) []DateGroup {
	index := make(map[string]int)
	var groups []DateGroup
	for _, a := range alerts {
		key := dateKey(a.Datetime, loc)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Date: key})
		}
		groups[i].Alerts = append(groups[i].Alerts, a)
	}
	return groups
}

// UniquePatientNames 报警中出现过的患者名（去重、升序），用于患者下拉框
func UniquePatientNames(alerts []models.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	names := make([]string, 0)
	for _, a := range alerts {
		if _, ok := seen[a.PatientName]; ok {
			continue
		}
		seen[a.PatientName] = struct{}{}
		names = append(names, a.PatientName)
	}
	sort.Strings(names)
	return names
}

func dateKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// containsFold term 需已转小写
func containsFold(s, term string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), term)
}
