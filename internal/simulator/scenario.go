package simulator

import (
	"fmt"
	"strings"

	"healthsync/internal/health"
)

// Scenario 一组生命体征取值范围（闭区间）
type Scenario struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Expected     health.Status `json:"expected_status"`
	HeartRateMin int           `json:"heart_rate_min"`
	HeartRateMax int           `json:"heart_rate_max"`
	OxygenMin    int           `json:"oxygen_min"`
	OxygenMax    int           `json:"oxygen_max"`
}

// 内置场景名
const (
	ScenarioNormal   = "normal"
	ScenarioWarning  = "warning"
	ScenarioCritical = "critical"
)

// 范围保证在默认阈值下分类结果等于 Expected
var scenarios = []Scenario{
	{
		Name:         ScenarioNormal,
		Description:  "Normal Vitals: HR 70-80 BPM, O2 98-100%",
		Expected:     health.StatusNormal,
		HeartRateMin: 70, HeartRateMax: 80,
		OxygenMin: 98, OxygenMax: 100,
	},
	{
		Name:         ScenarioWarning,
		Description:  "Warning Range: HR 100-110 BPM, O2 92-94%",
		Expected:     health.StatusWarning,
		HeartRateMin: 100, HeartRateMax: 110,
		OxygenMin: 92, OxygenMax: 94,
	},
	{
		Name:         ScenarioCritical,
		Description:  "Critical Alert: HR 130+ BPM, O2 <90%",
		Expected:     health.StatusCritical,
		HeartRateMin: 130, HeartRateMax: 150,
		OxygenMin: 84, OxygenMax: 89,
	},
}

// Scenarios 内置场景列表（副本）
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// Lookup 按名字查找场景（大小写不敏感）
func Lookup(name string) (Scenario, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q", name)
}
