package finance

import "math"

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Cashflow pattern labels, classified from the signs of operating,
// investing and financing cashflow.
const (
	PatternIdeal         = "ideal"
	PatternGrowth        = "growth"
	PatternMature        = "mature"
	PatternRecovery      = "recovery"
	PatternEarly         = "early_expansion"
	PatternDistressed    = "distressed"
	PatternRestructuring = "restructuring"
	PatternCritical      = "critical"
	PatternUnknown       = "unknown"
)

var patternDescriptions = map[string]string{
	PatternIdeal:         "本業で稼ぎ、投資を行い、株主還元や返済を進める理想型",
	PatternGrowth:        "本業の収益を投資に回しつつ外部調達も活用する成長型",
	PatternMature:        "投資回収と外部返済が並行する成熟型",
	PatternRecovery:      "資産売却と調達の両面で資金を確保する立て直し型",
	PatternEarly:         "先行投資を外部調達で賄う拡大初期型",
	PatternDistressed:    "本業の資金流出を資産売却と借入で補う警戒型",
	PatternRestructuring: "資産売却で本業の流出を補う再構築型",
	PatternCritical:      "全区分で資金が流出する危機型",
	PatternUnknown:       "判定不能",
}

// ScoreComponent is one weighted contribution to the health score.
type ScoreComponent struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"` // [0, 1]
	Weight float64 `json:"weight"`
}

// Assessment is the financial diagnosis for one statement.
type Assessment struct {
	HealthScore        *float64         `json:"health_score"`
	Components         []ScoreComponent `json:"components"`
	CashflowPattern    string           `json:"cashflow_pattern"`
	PatternDescription string           `json:"pattern_description"`
	RiskLevel          string           `json:"risk_level"`
	DataCompleteness   float64          `json:"data_completeness"`
}

// Assess computes the health score, cashflow pattern and risk level for
// a financial data row. Components whose inputs are missing drop out and
// the remaining weights are renormalized.
func Assess(f *FinancialData) *Assessment {
	a := &Assessment{DataCompleteness: f.DataCompleteness}

	if pts, ok := ocfPoints(f); ok {
		a.Components = append(a.Components, ScoreComponent{"operating_cashflow", pts, 0.35})
	}
	if pts, ok := fcfPoints(f); ok {
		a.Components = append(a.Components, ScoreComponent{"free_cashflow", pts, 0.25})
	}
	if f.EquityRatio != nil {
		a.Components = append(a.Components, ScoreComponent{"equity_ratio", bandPoints(*f.EquityRatio, 50, 40, 30, 20), 0.15})
	}
	if pts, ok := marginPoints(f); ok {
		a.Components = append(a.Components, ScoreComponent{"margins", pts, 0.15})
	}
	if f.ROA != nil {
		a.Components = append(a.Components, ScoreComponent{"roa", bandPoints(*f.ROA, 8, 5, 2, 0), 0.10})
	}

	var sum, weight float64
	for _, c := range a.Components {
		sum += c.Points * c.Weight
		weight += c.Weight
	}
	if weight > 0 {
		score := math.Round(sum / weight * 100)
		a.HealthScore = &score
	}

	a.CashflowPattern = ClassifyCashflow(f.OperatingCF, f.InvestingCF, f.FinancingCF)
	a.PatternDescription = patternDescriptions[a.CashflowPattern]
	a.RiskLevel = riskLevel(a.HealthScore, a.CashflowPattern)
	return a
}

// ClassifyCashflow maps the sign triple of operating, investing and
// financing cashflow to a pattern label. A missing or zero leg yields
// unknown.
func ClassifyCashflow(ocf, icf, fcf *float64) string {
	so, ok1 := sign(ocf)
	si, ok2 := sign(icf)
	sf, ok3 := sign(fcf)
	if !ok1 || !ok2 || !ok3 {
		return PatternUnknown
	}
	switch {
	case so > 0 && si < 0 && sf < 0:
		return PatternIdeal
	case so > 0 && si < 0 && sf > 0:
		return PatternGrowth
	case so > 0 && si > 0 && sf < 0:
		return PatternMature
	case so > 0 && si > 0 && sf > 0:
		return PatternRecovery
	case so < 0 && si < 0 && sf > 0:
		return PatternEarly
	case so < 0 && si > 0 && sf > 0:
		return PatternDistressed
	case so < 0 && si > 0 && sf < 0:
		return PatternRestructuring
	case so < 0 && si < 0 && sf < 0:
		return PatternCritical
	default:
		return PatternUnknown
	}
}

func riskLevel(score *float64, pattern string) string {
	if pattern == PatternCritical || pattern == PatternDistressed {
		return RiskHigh
	}
	if score == nil {
		return RiskMedium
	}
	switch {
	case *score < 40:
		return RiskHigh
	case *score >= 70 && (pattern == PatternIdeal || pattern == PatternGrowth):
		return RiskLow
	default:
		return RiskMedium
	}
}

func sign(v *float64) (int, bool) {
	if v == nil {
		return 0, false
	}
	switch {
	case *v > 0:
		return 1, true
	case *v < 0:
		return -1, true
	default:
		return 0, true
	}
}

func ocfPoints(f *FinancialData) (float64, bool) {
	if f.OperatingCF == nil {
		return 0, false
	}
	switch {
	case *f.OperatingCF > 0:
		return 1.0, true
	case *f.OperatingCF == 0:
		return 0.4, true
	default:
		return 0, true
	}
}

func fcfPoints(f *FinancialData) (float64, bool) {
	fcf := f.FreeCashflow()
	if fcf == nil {
		return 0, false
	}
	switch {
	case *fcf > 0:
		pts := 0.8
		if f.NetSales != nil && *f.NetSales > 0 {
			ratio := *fcf / *f.NetSales
			pts = 0.7 + 0.3*math.Min(ratio/0.10, 1)
		}
		return pts, true
	case *fcf == 0:
		return 0.5, true
	default:
		return 0.2, true
	}
}

func marginPoints(f *FinancialData) (float64, bool) {
	var pts []float64
	if f.OperatingMargin != nil {
		pts = append(pts, bandPoints(*f.OperatingMargin, 10, 5, 2, 0))
	}
	if f.NetMargin != nil {
		pts = append(pts, bandPoints(*f.NetMargin, 8, 4, 1, 0))
	}
	if len(pts) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, p := range pts {
		sum += p
	}
	return sum / float64(len(pts)), true
}

// bandPoints grades a percentage against four descending thresholds.
func bandPoints(v float64, excellent, good, fair, weak float64) float64 {
	switch {
	case v >= excellent:
		return 1.0
	case v >= good:
		return 0.8
	case v >= fair:
		return 0.6
	case v >= weak:
		return 0.4
	default:
		return 0
	}
}
