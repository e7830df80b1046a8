package extract

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
)

// FinancialFacts holds yen-denominated values pulled from an XBRL instance.
// A nil field means the concept was not confidently extracted.
type FinancialFacts struct {
	NetSales         *float64 `json:"netSales,omitempty"`
	OperatingIncome  *float64 `json:"operatingIncome,omitempty"`
	OrdinaryIncome   *float64 `json:"ordinaryIncome,omitempty"`
	NetIncome        *float64 `json:"netIncome,omitempty"`
	TotalAssets      *float64 `json:"totalAssets,omitempty"`
	TotalLiabilities *float64 `json:"totalLiabilities,omitempty"`
	NetAssets        *float64 `json:"netAssets,omitempty"`
	OperatingCF      *float64 `json:"operatingCf,omitempty"`
	InvestingCF      *float64 `json:"investingCf,omitempty"`
	FinancingCF      *float64 `json:"financingCf,omitempty"`
}

// IsEmpty reports whether no fact was extracted at all.
func (f FinancialFacts) IsEmpty() bool {
	return f.NetSales == nil && f.OperatingIncome == nil && f.OrdinaryIncome == nil &&
		f.NetIncome == nil && f.TotalAssets == nil && f.TotalLiabilities == nil &&
		f.NetAssets == nil && f.OperatingCF == nil && f.InvestingCF == nil && f.FinancingCF == nil
}

// FieldCount returns how many of the ten concepts were extracted.
func (f FinancialFacts) FieldCount() int {
	count := 0
	for _, v := range []*float64{
		f.NetSales, f.OperatingIncome, f.OrdinaryIncome, f.NetIncome,
		f.TotalAssets, f.TotalLiabilities, f.NetAssets,
		f.OperatingCF, f.InvestingCF, f.FinancingCF,
	} {
		if v != nil {
			count++
		}
	}
	return count
}

// conceptPatterns lists candidate element local names for each concept,
// covering both English XBRL concepts and Japanese labels. Exact names are
// tried before substring fallbacks.
type conceptPattern struct {
	exact    []string
	contains []string
}

var conceptPatterns = map[string]conceptPattern{
	"operating_cf": {
		exact:    []string{"NetCashProvidedByUsedInOperatingActivities", "CashFlowsFromUsedInOperatingActivities"},
		contains: []string{"OperatingActivities", "営業活動によるキャッシュ"},
	},
	"investing_cf": {
		exact:    []string{"NetCashProvidedByUsedInInvestingActivities", "CashFlowsFromUsedInInvestingActivities"},
		contains: []string{"InvestingActivities", "投資活動によるキャッシュ"},
	},
	"financing_cf": {
		exact:    []string{"NetCashProvidedByUsedInFinancingActivities", "CashFlowsFromUsedInFinancingActivities"},
		contains: []string{"FinancingActivities", "財務活動によるキャッシュ"},
	},
	"net_sales": {
		exact:    []string{"NetSales", "Revenue", "OperatingRevenue1", "OperatingRevenues", "NetSalesSummaryOfBusinessResults"},
		contains: []string{"売上高", "営業収益"},
	},
	"operating_income": {
		exact:    []string{"OperatingIncome", "OperatingProfit", "OperatingProfitLoss"},
		contains: []string{"営業利益", "営業損失"},
	},
	"ordinary_income": {
		exact:    []string{"OrdinaryIncome", "OrdinaryProfit", "OrdinaryProfitLoss", "OrdinaryIncomeLossSummaryOfBusinessResults"},
		contains: []string{"経常利益", "経常損失"},
	},
	"net_income": {
		exact:    []string{"ProfitLossAttributableToOwnersOfParent", "ProfitLoss", "NetIncomeLoss", "NetIncomeLossSummaryOfBusinessResults"},
		contains: []string{"当期純利益", "当期純損失"},
	},
	"total_assets": {
		exact:    []string{"Assets", "TotalAssets", "TotalAssetsSummaryOfBusinessResults"},
		contains: []string{"資産合計", "総資産"},
	},
	"total_liabilities": {
		exact:    []string{"Liabilities", "TotalLiabilities"},
		contains: []string{"負債合計"},
	},
	"net_assets": {
		exact:    []string{"NetAssets", "Equity", "TotalNetAssets", "NetAssetsSummaryOfBusinessResults"},
		contains: []string{"純資産合計", "純資産額"},
	},
}

// candidate is one numeric fact matched for a concept.
type candidate struct {
	value float64
}

// factAccumulator collects matched candidates per concept while scanning
// instance documents. Among candidates the one with the largest absolute
// value wins: primary-statement disclosures dominate note fragments.
type factAccumulator struct {
	byConcept map[string][]candidate
}

func newFactAccumulator() *factAccumulator {
	return &factAccumulator{byConcept: make(map[string][]candidate)}
}

func (a *factAccumulator) add(concept string, value float64) {
	a.byConcept[concept] = append(a.byConcept[concept], candidate{value: value})
}

func (a *factAccumulator) facts() FinancialFacts {
	var f FinancialFacts
	assign := func(concept string, target **float64) {
		list := a.byConcept[concept]
		if len(list) == 0 {
			return
		}
		best := list[0].value
		for _, c := range list[1:] {
			if math.Abs(c.value) > math.Abs(best) {
				best = c.value
			}
		}
		*target = &best
	}
	assign("net_sales", &f.NetSales)
	assign("operating_income", &f.OperatingIncome)
	assign("ordinary_income", &f.OrdinaryIncome)
	assign("net_income", &f.NetIncome)
	assign("total_assets", &f.TotalAssets)
	assign("total_liabilities", &f.TotalLiabilities)
	assign("net_assets", &f.NetAssets)
	assign("operating_cf", &f.OperatingCF)
	assign("investing_cf", &f.InvestingCF)
	assign("financing_cf", &f.FinancingCF)
	return f
}

// matchConcept maps an element local name to a concept key, or "".
func matchConcept(localName string) string {
	for concept, pattern := range conceptPatterns {
		for _, exact := range pattern.exact {
			if localName == exact {
				return concept
			}
		}
	}
	for concept, pattern := range conceptPatterns {
		for _, substr := range pattern.contains {
			if strings.Contains(localName, substr) {
				return concept
			}
		}
	}
	return ""
}

// scanFacts walks one XBRL/XML document and registers numeric facts.
// Sign and scale semantics: leading △/▲ negate; a negative decimals
// attribute scales by 10^|decimals|. The decimals rule wins over any
// display-unit phrase found elsewhere in the document.
func scanFacts(content string, acc *factAccumulator, period *PeriodInfo) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = false

	type openFact struct {
		concept  string
		decimals string
		text     strings.Builder
	}
	var stack []*openFact
	var contextElem string

	for {
		tok, err := decoder.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			switch local {
			case "startDate", "endDate", "instant":
				contextElem = local
				continue
			}
			concept := matchConcept(local)
			if concept == "" {
				stack = append(stack, nil)
				continue
			}
			fact := &openFact{concept: concept}
			for _, attr := range t.Attr {
				if attr.Name.Local == "decimals" {
					fact.decimals = attr.Value
				}
				if attr.Name.Local == "nil" && attr.Value == "true" {
					fact = nil
					break
				}
			}
			stack = append(stack, fact)
		case xml.CharData:
			text := string(t)
			if contextElem != "" {
				period.observe(contextElem, strings.TrimSpace(text))
				continue
			}
			if len(stack) > 0 {
				if fact := stack[len(stack)-1]; fact != nil {
					fact.text.WriteString(text)
				}
			}
		case xml.EndElement:
			if t.Name.Local == contextElem {
				contextElem = ""
				continue
			}
			if len(stack) == 0 {
				continue
			}
			fact := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if fact == nil {
				continue
			}
			value, ok := parseFactValue(fact.text.String(), fact.decimals)
			if !ok {
				continue
			}
			acc.add(fact.concept, value)
		}
	}
}

// parseFactValue converts the textual numeral to yen, applying the decimals
// scale when negative. Malformed numerals are ignored.
func parseFactValue(raw, decimals string) (float64, bool) {
	normalized, ok := normalizeNumeral(raw)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	if decimals != "" {
		if d, err := strconv.Atoi(decimals); err == nil && d < 0 {
			value *= math.Pow10(-d)
		}
	}
	return value, true
}
