package finance

import (
	"math"
	"time"
)

// Period types for a financial data row.
const (
	PeriodAnnual     = "annual"
	PeriodQuarter    = "quarterly"
	PeriodSemiAnnual = "semi_annual"
	PeriodUnknown    = "unknown"
)

// FinancialData is one normalized statement extracted from a filing.
// Monetary fields are yen; nil means the fact was not found.
type FinancialData struct {
	ID          int64
	DocID       string
	EdinetCode  *string
	PeriodType  string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	FiscalYear  *int

	NetSales         *float64
	OperatingIncome  *float64
	OrdinaryIncome   *float64
	NetIncome        *float64
	TotalAssets      *float64
	TotalLiabilities *float64
	NetAssets        *float64
	OperatingCF      *float64
	InvestingCF      *float64
	FinancingCF      *float64

	OperatingMargin *float64
	NetMargin       *float64
	ROA             *float64
	EquityRatio     *float64

	DataCompleteness     float64
	ExtractionConfidence float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FreeCashflow returns OCF+ICF, or nil when either leg is missing.
func (f *FinancialData) FreeCashflow() *float64 {
	if f.OperatingCF == nil || f.InvestingCF == nil {
		return nil
	}
	fcf := *f.OperatingCF + *f.InvestingCF
	return &fcf
}

// RecomputeRatios derives the percentage ratios from the raw fields.
// A ratio whose divisor is missing or non-positive stays nil.
func (f *FinancialData) RecomputeRatios() {
	f.OperatingMargin = pctRatio(f.OperatingIncome, f.NetSales)
	f.NetMargin = pctRatio(f.NetIncome, f.NetSales)
	f.ROA = pctRatio(f.NetIncome, f.TotalAssets)
	f.EquityRatio = pctRatio(f.NetAssets, f.TotalAssets)
}

// RecomputeCompleteness sets DataCompleteness to the populated share of the
// ten raw statement fields, rounded to three decimals.
func (f *FinancialData) RecomputeCompleteness() {
	fields := []*float64{
		f.NetSales, f.OperatingIncome, f.OrdinaryIncome, f.NetIncome,
		f.TotalAssets, f.TotalLiabilities, f.NetAssets,
		f.OperatingCF, f.InvestingCF, f.FinancingCF,
	}
	populated := 0
	for _, v := range fields {
		if v != nil {
			populated++
		}
	}
	f.DataCompleteness = math.Round(float64(populated)/float64(len(fields))*1000) / 1000
}

func pctRatio(numer, denom *float64) *float64 {
	if numer == nil || denom == nil || *denom <= 0 {
		return nil
	}
	v := math.Round(*numer / *denom * 100 * 100) / 100
	return &v
}
