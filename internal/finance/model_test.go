package finance

import (
	"context"
	"testing"
	"time"
)

func TestRecomputeRatios(t *testing.T) {
	f := &FinancialData{
		NetSales:        fp(1000),
		OperatingIncome: fp(83),
		NetIncome:       fp(47),
		TotalAssets:     fp(600),
		NetAssets:       fp(333),
	}
	f.RecomputeRatios()

	if f.OperatingMargin == nil || *f.OperatingMargin != 8.3 {
		t.Errorf("operating margin = %v, want 8.3", deref(f.OperatingMargin))
	}
	if f.NetMargin == nil || *f.NetMargin != 4.7 {
		t.Errorf("net margin = %v, want 4.7", deref(f.NetMargin))
	}
	if f.ROA == nil || *f.ROA != 7.83 {
		t.Errorf("roa = %v, want 7.83", deref(f.ROA))
	}
	if f.EquityRatio == nil || *f.EquityRatio != 55.5 {
		t.Errorf("equity ratio = %v, want 55.5", deref(f.EquityRatio))
	}
}

func TestRecomputeRatiosMissingDivisor(t *testing.T) {
	f := &FinancialData{OperatingIncome: fp(80), NetIncome: fp(50)}
	f.RecomputeRatios()
	if f.OperatingMargin != nil || f.NetMargin != nil || f.ROA != nil || f.EquityRatio != nil {
		t.Errorf("ratios should stay nil without divisors: %+v", f)
	}

	// zero sales must not divide
	f.NetSales = fp(0)
	f.RecomputeRatios()
	if f.OperatingMargin != nil {
		t.Errorf("operating margin = %v, want nil for zero sales", deref(f.OperatingMargin))
	}
}

func TestRecomputeCompleteness(t *testing.T) {
	f := &FinancialData{
		NetSales:    fp(1000),
		NetIncome:   fp(50),
		OperatingCF: fp(100),
	}
	f.RecomputeCompleteness()
	if f.DataCompleteness != 0.3 {
		t.Errorf("completeness = %v, want 0.3", f.DataCompleteness)
	}
}

func TestMemoryRepoUpsert(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	first := &FinancialData{
		DocID: "S100AAAA", PeriodType: PeriodAnnual,
		PeriodStart: &start, PeriodEnd: &end,
		NetSales: fp(1000),
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := &FinancialData{
		DocID: "S100AAAA", PeriodType: PeriodAnnual,
		PeriodStart: &start, PeriodEnd: &end,
		NetSales: fp(1200),
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created new row: ids %d vs %d", first.ID, second.ID)
	}

	rows, err := repo.GetByDocID(ctx, "S100AAAA")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].NetSales == nil || *rows[0].NetSales != 1200 {
		t.Errorf("net sales = %v, want updated 1200", deref(rows[0].NetSales))
	}
}

func TestMemoryRepoDistinctPeriods(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	end1 := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	end2 := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	for _, end := range []*time.Time{&end1, &end2} {
		err := repo.Upsert(ctx, &FinancialData{
			DocID: "S100BBBB", PeriodType: PeriodAnnual, PeriodEnd: end,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	rows, err := repo.GetByDocID(ctx, "S100BBBB")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	// newest period first
	if rows[0].PeriodEnd == nil || !rows[0].PeriodEnd.Equal(end2) {
		t.Errorf("order wrong: first period end = %v", rows[0].PeriodEnd)
	}
}
