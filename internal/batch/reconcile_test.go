package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/companies"
	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/edinet"
)

type stubLister struct {
	docs []edinet.Document
	err  error
}

func (s *stubLister) ListDocuments(ctx context.Context, dateISO string) ([]edinet.Document, error) {
	return s.docs, s.err
}

func strp(s string) *string { return &s }

func sampleDocuments() []edinet.Document {
	return []edinet.Document{
		{
			DocID:          "S100AAA1",
			EdinetCode:     strp("E00001"),
			SecCode:        strp("72030"),
			FilerName:      strp("トヨタ自動車株式会社"),
			DocTypeCode:    strp("120"),
			DocDescription: strp("有価証券報告書"),
			PeriodStart:    strp("2024-04-01"),
			PeriodEnd:      strp("2025-03-31"),
			SubmitDateTime: strp("2025-03-09 15:00"),
			XBRLFlag:       "1",
			PDFFlag:        "1",
			LegalStatus:    "1",
		},
		{
			DocID:          "S100AAA2",
			EdinetCode:     strp("E00002"),
			FilerName:      strp("ソニーグループ株式会社"),
			DocTypeCode:    strp("140"),
			DocDescription: strp("四半期報告書"),
			XBRLFlag:       "1",
			LegalStatus:    "1",
		},
		{
			DocID:          "S100AAA3",
			EdinetCode:     strp("E00003"),
			FilerName:      strp("任天堂株式会社"),
			DocTypeCode:    strp("180"),
			DocDescription: strp("臨時報告書"),
			PDFFlag:        "1",
			LegalStatus:    "1",
		},
	}
}

func newTestReconciler(lister Lister) (*Reconciler, *disclosures.MemoryRepo, *disclosures.MemoryBatchRepo, *companies.MemoryRepo) {
	docs := disclosures.NewMemoryRepo()
	batches := disclosures.NewMemoryBatchRepo()
	comps := companies.NewMemoryRepo()
	r := &Reconciler{
		Edinet:            lister,
		Docs:              docs,
		Batches:           batches,
		Companies:         comps,
		CompanyUpdateMode: CompanyModeIncremental,
	}
	return r, docs, batches, comps
}

func TestRunIngestsNewDocuments(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	r, docs, batches, comps := newTestReconciler(&stubLister{docs: sampleDocuments()})

	stats, err := r.Run(ctx, target, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Aborted {
		t.Fatal("run aborted unexpectedly")
	}
	if stats.Created != 3 || stats.Updated != 0 {
		t.Fatalf("created=%d updated=%d", stats.Created, stats.Updated)
	}

	batch, err := batches.Get(ctx, target)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if batch.Status != disclosures.BatchStatusSuccess {
		t.Fatalf("status = %s", batch.Status)
	}
	if batch.ProcessedCount != 3 {
		t.Fatalf("processed = %d", batch.ProcessedCount)
	}
	if batch.StartedAt == nil || batch.CompletedAt == nil || batch.CompletedAt.Before(*batch.StartedAt) {
		t.Fatal("timestamps not ordered")
	}

	stored, err := docs.GetByDocID(ctx, "S100AAA1")
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if !stored.XBRLFlag || stored.CompanyName == nil || *stored.CompanyName != "トヨタ自動車株式会社" {
		t.Fatalf("stored = %+v", stored)
	}
	if stored.PeriodEnd == nil || stored.PeriodEnd.Format("2006-01-02") != "2025-03-31" {
		t.Fatal("period end not parsed")
	}

	// Incremental company sync creates one row per distinct filer.
	if stats.CompaniesCreated != 3 {
		t.Fatalf("companies created = %d", stats.CompaniesCreated)
	}
	company, err := comps.GetByEdinetCode(ctx, "E00001")
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if company.SecuritiesCode == nil || *company.SecuritiesCode != "72030" {
		t.Fatalf("company = %+v", company)
	}
}

func TestRunAbortsOnSucceededDay(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	r, _, batches, _ := newTestReconciler(&stubLister{docs: sampleDocuments()})

	if _, err := r.Run(ctx, target, false); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	before, _ := batches.Get(ctx, target)

	stats, err := r.Run(ctx, target, false)
	if err != nil {
		t.Fatalf("second run errored: %v", err)
	}
	if !stats.Aborted {
		t.Fatal("expected abort without force")
	}
	after, _ := batches.Get(ctx, target)
	if after.Status != disclosures.BatchStatusSuccess || after.ProcessedCount != before.ProcessedCount {
		t.Fatalf("batch row changed: %+v", after)
	}
}

func TestRunForceReprocessesDay(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	r, _, batches, _ := newTestReconciler(&stubLister{docs: sampleDocuments()})

	if _, err := r.Run(ctx, target, false); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	stats, err := r.Run(ctx, target, true)
	if err != nil {
		t.Fatalf("forced run failed: %v", err)
	}
	if stats.Aborted {
		t.Fatal("forced run aborted")
	}
	if stats.Created != 0 || stats.Updated != 3 {
		t.Fatalf("created=%d updated=%d", stats.Created, stats.Updated)
	}
	batch, _ := batches.Get(ctx, target)
	if batch.Status != disclosures.BatchStatusSuccess || batch.ProcessedCount != 3 {
		t.Fatalf("batch = %+v", batch)
	}
}

func TestRunEmptyDaySucceeds(t *testing.T) {
	ctx := context.Background()
	// A Sunday with no filings still completes as SUCCESS with zero rows.
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	r, _, batches, _ := newTestReconciler(&stubLister{})

	stats, err := r.Run(ctx, target, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.TotalListed != 0 || stats.Created != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	batch, _ := batches.Get(ctx, target)
	if batch.Status != disclosures.BatchStatusSuccess || batch.ProcessedCount != 0 {
		t.Fatalf("batch = %+v", batch)
	}
}

func TestRunMarksFailedOnListError(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	r, _, batches, _ := newTestReconciler(&stubLister{err: errors.New("edinet down")})

	if _, err := r.Run(ctx, target, false); err == nil {
		t.Fatal("expected error")
	}
	batch, err := batches.Get(ctx, target)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if batch.Status != disclosures.BatchStatusFailed {
		t.Fatalf("status = %s", batch.Status)
	}
	if batch.ErrorText == nil || *batch.ErrorText == "" {
		t.Fatal("error text not recorded")
	}
}

func TestRunUpdatesChangedCompany(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	lister := &stubLister{docs: sampleDocuments()}
	r, _, _, comps := newTestReconciler(lister)

	if err := comps.Create(ctx, companies.Company{
		EdinetCode: "E00001",
		Name:       "トヨタ自動車",
		Active:     true,
	}); err != nil {
		t.Fatalf("seed company: %v", err)
	}

	stats, err := r.Run(ctx, target, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.CompaniesCreated != 2 || stats.CompaniesUpdated != 1 {
		t.Fatalf("companies created=%d updated=%d", stats.CompaniesCreated, stats.CompaniesUpdated)
	}
	company, _ := comps.GetByEdinetCode(ctx, "E00001")
	if company.Name != "トヨタ自動車株式会社" {
		t.Fatalf("name = %s", company.Name)
	}
	if company.SecuritiesCode == nil || *company.SecuritiesCode != "72030" {
		t.Fatalf("securities code = %v", company.SecuritiesCode)
	}
}

func TestRunSkipCompanyMode(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2025, 3, 9, 0, 0, 0, 0, JST)
	r, _, _, comps := newTestReconciler(&stubLister{docs: sampleDocuments()})
	r.CompanyUpdateMode = CompanyModeSkip

	stats, err := r.Run(ctx, target, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.CompaniesCreated != 0 {
		t.Fatalf("companies created = %d", stats.CompaniesCreated)
	}
	if _, err := comps.GetByEdinetCode(ctx, "E00001"); !errors.Is(err, companies.ErrNotFound) {
		t.Fatalf("expected no company row, got err=%v", err)
	}
}

func TestConvertDocumentFlags(t *testing.T) {
	doc := edinet.Document{
		DocID:       "S100AAA9",
		XBRLFlag:    "0",
		PDFFlag:     "1",
		LegalStatus: "junk",
	}
	row := convertDocument(doc, time.Date(2025, 3, 9, 0, 0, 0, 0, JST))
	if row.XBRLFlag || !row.PDFFlag {
		t.Fatalf("flags = %+v", row)
	}
	if row.LegalStatus != disclosures.LegalStatusAvailable {
		t.Fatalf("legal status = %d", row.LegalStatus)
	}
	if row.EdinetCode != nil {
		t.Fatal("empty edinet code should map to nil")
	}
}
