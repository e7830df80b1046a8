package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/noknok06/stock-dialy-sub000/internal/finance"
	"github.com/noknok06/stock-dialy-sub000/internal/sentiment"
)

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) GenerateText(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

func (s stubLLM) Model() string { return "stub-model" }

func fp(v float64) *float64 { return &v }

func sampleInput() Input {
	return Input{
		DocID:           "S100TEST",
		CompanyName:     "テスト株式会社",
		SentimentScore:  fp(0.4),
		SentimentLabel:  sentiment.LabelPositive,
		HealthScore:     fp(82),
		RiskLevel:       finance.RiskLow,
		CashflowPattern: finance.PatternIdeal,
		TopPositive:     []string{"増収", "好調"},
	}
}

func TestGenerateWithoutLLMFallsBack(t *testing.T) {
	g := NewGenerator(nil)
	out := g.Generate(context.Background(), sampleInput())

	if out.Metadata.APIAvailable {
		t.Error("api_available = true for placeholder client")
	}
	if !out.Metadata.FallbackUsed {
		t.Error("fallback_used = false, want true")
	}
	if n := len(out.InvestmentPoints); n < 3 || n > 5 {
		t.Fatalf("points = %d, want 3-5", n)
	}
	for _, p := range out.InvestmentPoints {
		if p.Source != "fallback" {
			t.Errorf("point source = %q, want fallback", p.Source)
		}
	}
	if out.Metadata.PointsCount != len(out.InvestmentPoints) {
		t.Errorf("points_count = %d, want %d", out.Metadata.PointsCount, len(out.InvestmentPoints))
	}
}

func TestGenerateParsesTitleLines(t *testing.T) {
	g := NewGenerator(stubLLM{text: "1. 増収基調: 売上が伸びています\n2. 財務健全性: 自己資本比率が高水準です\n3. キャッシュフロー: 理想型の構成です"})
	out := g.Generate(context.Background(), sampleInput())

	if !out.Metadata.APISuccess {
		t.Fatalf("api_success = false: %+v", out.Metadata)
	}
	if out.Metadata.FallbackUsed {
		t.Error("fallback_used = true with 3 parsed points")
	}
	if len(out.InvestmentPoints) != 3 {
		t.Fatalf("points = %+v, want 3", out.InvestmentPoints)
	}
	if out.InvestmentPoints[0].Title != "増収基調" {
		t.Errorf("title = %q, want 増収基調", out.InvestmentPoints[0].Title)
	}
	if out.InvestmentPoints[0].Source != "llm" {
		t.Errorf("source = %q, want llm", out.InvestmentPoints[0].Source)
	}
}

func TestGenerateRepairsMalformedJSON(t *testing.T) {
	raw := `{"investment_points": [
		{"title": "成長性", "description": "増収が続いている"},
		{"title": "収益性", "description": "利益率が改善"},
		{"title": "健全性", "description": "自己資本が厚い"},
	]`
	g := NewGenerator(stubLLM{text: raw})
	out := g.Generate(context.Background(), sampleInput())

	if !out.Metadata.APISuccess {
		t.Fatalf("api_success = false for repairable JSON: %+v", out.Metadata)
	}
	if len(out.InvestmentPoints) != 3 {
		t.Fatalf("points = %+v, want 3", out.InvestmentPoints)
	}
}

func TestGenerateTopsUpShortOutput(t *testing.T) {
	g := NewGenerator(stubLLM{text: "増収基調: 売上が伸びています"})
	out := g.Generate(context.Background(), sampleInput())

	if !out.Metadata.APISuccess {
		t.Fatal("api_success = false with one parsed point")
	}
	if !out.Metadata.FallbackUsed {
		t.Error("fallback_used = false, want true for top-up")
	}
	if len(out.InvestmentPoints) < 3 {
		t.Fatalf("points = %d, want >= 3 after top-up", len(out.InvestmentPoints))
	}
	if out.InvestmentPoints[0].Source != "llm" {
		t.Errorf("first point source = %q, want llm kept ahead of fallback", out.InvestmentPoints[0].Source)
	}
}

func TestGenerateLLMErrorRecordsMessage(t *testing.T) {
	g := NewGenerator(stubLLM{err: errors.New("boom")})
	out := g.Generate(context.Background(), sampleInput())

	if out.Metadata.APISuccess {
		t.Error("api_success = true despite error")
	}
	if out.Metadata.ErrorMessage == "" {
		t.Error("error_message empty")
	}
	if len(out.InvestmentPoints) < 3 {
		t.Fatalf("points = %d, want fallback minimum", len(out.InvestmentPoints))
	}
}

func TestSplitTitleFullWidthColon(t *testing.T) {
	title, desc, ok := splitTitle("財務基盤：自己資本比率が60%です")
	if !ok || title != "財務基盤" || desc != "自己資本比率が60%です" {
		t.Fatalf("splitTitle = %q, %q, %v", title, desc, ok)
	}
}
