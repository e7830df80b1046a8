package insights

import (
	"fmt"
	"strings"
)

// buildPrompt renders the Japanese analyst prompt for one document.
func buildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("以下の開示資料の分析結果をもとに、投資家向けの注目ポイントを3〜5個挙げてください。\n")
	b.WriteString("各ポイントは「タイトル: 説明」の形式で1行ずつ出力してください。\n\n")

	if in.CompanyName != "" {
		fmt.Fprintf(&b, "企業名: %s\n", in.CompanyName)
	}
	if in.DocDescription != "" {
		fmt.Fprintf(&b, "書類: %s\n", in.DocDescription)
	}
	if in.SentimentScore != nil {
		fmt.Fprintf(&b, "センチメントスコア: %.2f (%s)\n", *in.SentimentScore, in.SentimentLabel)
	}
	if in.HealthScore != nil {
		fmt.Fprintf(&b, "財務健全性スコア: %.0f/100\n", *in.HealthScore)
	}
	if in.CashflowPattern != "" {
		fmt.Fprintf(&b, "キャッシュフローパターン: %s\n", in.CashflowPattern)
	}
	if in.RiskLevel != "" {
		fmt.Fprintf(&b, "リスク水準: %s\n", in.RiskLevel)
	}
	if len(in.TopPositive) > 0 {
		fmt.Fprintf(&b, "ポジティブ頻出語: %s\n", strings.Join(in.TopPositive, "、"))
	}
	if len(in.TopNegative) > 0 {
		fmt.Fprintf(&b, "ネガティブ頻出語: %s\n", strings.Join(in.TopNegative, "、"))
	}

	b.WriteString("\n数値の裏付けがある事実に基づき、簡潔な日本語で出力してください。\n")
	return b.String()
}
