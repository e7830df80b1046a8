package insights

import (
	"fmt"
	"strings"

	"github.com/noknok06/stock-dialy-sub000/internal/finance"
	"github.com/noknok06/stock-dialy-sub000/internal/sentiment"
)

// fallbackPoints derives deterministic points from the analysis outcome
// when the LLM is unavailable or under-delivers.
func fallbackPoints(in Input) []Point {
	var out []Point

	if in.SentimentScore != nil {
		out = append(out, sentimentPoint(*in.SentimentScore, in.SentimentLabel))
	}
	if in.HealthScore != nil {
		out = append(out, healthPoint(*in.HealthScore))
	}
	if in.CashflowPattern != "" && in.CashflowPattern != finance.PatternUnknown {
		out = append(out, cashflowPoint(in.CashflowPattern))
	}
	if len(in.TopNegative) > 0 {
		out = append(out, Point{
			Title:       "注意が必要な記述",
			Description: fmt.Sprintf("開示資料中で「%s」などのネガティブな表現が目立ちます。背景の確認をおすすめします。", strings.Join(in.TopNegative, "」「")),
			Source:      "fallback",
		})
	}
	if len(in.TopPositive) > 0 {
		out = append(out, Point{
			Title:       "前向きな記述",
			Description: fmt.Sprintf("「%s」などのポジティブな表現が確認できます。", strings.Join(in.TopPositive, "」「")),
			Source:      "fallback",
		})
	}

	out = append(out, Point{
		Title:       "開示資料の確認",
		Description: "自動分析は参考情報です。原文の開示資料もあわせてご確認ください。",
		Source:      "fallback",
	})
	return out
}

func sentimentPoint(score float64, label string) Point {
	switch label {
	case sentiment.LabelPositive:
		desc := "経営陣の記述は前向きなトーンです。"
		if score > 0.5 {
			desc = "経営陣の記述は非常に前向きなトーンです。業績の裏付けを確認してください。"
		}
		return Point{Title: "記述トーンは良好", Description: desc, Source: "fallback"}
	case sentiment.LabelNegative:
		desc := "経営陣の記述に慎重なトーンが見られます。"
		if score < -0.5 {
			desc = "経営陣の記述に強い警戒トーンが見られます。リスク要因の精査をおすすめします。"
		}
		return Point{Title: "記述トーンに注意", Description: desc, Source: "fallback"}
	default:
		return Point{
			Title:       "記述トーンは中立",
			Description: "開示資料の記述トーンは中立的で、明確な方向感は読み取れません。",
			Source:      "fallback",
		}
	}
}

func healthPoint(score float64) Point {
	switch {
	case score >= 70:
		return Point{
			Title:       "財務基盤は良好",
			Description: fmt.Sprintf("財務健全性スコアは%.0f/100と高水準です。", score),
			Source:      "fallback",
		}
	case score >= 40:
		return Point{
			Title:       "財務基盤は標準的",
			Description: fmt.Sprintf("財務健全性スコアは%.0f/100です。個別指標の推移に注目してください。", score),
			Source:      "fallback",
		}
	default:
		return Point{
			Title:       "財務基盤に懸念",
			Description: fmt.Sprintf("財務健全性スコアは%.0f/100と低水準です。資金繰りの確認が必要です。", score),
			Source:      "fallback",
		}
	}
}

func cashflowPoint(pattern string) Point {
	descs := map[string]string{
		finance.PatternIdeal:         "本業で稼いだ資金を投資と還元に回す理想的なキャッシュフロー構成です。",
		finance.PatternGrowth:        "本業収益と外部調達を投資に振り向ける成長期の構成です。",
		finance.PatternMature:        "投資回収を進めながら返済を行う成熟企業型の構成です。",
		finance.PatternRecovery:      "資産売却と調達で資金を確保する立て直し局面の構成です。",
		finance.PatternEarly:         "先行投資を外部調達で賄う拡大初期の構成です。",
		finance.PatternDistressed:    "本業の資金流出を資産売却と借入で補っており、警戒が必要です。",
		finance.PatternRestructuring: "資産売却で本業の流出を補う再構築局面の構成です。",
		finance.PatternCritical:      "全区分で資金が流出しており、資金繰りに重大な懸念があります。",
	}
	desc, ok := descs[pattern]
	if !ok {
		desc = "キャッシュフローの構成から明確なパターンは判定できません。"
	}
	return Point{Title: "キャッシュフロー構成", Description: desc, Source: "fallback"}
}
