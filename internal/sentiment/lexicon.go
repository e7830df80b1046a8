package sentiment

// defaultLexicon is the curated financial lexicon used when no external
// dictionary file is configured. Scores are in [-1, 1]. Compound phrases
// carry their full-phrase reading so they win over component terms.
var defaultLexicon = map[string]float64{
	// growth and revenue
	"増収":       0.80,
	"増収増益":     0.90,
	"大幅増収":     0.90,
	"過去最高":     0.90,
	"最高益":      0.90,
	"増益":       0.80,
	"大幅増益":     0.90,
	"売上増加":     0.70,
	"売上拡大":     0.70,
	"成長":       0.60,
	"高成長":      0.80,
	"成長加速":     0.80,
	"急成長":      0.80,
	"拡大":       0.50,
	"事業拡大":     0.60,
	"シェア拡大":    0.70,
	"需要拡大":     0.60,
	"需要増加":     0.60,
	"好調":       0.70,
	"堅調":       0.60,
	"順調":       0.60,
	"底堅い":      0.40,
	"伸長":       0.60,
	"好転":       0.60,
	"上振れ":      0.60,
	"上方修正":     0.80,

	// profitability and soundness
	"黒字":       0.70,
	"黒字化":      0.80,
	"黒字転換":     0.85,
	"収益改善":     0.70,
	"収益性向上":    0.70,
	"利益率改善":    0.70,
	"採算改善":     0.60,
	"改善":       0.50,
	"回復":       0.50,
	"業績回復":     0.70,
	"復配":       0.70,
	"増配":       0.70,
	"財務体質強化":   0.60,
	"自己資本比率向上": 0.50,
	"効率化":      0.40,
	"生産性向上":    0.50,
	"競争力強化":    0.50,
	"強み":       0.40,
	"好材料":      0.50,
	"追い風":      0.50,

	// decline and losses
	"減収":       -0.80,
	"減収減益":     -0.90,
	"大幅減収":     -0.90,
	"減益":       -0.80,
	"大幅減益":     -0.90,
	"赤字":       -0.80,
	"赤字転落":     -0.90,
	"赤字拡大":     -0.90,
	"営業損失":     -0.80,
	"経常損失":     -0.80,
	"純損失":      -0.80,
	"損失":       -0.70,
	"欠損":       -0.70,
	"債務超過":     -0.95,
	"特別損失":     -0.60,
	"減損":       -0.70,
	"減損損失":     -0.75,
	"下方修正":     -0.80,
	"未達":       -0.60,
	"下振れ":      -0.60,
	"減配":       -0.70,
	"無配":       -0.80,

	// deterioration and risk
	"悪化":       -0.70,
	"業績悪化":     -0.80,
	"低迷":       -0.70,
	"不振":       -0.70,
	"販売不振":     -0.75,
	"下落":       -0.60,
	"落ち込み":     -0.60,
	"減少":       -0.50,
	"縮小":       -0.40,
	"停滞":       -0.50,
	"伸び悩み":     -0.50,
	"頭打ち":      -0.50,
	"鈍化":       -0.50,
	"失速":       -0.60,
	"苦戦":       -0.60,
	"厳しい":      -0.50,
	"厳しい状況":    -0.60,
	"不透明":      -0.40,
	"不確実性":     -0.40,
	"リスク":      -0.30,
	"懸念":       -0.40,
	"課題":       -0.30,
	"逆風":       -0.50,
	"競争激化":     -0.50,
	"価格競争":     -0.40,
	"原材料高騰":    -0.50,
	"コスト増加":    -0.50,
	"コスト上昇":    -0.50,
	"円高":       -0.30,
	"為替変動":     -0.30,
	"継続企業の前提":  -0.90,
	"疑義":       -0.80,

	// frozen negated phrases kept as single terms so the scan does not
	// reward their positive components
	"成長の加速には至らず": -0.50,
	"回復には至らず":    -0.50,
	"改善には至らず":    -0.50,
	"黒字化には至らず":   -0.60,
	"減収幅の縮小":     0.40,
	"赤字幅の縮小":     0.50,
	"損失の縮小":      0.50,
}
