package sentiment

import "regexp"

// Context pattern families. Each regexp is applied before the dictionary
// scan; matched spans are claimed so component terms inside a transition
// phrase are not scored twice with conflicting signs.
const (
	weightImprovement        = 0.7
	weightDeterioration      = -0.6
	weightNegationOfPositive = -0.4
	weightNegationOfNegative = 0.4
)

type patternFamily struct {
	name   string
	weight float64
	res    []*regexp.Regexp
}

var patternFamilies = []patternFamily{
	{
		name:   "improvement",
		weight: weightImprovement,
		res: []*regexp.Regexp{
			regexp.MustCompile(`((営業|経常|当期純|純)?(損失|赤字)|減収|減益|低迷|悪化|下落|不振|欠損|債務超過)(の|幅の|傾向の|基調の)?(改善|回復|縮小|解消|脱却|克服)`),
			regexp.MustCompile(`無配からの復配`),
			regexp.MustCompile(`赤字からの黒字転換`),
		},
	},
	{
		name:   "deterioration",
		weight: weightDeterioration,
		res: []*regexp.Regexp{
			regexp.MustCompile(`(成長|増収|増益|回復|改善|拡大|好調|需要|販売)(の|感|傾向|基調|ペース)?(鈍化|頭打ち|一服|陰り|遅れ|足踏み|減速|失速)`),
		},
	},
	{
		name:   "negation_of_positive",
		weight: weightNegationOfPositive,
		res: []*regexp.Regexp{
			regexp.MustCompile(`(成長|増収|増益|改善|回復|拡大|黒字化|収益性)(の[\p{Han}\p{Hiragana}\p{Katakana}ー]{0,8})?(には至らず|には至っておらず|は期待できない|が見込めない|を維持できず|を維持できない|できない)`),
		},
	},
	{
		name:   "negation_of_negative",
		weight: weightNegationOfNegative,
		res: []*regexp.Regexp{
			regexp.MustCompile(`(悪化|低迷|減少|下落|損失|赤字)(の[\p{Han}\p{Hiragana}\p{Katakana}ー]{0,8})?(には至らず|は見られず|することなく|せず|は限定的)`),
			regexp.MustCompile(`懸念(は|が)後退`),
		},
	},
}
