package sentiment

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Options tunes the analyzer thresholds.
type Options struct {
	PositiveMin   float64 // label is positive at or above this score
	NegativeMax   float64 // label is negative at or below this score
	OccurrenceCap int     // per-term occurrence cap for the weight formula
	TopK          int     // size of the top positive/negative term lists
}

func (o Options) withDefaults() Options {
	if o.PositiveMin == 0 {
		o.PositiveMin = 0.15
	}
	if o.NegativeMax == 0 {
		o.NegativeMax = -0.15
	}
	if o.OccurrenceCap <= 0 {
		o.OccurrenceCap = 10
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	return o
}

// Analyzer scores Japanese financial text with a term dictionary plus
// context transition patterns.
type Analyzer struct {
	dict *Dictionary
	opts Options
}

// New builds an Analyzer. A nil dictionary falls back to the embedded one.
func New(dict *Dictionary, opts Options) *Analyzer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Analyzer{dict: dict, opts: opts.withDefaults()}
}

const minAnalyzableRunes = 5

// AnalyzeText scores a single block of text.
func (a *Analyzer) AnalyzeText(text string) *Result {
	clean := preprocess(text)
	if len([]rune(clean)) < minAnalyzableRunes {
		return neutralResult()
	}

	matches := a.scan(clean)
	res := a.buildResult(matches, len([]rune(clean)))
	res.Sentences = a.highlightSentences(clean, "")
	return res
}

// AnalyzeSections scores each section and aggregates the merged match
// population into one overall result.
func (a *Analyzer) AnalyzeSections(sections map[string]string) *Result {
	merged := map[string]*TermMatch{}
	perSection := map[string]*SectionResult{}
	var sentences []SentenceHighlight
	totalRunes := 0

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		clean := preprocess(sections[name])
		runes := len([]rune(clean))
		if runes < minAnalyzableRunes {
			continue
		}
		totalRunes += runes
		sectionMatches := a.scan(clean)
		sectionRes := a.buildResult(sectionMatches, runes)
		perSection[name] = &SectionResult{
			Score:      sectionRes.Score,
			Label:      sectionRes.Label,
			MatchCount: len(sectionRes.Matches),
			TextLength: runes,
		}
		for key, m := range sectionMatches {
			if have, ok := merged[key]; ok {
				have.Count += m.Count
			} else {
				cp := *m
				merged[key] = &cp
			}
		}
		sentences = append(sentences, a.highlightSentences(clean, name)...)
	}

	if len(perSection) == 0 {
		return neutralResult()
	}
	res := a.buildResult(merged, totalRunes)
	res.Sections = perSection
	res.Sentences = dedupeSentences(sentences)
	return res
}

// scan runs the context pass then the dictionary pass. Context matches
// claim their spans first so dictionary terms inside a transition phrase
// are skipped.
func (a *Analyzer) scan(text string) map[string]*TermMatch {
	matches := map[string]*TermMatch{}
	var claimed []span

	for _, fam := range patternFamilies {
		for _, re := range fam.res {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				s := span{loc[0], loc[1]}
				if s.overlapsAny(claimed) {
					continue
				}
				claimed = append(claimed, s)
				phrase := text[loc[0]:loc[1]]
				key := fam.name + ":" + phrase
				if m, ok := matches[key]; ok {
					m.Count++
				} else {
					matches[key] = &TermMatch{
						Term:      phrase,
						Source:    fam.name,
						BaseScore: fam.weight,
						Count:     1,
					}
				}
			}
		}
	}

	for _, term := range a.dict.Terms() {
		base, _ := a.dict.Score(term)
		from := 0
		for {
			idx := strings.Index(text[from:], term)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(term)
			from = end
			s := span{start, end}
			if s.overlapsAny(claimed) {
				continue
			}
			claimed = append(claimed, s)
			key := "dictionary:" + term
			if m, ok := matches[key]; ok {
				m.Count++
			} else {
				matches[key] = &TermMatch{
					Term:      term,
					Source:    "dictionary",
					BaseScore: base,
					Count:     1,
				}
			}
		}
	}
	return matches
}

// buildResult applies the occurrence weighting and aggregates the match
// population into a scored result.
func (a *Analyzer) buildResult(matches map[string]*TermMatch, textRunes int) *Result {
	res := neutralResult()
	res.TextLength = textRunes
	if len(matches) == 0 {
		return res
	}

	list := make([]TermMatch, 0, len(matches))
	for _, m := range matches {
		capped := m.Count
		if capped > a.opts.OccurrenceCap {
			capped = a.opts.OccurrenceCap
		}
		mm := *m
		mm.Weight = mm.BaseScore * (1 + 0.5*math.Log(float64(capped)))
		list = append(list, mm)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight > list[j].Weight
		}
		return list[i].Term < list[j].Term
	})

	var simpleSum, weightedSum, absSum float64
	for _, m := range list {
		simpleSum += m.Weight
		weightedSum += m.Weight * math.Abs(m.Weight)
		absSum += math.Abs(m.Weight)

		switch {
		case m.Weight > 0:
			res.Frequency.Positive += m.Count
		case m.Weight < 0:
			res.Frequency.Negative += m.Count
		default:
			res.Frequency.Neutral += m.Count
		}
	}

	simpleAvg := simpleSum / float64(len(list))
	weightedAvg := simpleAvg
	if absSum > 0 {
		weightedAvg = weightedSum / absSum
	}
	score := clip((simpleAvg+weightedAvg)/2, -1, 1)

	res.Score = round3(score)
	res.Label = a.labelFor(score)
	res.Matches = list
	res.TopPositive = topTerms(list, true, a.opts.TopK)
	res.TopNegative = topTerms(list, false, a.opts.TopK)
	return res
}

func (a *Analyzer) labelFor(score float64) string {
	switch {
	case score > a.opts.PositiveMin:
		return LabelPositive
	case score < a.opts.NegativeMax:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func topTerms(list []TermMatch, positive bool, k int) []TermMatch {
	out := []TermMatch{}
	for _, m := range list {
		if positive && m.Weight > 0 {
			out = append(out, m)
		}
		if !positive && m.Weight < 0 {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Weight), math.Abs(out[j].Weight)
		if ai != aj {
			return ai > aj
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

type span struct{ start, end int }

func (s span) overlapsAny(claimed []span) bool {
	for _, c := range claimed {
		if s.start < c.end && c.start < s.end {
			return true
		}
	}
	return false
}

// preprocess strips markup, joins lines broken inside Japanese phrases and
// collapses remaining whitespace so compound expressions survive intact.
func preprocess(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")

	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isSpaceRune(r) {
			b.WriteRune(r)
			continue
		}
		// Drop whitespace between two Japanese characters, keep one
		// space elsewhere.
		j := i
		for j+1 < len(runes) && isSpaceRune(runes[j+1]) {
			j++
		}
		prev := rune(0)
		if i > 0 {
			prev = runes[i-1]
		}
		next := rune(0)
		if j+1 < len(runes) {
			next = runes[j+1]
		}
		if !(isJapaneseRune(prev) && isJapaneseRune(next)) && prev != 0 && next != 0 {
			b.WriteRune(' ')
		}
		i = j
	}
	return strings.TrimSpace(b.String())
}

func isSpaceRune(r rune) bool {
	return unicode.IsSpace(r) || r == '　'
}

func isJapaneseRune(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) ||
		r == 'ー' || r == '々' || r == '、' || r == '。'
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
