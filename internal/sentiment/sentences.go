package sentiment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	sentenceSplitRE = regexp.MustCompile(`[。！？\n]+`)
)

const (
	minSentenceRunes    = 10
	minJapaneseRunes    = 3
	maxSentenceHighligh = 10
)

// highlightSentences splits the text into sentences, scores each one with
// the same scan, and keeps the strongest non-neutral ones.
func (a *Analyzer) highlightSentences(text, section string) []SentenceHighlight {
	var out []SentenceHighlight
	for _, raw := range sentenceSplitRE.Split(text, -1) {
		sentence := strings.TrimSpace(raw)
		runes := []rune(sentence)
		if len(runes) < minSentenceRunes {
			continue
		}
		if countJapanese(runes) < minJapaneseRunes {
			continue
		}
		matches := a.scan(sentence)
		if len(matches) == 0 {
			continue
		}
		res := a.buildResult(matches, len(runes))
		out = append(out, SentenceHighlight{
			Text:    sentence,
			Section: section,
			Score:   res.Score,
			Label:   res.Label,
		})
	}
	return dedupeSentences(out)
}

// dedupeSentences drops repeated sentences, keeps the highest |score| ones
// and bounds the list.
func dedupeSentences(in []SentenceHighlight) []SentenceHighlight {
	seen := map[string]bool{}
	out := make([]SentenceHighlight, 0, len(in))
	for _, s := range in {
		key := normalizeSentenceKey(s.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := abs(out[i].Score), abs(out[j].Score)
		return ai > aj
	})
	if len(out) > maxSentenceHighligh {
		out = out[:maxSentenceHighligh]
	}
	return out
}

func normalizeSentenceKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isSpaceRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func countJapanese(runes []rune) int {
	n := 0
	for _, r := range runes {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
			n++
		}
	}
	return n
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
