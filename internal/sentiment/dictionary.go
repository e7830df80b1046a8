package sentiment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

// Dictionary maps Japanese financial terms to sentiment scores in [-1, 1].
// It is immutable after load; analysis paths must not mutate it.
type Dictionary struct {
	scores  map[string]float64
	ordered []string // terms sorted by rune length descending
}

// Score returns the score for a term and whether it exists.
func (d *Dictionary) Score(term string) (float64, bool) {
	score, ok := d.scores[term]
	return score, ok
}

// Terms returns dictionary terms sorted by length descending, so compound
// phrases are matched before their components.
func (d *Dictionary) Terms() []string {
	return d.ordered
}

// Len returns the number of terms.
func (d *Dictionary) Len() int {
	return len(d.scores)
}

func newDictionary(scores map[string]float64) *Dictionary {
	ordered := make([]string, 0, len(scores))
	for term := range scores {
		ordered = append(ordered, term)
	}
	sort.Slice(ordered, func(i, j int) bool {
		li, lj := len([]rune(ordered[i])), len([]rune(ordered[j]))
		if li != lj {
			return li > lj
		}
		return ordered[i] < ordered[j]
	})
	return &Dictionary{scores: scores, ordered: ordered}
}

// DefaultDictionary returns the embedded curated lexicon.
func DefaultDictionary() *Dictionary {
	scores := make(map[string]float64, len(defaultLexicon))
	for term, score := range defaultLexicon {
		scores[term] = score
	}
	return newDictionary(scores)
}

// LoadDictionary reads a word,score CSV. Rows starting with # are comments.
// Full-width digits and minus signs are normalized; scores are clamped to
// [-1, 1]. On any load failure the embedded default is returned.
func LoadDictionary(path string) *Dictionary {
	if strings.TrimSpace(path) == "" {
		return DefaultDictionary()
	}
	f, err := os.Open(path)
	if err != nil {
		telemetry.Warn("sentiment.dictionary_fallback", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return DefaultDictionary()
	}
	defer f.Close()

	dict, err := parseDictionary(f)
	if err != nil {
		telemetry.Warn("sentiment.dictionary_fallback", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return DefaultDictionary()
	}
	telemetry.Info("sentiment.dictionary_loaded", map[string]any{
		"path":  path,
		"terms": dict.Len(),
	})
	return dict
}

var scoreReplacer = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"．", ".", "－", "-", "−", "-", "＋", "+",
)

func parseDictionary(r io.Reader) (*Dictionary, error) {
	scores := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		if line == 1 && strings.EqualFold(row, "word,score") {
			continue
		}
		idx := strings.LastIndex(row, ",")
		if idx <= 0 {
			continue
		}
		term := strings.TrimSpace(row[:idx])
		rawScore := scoreReplacer.Replace(strings.TrimSpace(row[idx+1:]))
		score, err := strconv.ParseFloat(rawScore, 64)
		if err != nil {
			telemetry.Debug("sentiment.dictionary_row_skip", map[string]any{
				"line": line,
				"row":  row,
			})
			continue
		}
		if score > 1 {
			score = 1
		}
		if score < -1 {
			score = -1
		}
		if term != "" {
			scores[term] = score
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("dictionary is empty")
	}
	return newDictionary(scores), nil
}
