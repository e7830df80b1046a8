package sentiment

// Label values.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// TermMatch is one scored term or context-pattern hit.
type TermMatch struct {
	Term      string  `json:"term"`
	Source    string  `json:"source"` // dictionary or pattern family name
	BaseScore float64 `json:"base_score"`
	Count     int     `json:"count"`
	Weight    float64 `json:"weight"`
}

// SentenceHighlight is a representative sentence with its own score.
type SentenceHighlight struct {
	Text    string  `json:"text"`
	Section string  `json:"section,omitempty"`
	Score   float64 `json:"score"`
	Label   string  `json:"label"`
}

// FrequencyTable buckets matched occurrences by polarity.
type FrequencyTable struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// SectionResult is the per-section decomposition of a multi-section run.
type SectionResult struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	MatchCount int     `json:"match_count"`
	TextLength int     `json:"text_length"`
}

// Result is a full sentiment analysis outcome. An empty or too-short input
// yields a neutral Result with no matches.
type Result struct {
	Score       float64                   `json:"score"`
	Label       string                    `json:"label"`
	Matches     []TermMatch               `json:"matches"`
	TopPositive []TermMatch               `json:"top_positive"`
	TopNegative []TermMatch               `json:"top_negative"`
	Sentences   []SentenceHighlight       `json:"sentences"`
	Frequency   FrequencyTable            `json:"frequency"`
	Sections    map[string]*SectionResult `json:"sections,omitempty"`
	TextLength  int                       `json:"text_length"`
}

func neutralResult() *Result {
	return &Result{
		Score:       0,
		Label:       LabelNeutral,
		Matches:     []TermMatch{},
		TopPositive: []TermMatch{},
		TopNegative: []TermMatch{},
		Sentences:   []SentenceHighlight{},
	}
}

// HasTerm reports whether a term appears among the matches.
func (r *Result) HasTerm(term string) bool {
	for _, m := range r.Matches {
		if m.Term == term {
			return true
		}
	}
	return false
}
