package extract

import "strings"

// tableUnit is a display-unit phrase detected in the raw filing text. It is
// contextual metadata only: fact values scaled through the XBRL decimals
// attribute are already yen-denominated, and the two are never combined.
type tableUnit struct {
	Phrase string
	Factor float64
}

var tableUnits = []tableUnit{
	{Phrase: "兆円", Factor: 1e12},
	{Phrase: "億円", Factor: 1e8},
	{Phrase: "百万円", Factor: 1e6},
	{Phrase: "千円", Factor: 1e3},
}

// detectTableUnit finds the first display-unit phrase in the raw text.
// Returns the phrase and its factor, or ("", 1) when none is present.
func detectTableUnit(text string) (string, float64) {
	best := -1
	var found tableUnit
	for _, unit := range tableUnits {
		idx := strings.Index(text, unit.Phrase)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			found = unit
		}
	}
	if best < 0 {
		return "", 1
	}
	return found.Phrase, found.Factor
}
