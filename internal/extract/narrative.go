package extract

import (
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// narrativeBlocks maps curated element-name fragments to Japanese section names.
// Order matters: the first match for an element wins.
var narrativeBlocks = []struct {
	fragment string
	section  string
}{
	{"BusinessRisks", "事業等のリスク"},
	{"ManagementAnalysisOfFinancialPositionOperatingResultsAndCashFlows", "経営者による財政状態・経営成績・キャッシュ・フローの分析"},
	{"AnalysisOfFinancialPositionOperatingResultsAndCashFlows", "経営者による財政状態・経営成績・キャッシュ・フローの分析"},
	{"BusinessPolicyBusinessEnvironmentIssuesToAddressEtc", "経営方針・経営環境及び対処すべき課題等"},
	{"DescriptionOfBusiness", "事業の内容"},
	{"OverviewOfBusinessResults", "経営成績等の概要"},
	{"ResearchAndDevelopmentActivities", "研究開発活動"},
	{"OverviewOfAffiliatedEntities", "関係会社の状況"},
	{"InformationAboutCorporateGovernance", "コーポレート・ガバナンスの状況"},
	{"CriticalContractsForOperation", "経営上の重要な契約等"},
}

func matchNarrativeSection(localName string) string {
	for _, block := range narrativeBlocks {
		if strings.Contains(localName, block.fragment) {
			return block.section
		}
	}
	return ""
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`[\s\x{3000}]+`)
)

// cleanNarrative strips inline markup and collapses whitespace. TextBlock
// facts in EDINET instances carry escaped inline XBRL markup.
func cleanNarrative(raw string) string {
	text := raw
	if strings.Contains(text, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		} else {
			text = tagPattern.ReplaceAllString(text, " ")
		}
	}
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// scanNarrative walks one XBRL/XML document and registers cleaned section
// texts under their Japanese section names. Longer texts win for a section
// that appears more than once.
func scanNarrative(content string, sections map[string]string) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = false

	var current string
	var buf strings.Builder
	depth := 0

	for {
		tok, err := decoder.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if current != "" {
				depth++
				continue
			}
			if section := matchNarrativeSection(t.Name.Local); section != "" {
				current = section
				buf.Reset()
				depth = 0
			}
		case xml.CharData:
			if current != "" {
				buf.Write(t)
			}
		case xml.EndElement:
			if current == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			text := cleanNarrative(buf.String())
			if len([]rune(text)) >= 20 && len(text) > len(sections[current]) {
				sections[current] = text
			}
			current = ""
		}
	}
}

// scanHTMNarrative pulls narrative text out of an inline-XBRL HTM file using
// element-name heuristics on ix:nonNumeric tags.
func scanHTMNarrative(content string, sections map[string]string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return
	}
	doc.Find("[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		local := name
		if idx := strings.LastIndex(name, ":"); idx >= 0 {
			local = name[idx+1:]
		}
		section := matchNarrativeSection(local)
		if section == "" {
			return
		}
		text := cleanNarrative(sel.Text())
		if len([]rune(text)) >= 20 && len(text) > len(sections[section]) {
			sections[section] = text
		}
	})
}
