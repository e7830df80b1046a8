package extract

import (
	"archive/zip"
	"bytes"
	"path"
	"strings"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// PeriodInfo is the reporting period observed across instance contexts.
type PeriodInfo struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (p *PeriodInfo) observe(elem, raw string) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return
	}
	switch elem {
	case "startDate":
		if p.Start == nil || t.Before(*p.Start) {
			p.Start = &t
		}
	case "endDate", "instant":
		if p.End == nil || t.After(*p.End) {
			p.End = &t
		}
	}
}

// Result is the combined output of one archive extraction.
type Result struct {
	Financials FinancialFacts    `json:"financials"`
	Sections   map[string]string `json:"sections"`
	TableUnit  string            `json:"tableUnit,omitempty"`
	Period     PeriodInfo        `json:"period"`
}

// Extractor pulls financial facts and narrative sections out of EDINET
// document archives.
type Extractor struct{}

// NewExtractor constructs an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// FromArchive processes a downloaded document payload: a ZIP archive of
// XBRL/XML/HTM members, or a single XML document.
func (e *Extractor) FromArchive(data []byte) (Result, error) {
	result := Result{Sections: make(map[string]string)}
	if len(data) == 0 {
		return result, nil
	}

	acc := newFactAccumulator()
	var unitText strings.Builder

	if bytes.HasPrefix(data, zipMagic) {
		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return result, err
		}
		for _, file := range reader.File {
			if skipMember(file.Name) {
				continue
			}
			content, err := readMember(file)
			if err != nil {
				telemetry.Debug("extract.member_skip", map[string]any{
					"member": file.Name,
					"error":  err.Error(),
				})
				continue
			}
			e.processMember(file.Name, content, acc, result.Sections, &result.Period, &unitText)
		}
	} else {
		content := decodeBytes(data)
		e.processMember("document.xml", content, acc, result.Sections, &result.Period, &unitText)
	}

	result.Financials = acc.facts()
	result.TableUnit, _ = detectTableUnit(unitText.String())
	return result, nil
}

func (e *Extractor) processMember(name, content string, acc *factAccumulator, sections map[string]string, period *PeriodInfo, unitText *strings.Builder) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xbrl") || strings.HasSuffix(lower, ".xml"):
		scanFacts(content, acc, period)
		scanNarrative(content, sections)
		unitText.WriteString(content)
	case strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html"):
		scanHTMNarrative(content, sections)
		unitText.WriteString(content)
	}
}

// skipMember filters out manifests, style assets, and public-doc copies.
func skipMember(name string) bool {
	lower := strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(lower)
	if base == "manifest.xml" || strings.HasPrefix(base, "manifest") {
		return true
	}
	switch path.Ext(base) {
	case ".css", ".js", ".gif", ".png", ".jpg":
		return true
	}
	if strings.Contains(lower, "public") {
		return true
	}
	return false
}

func readMember(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return "", err
	}
	return decodeBytes(buf.Bytes()), nil
}
