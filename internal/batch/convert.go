package batch

import (
	"strconv"
	"strings"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/edinet"
)

// convertDocument maps one EDINET list record onto the stored metadata row.
// EDINET serializes flags as "0"/"1" strings and timestamps as JST wall time.
func convertDocument(doc edinet.Document, fileDate time.Time) disclosures.DocumentMetadata {
	return disclosures.DocumentMetadata{
		DocID:            doc.DocID,
		EdinetCode:       trimPtr(doc.EdinetCode),
		SecuritiesCode:   trimPtr(doc.SecCode),
		CompanyName:      trimPtr(doc.FilerName),
		DocTypeCode:      trimPtr(doc.DocTypeCode),
		PeriodStart:      parseDatePtr(doc.PeriodStart),
		PeriodEnd:        parseDatePtr(doc.PeriodEnd),
		SubmitDateTime:   parseDateTimePtr(doc.SubmitDateTime),
		FileDate:         fileDate,
		Description:      trimPtr(doc.DocDescription),
		XBRLFlag:         doc.XBRLFlag == "1",
		PDFFlag:          doc.PDFFlag == "1",
		CSVFlag:          doc.CSVFlag == "1",
		AttachDocFlag:    doc.AttachDocFlag == "1",
		EnglishDocFlag:   doc.EnglishDocFlag == "1",
		LegalStatus:      parseLegalStatus(doc.LegalStatus),
		WithdrawalStatus: doc.WithdrawalStatus,
		EditStatus:       doc.DocInfoEditStatus,
		DisclosureStatus: doc.DisclosureStatus,
	}
}

func parseLegalStatus(raw string) int {
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || val < disclosures.LegalStatusExpired || val > disclosures.LegalStatusExtended {
		return disclosures.LegalStatusAvailable
	}
	return val
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*s), JST)
	if err != nil {
		return nil
	}
	return &t
}

func parseDateTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(*s), JST)
	if err != nil {
		return nil
	}
	return &t
}
