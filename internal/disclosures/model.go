package disclosures

import "time"

// Legal status values reported by EDINET for a filing's inspection window.
const (
	LegalStatusExpired   = 0
	LegalStatusAvailable = 1
	LegalStatusExtended  = 2
)

// DocumentMetadata is one disclosure document reconciled from a daily EDINET list.
type DocumentMetadata struct {
	ID               int64      `json:"id"`
	DocID            string     `json:"docId"`
	EdinetCode       *string    `json:"edinetCode,omitempty"`
	SecuritiesCode   *string    `json:"securitiesCode,omitempty"`
	CompanyName      *string    `json:"companyName,omitempty"`
	DocTypeCode      *string    `json:"docTypeCode,omitempty"`
	PeriodStart      *time.Time `json:"periodStart,omitempty"`
	PeriodEnd        *time.Time `json:"periodEnd,omitempty"`
	SubmitDateTime   *time.Time `json:"submitDateTime,omitempty"`
	FileDate         time.Time  `json:"fileDate"`
	Description      *string    `json:"description,omitempty"`
	XBRLFlag         bool       `json:"xbrlFlag"`
	PDFFlag          bool       `json:"pdfFlag"`
	CSVFlag          bool       `json:"csvFlag"`
	AttachDocFlag    bool       `json:"attachDocFlag"`
	EnglishDocFlag   bool       `json:"englishDocFlag"`
	LegalStatus      int        `json:"legalStatus"`
	WithdrawalStatus string     `json:"withdrawalStatus"`
	EditStatus       string     `json:"editStatus"`
	DisclosureStatus string     `json:"disclosureStatus"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Batch execution statuses.
const (
	BatchStatusRunning = "RUNNING"
	BatchStatusSuccess = "SUCCESS"
	BatchStatusFailed  = "FAILED"
)

// BatchExecution records one daily ingestion run; one row per JST calendar day.
type BatchExecution struct {
	ID             int64      `json:"id"`
	BatchDate      time.Time  `json:"batchDate"`
	Status         string     `json:"status"`
	ProcessedCount int        `json:"processedCount"`
	ErrorText      *string    `json:"errorText,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// CompanyCandidate is a distinct (edinet_code, securities_code, name) triple
// extracted from stored documents for company-master reconciliation.
type CompanyCandidate struct {
	EdinetCode     string
	SecuritiesCode *string
	Name           string
}

// ChunkResult summarizes one chunk upsert.
type ChunkResult struct {
	Created int
	Updated int
}
