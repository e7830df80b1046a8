package edinet

// ListResponse is the payload of GET /documents.json.
type ListResponse struct {
	Metadata ListMetadata `json:"metadata"`
	Results  []Document   `json:"results"`
}

// ListMetadata describes the list request EDINET answered.
type ListMetadata struct {
	Title     string        `json:"title"`
	Parameter ListParameter `json:"parameter"`
	ResultSet ListResultSet `json:"resultset"`
	Status    string        `json:"status"`
	Message   string        `json:"message"`
}

// ListParameter echoes the request parameters.
type ListParameter struct {
	Date string `json:"date"`
	Type string `json:"type"`
}

// ListResultSet carries the result count.
type ListResultSet struct {
	Count int `json:"count"`
}

// Document is one disclosure record in a daily list.
// Flag fields arrive as "0"/"1" strings; legalStatus as "0"/"1"/"2".
type Document struct {
	DocID             string  `json:"docID"`
	EdinetCode        *string `json:"edinetCode"`
	SecCode           *string `json:"secCode"`
	JCN               *string `json:"JCN"`
	FilerName         *string `json:"filerName"`
	FundCode          *string `json:"fundCode"`
	OrdinanceCode     *string `json:"ordinanceCode"`
	FormCode          *string `json:"formCode"`
	DocTypeCode       *string `json:"docTypeCode"`
	PeriodStart       *string `json:"periodStart"`
	PeriodEnd         *string `json:"periodEnd"`
	SubmitDateTime    *string `json:"submitDateTime"`
	DocDescription    *string `json:"docDescription"`
	XBRLFlag          string  `json:"xbrlFlag"`
	PDFFlag           string  `json:"pdfFlag"`
	AttachDocFlag     string  `json:"attachDocFlag"`
	EnglishDocFlag    string  `json:"englishDocFlag"`
	CSVFlag           string  `json:"csvFlag"`
	LegalStatus       string  `json:"legalStatus"`
	WithdrawalStatus  string  `json:"withdrawalStatus"`
	DocInfoEditStatus string  `json:"docInfoEditStatus"`
	DisclosureStatus  string  `json:"disclosureStatus"`
}

// Archive format codes for GET /documents/{docID}.
const (
	DocTypeZip = 1
	DocTypePDF = 2
	DocTypeCSV = 5
)
