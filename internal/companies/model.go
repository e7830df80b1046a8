package companies

import "time"

// Company is one row of the company master keyed by EDINET code.
type Company struct {
	ID             int64     `json:"id"`
	EdinetCode     string    `json:"edinetCode"`
	SecuritiesCode *string   `json:"securitiesCode,omitempty"`
	Name           string    `json:"name"`
	KanaName       *string   `json:"kanaName,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NeedsUpdate reports whether the stored row differs from the candidate in
// securities code or name.
func (c Company) NeedsUpdate(candidate Company) bool {
	if c.Name != candidate.Name && candidate.Name != "" {
		return true
	}
	stored := ""
	if c.SecuritiesCode != nil {
		stored = *c.SecuritiesCode
	}
	incoming := ""
	if candidate.SecuritiesCode != nil {
		incoming = *candidate.SecuritiesCode
	}
	return stored != incoming && incoming != ""
}
