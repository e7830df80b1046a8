package finance

import (
	"context"
	"errors"
)

// ErrNotFound indicates no financial data exists for the key.
var ErrNotFound = errors.New("financial data not found")

// Repo persists normalized financial statements.
type Repo interface {
	// Upsert inserts the row or updates the existing one sharing the
	// (doc_id, period_type, period_start, period_end) key.
	Upsert(ctx context.Context, data *FinancialData) error
	// GetByDocID returns all statements for a document, newest period first.
	GetByDocID(ctx context.Context, docID string) ([]*FinancialData, error)
}
